package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	aws_pkg "github.com/pythonsogood/dbms-nosql/pkg/aws"
)

// NewClientFromConfig accepts an AWS SDK config and returns a DynamoDB client.
// AWS_DYNAMODB_ENDPOINT overrides the endpoint for this client only.
func NewClientFromConfig(cfg sdkaws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint := aws_pkg.Endpoint("DYNAMODB"); endpoint != "" {
			o.BaseEndpoint = sdkaws.String(endpoint)
		}
	})
}

// TableWaitTimeout bounds how long EnsureTables waits for a new table to
// become ACTIVE.
const TableWaitTimeout = 2 * time.Minute

// TableAPI is the slice of the DynamoDB client EnsureTables needs.
type TableAPI interface {
	dynamodb.DescribeTableAPIClient
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// EnsureTables creates every missing table, keyed by a single string hash key,
// billed on demand, and waits until each new table is ACTIVE. tables maps
// table name to key attribute. waitOpts tune the table-exists waiter.
func EnsureTables(ctx context.Context, api TableAPI, tables map[string]string, waitOpts ...func(*dynamodb.TableExistsWaiterOptions)) ([]string, error) {
	var created []string
	for table, key := range tables {
		_, err := api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: sdkaws.String(table)})
		if err == nil {
			continue
		}
		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return created, fmt.Errorf("describe table %s: %w", table, err)
		}

		_, err = api.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName:   sdkaws.String(table),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: sdkaws.String(key), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: sdkaws.String(key), KeyType: types.KeyTypeHash},
			},
		})
		if err != nil {
			return created, fmt.Errorf("create table %s: %w", table, err)
		}
		waiter := dynamodb.NewTableExistsWaiter(api, waitOpts...)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: sdkaws.String(table)}, TableWaitTimeout); err != nil {
			return created, fmt.Errorf("wait for table %s: %w", table, err)
		}
		created = append(created, table)
	}
	return created, nil
}
