package dynamodb

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTableAPI reports a created table as CREATING for creatingPolls
// describes before it turns ACTIVE.
type fakeTableAPI struct {
	existing      map[string]bool
	describeErr   error
	created       map[string]string
	creatingPolls int
	polls         map[string]int
}

func (f *fakeTableAPI) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	name := *in.TableName
	if f.existing[name] {
		return describeOutput(types.TableStatusActive), nil
	}
	if _, ok := f.created[name]; ok {
		if f.polls == nil {
			f.polls = map[string]int{}
		}
		f.polls[name]++
		if f.polls[name] <= f.creatingPolls {
			return describeOutput(types.TableStatusCreating), nil
		}
		return describeOutput(types.TableStatusActive), nil
	}
	return nil, &types.ResourceNotFoundException{Message: sdkaws.String("not found")}
}

func (f *fakeTableAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if f.created == nil {
		f.created = map[string]string{}
	}
	f.created[*in.TableName] = *in.KeySchema[0].AttributeName
	return &dynamodb.CreateTableOutput{}, nil
}

func describeOutput(status types.TableStatus) *dynamodb.DescribeTableOutput {
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableStatus: status}}
}

func fastWaiter(o *dynamodb.TableExistsWaiterOptions) {
	o.MinDelay = time.Millisecond
	o.MaxDelay = 5 * time.Millisecond
}

func TestEnsureTables_CreatesOnlyMissing(t *testing.T) {
	api := &fakeTableAPI{existing: map[string]bool{"seed_users": true}}

	created, err := EnsureTables(context.Background(), api, map[string]string{
		"seed_users":     "user_id",
		"seed_orders":    "order_id",
		"seed_addresses": "address_id",
	}, fastWaiter)
	require.NoError(t, err)

	sort.Strings(created)
	assert.Equal(t, []string{"seed_addresses", "seed_orders"}, created)
	assert.Equal(t, "order_id", api.created["seed_orders"])
}

func TestEnsureTables_DescribeFailure(t *testing.T) {
	api := &fakeTableAPI{describeErr: errors.New("AccessDenied")}
	_, err := EnsureTables(context.Background(), api, map[string]string{"t": "id"}, fastWaiter)
	assert.ErrorContains(t, err, "AccessDenied")
}

func TestEnsureTables_WaitsUntilActive(t *testing.T) {
	api := &fakeTableAPI{creatingPolls: 3}

	created, err := EnsureTables(context.Background(), api, map[string]string{"seed_orders": "order_id"}, fastWaiter)
	require.NoError(t, err)

	assert.Equal(t, []string{"seed_orders"}, created)
	// three CREATING answers, then the ACTIVE one that ends the wait
	assert.Equal(t, 4, api.polls["seed_orders"])
}

func TestEnsureTables_ExistingTableIsNotAwaited(t *testing.T) {
	api := &fakeTableAPI{existing: map[string]bool{"seed_users": true}, creatingPolls: 3}

	created, err := EnsureTables(context.Background(), api, map[string]string{"seed_users": "user_id"}, fastWaiter)
	require.NoError(t, err)

	assert.Empty(t, created)
	assert.Empty(t, api.polls)
}

func TestEnsureTables_WaitRespectsContext(t *testing.T) {
	api := &fakeTableAPI{creatingPolls: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	created, err := EnsureTables(ctx, api, map[string]string{"seed_orders": "order_id"}, fastWaiter)
	assert.Error(t, err)
	assert.ErrorContains(t, err, "wait for table seed_orders")
	assert.Empty(t, created)
}
