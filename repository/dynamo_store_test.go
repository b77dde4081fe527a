package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pythonsogood/dbms-nosql/models"
)

// fakeBatchClient records every batch and leaves the first `unprocessed`
// requests of each call unprocessed, `failTimes` times.
type fakeBatchClient struct {
	batches     [][]types.WriteRequest
	tables      []string
	unprocessed int
	failTimes   int
	err         error
}

func (f *fakeBatchClient) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &dynamodb.BatchWriteItemOutput{}
	for table, reqs := range in.RequestItems {
		f.tables = append(f.tables, table)
		f.batches = append(f.batches, reqs)
		if f.failTimes > 0 && f.unprocessed > 0 {
			f.failTimes--
			n := f.unprocessed
			if n > len(reqs) {
				n = len(reqs)
			}
			out.UnprocessedItems = map[string][]types.WriteRequest{table: reqs[:n]}
		}
	}
	return out, nil
}

func manyUsers(n int) []interface{} {
	users := make([]models.User, n)
	for i := range users {
		users[i] = sampleDataset().Users[0]
	}
	ds := &models.Dataset{Users: users}
	return ds.Documents(models.CollectionUsers)
}

func TestDynamoStore_ChunksOf25(t *testing.T) {
	client := &fakeBatchClient{}
	store := NewDynamoStore(client, "seed_")

	n, err := store.InsertMany(context.Background(), "users", manyUsers(60))
	require.NoError(t, err)

	assert.Equal(t, 60, n)
	require.Len(t, client.batches, 3)
	assert.Len(t, client.batches[0], 25)
	assert.Len(t, client.batches[2], 10)
	assert.Equal(t, "seed_users", client.tables[0])
}

func TestDynamoStore_RetriesUnprocessed(t *testing.T) {
	client := &fakeBatchClient{unprocessed: 2, failTimes: 1}
	store := NewDynamoStore(client, "")
	store.backoff = 0

	n, err := store.InsertMany(context.Background(), "users", manyUsers(5))
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	require.Len(t, client.batches, 2)
	assert.Len(t, client.batches[1], 2)
}

func TestDynamoStore_GivesUpAfterRetries(t *testing.T) {
	client := &fakeBatchClient{unprocessed: 1, failTimes: 10}
	store := NewDynamoStore(client, "")
	store.backoff = 0

	_, err := store.InsertMany(context.Background(), "users", manyUsers(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unprocessed")
	assert.Len(t, client.batches, maxBatchAttempts)
}

func TestDynamoStore_ClientError(t *testing.T) {
	store := NewDynamoStore(&fakeBatchClient{err: errors.New("throttled")}, "")
	_, err := store.InsertMany(context.Background(), "users", manyUsers(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestMarshalItem_Order(t *testing.T) {
	order := sampleDataset().Orders[0]

	item, err := marshalItem(order)
	require.NoError(t, err)

	assert.Equal(t, &types.AttributeValueMemberS{Value: order.ID.Hex()}, item["order_id"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "12.50"}, item["total_amount"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2026-03-01T12:00:00Z"}, item["created_at"])

	var decoded ddbOrder
	require.NoError(t, attributevalue.UnmarshalMap(item, &decoded))
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, 2, decoded.Items[0].Quantity)
	assert.Equal(t, order.Items[0].ProductID.Hex(), decoded.Items[0].ProductID)
}

func TestMarshalItem_CategoryParent(t *testing.T) {
	top := sampleDataset().Categories[0]
	item, err := marshalItem(top)
	require.NoError(t, err)
	_, hasParent := item["parent_id"]
	assert.False(t, hasParent)

	child := models.Category{ID: top.ID, Name: "Poetry", ParentID: &top.ID}
	item, err = marshalItem(child)
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberS{Value: top.ID.Hex()}, item["parent_id"])
}

func TestMarshalItem_UnknownType(t *testing.T) {
	_, err := marshalItem(struct{}{})
	assert.Error(t, err)
}

func TestDynamoStore_TablesCoverEveryCollection(t *testing.T) {
	tables := NewDynamoStore(&fakeBatchClient{}, "seed_").Tables()
	for _, name := range models.WriteOrder {
		assert.Contains(t, tables, "seed_"+name)
	}
	assert.Equal(t, "order_id", tables["seed_orders"])
}

func TestDynamoStore_RateLimitHonoursContext(t *testing.T) {
	client := &fakeBatchClient{}
	store := NewDynamoStore(client, "").WithRateLimit(0.001)

	ctx, cancel := context.WithCancel(context.Background())
	n, err := store.InsertMany(ctx, "users", manyUsers(20))
	require.NoError(t, err, "the first batch uses the initial burst")
	assert.Equal(t, 20, n)

	cancel()
	_, err = store.InsertMany(ctx, "users", manyUsers(1))
	assert.ErrorIs(t, err, context.Canceled)
}
