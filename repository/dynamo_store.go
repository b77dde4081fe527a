package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/time/rate"

	"github.com/pythonsogood/dbms-nosql/models"
)

const (
	batchWriteLimit     = 25
	maxBatchAttempts    = 3
	defaultBatchBackoff = 300 * time.Millisecond
)

// KeyAttributes names the hash key of each collection's table.
var KeyAttributes = map[string]string{
	models.CollectionUsers:      "user_id",
	models.CollectionAddresses:  "address_id",
	models.CollectionCategories: "category_id",
	models.CollectionProducts:   "product_id",
	models.CollectionReviews:    "review_id",
	models.CollectionOrders:     "order_id",
}

// BatchWriteAPI is the slice of the DynamoDB client the store needs.
type BatchWriteAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoStore writes each collection to a table named prefix+collection.
// Every item is keyed by its hex object id under "<entity>_id".
type DynamoStore struct {
	client  BatchWriteAPI
	prefix  string
	backoff time.Duration
	limiter *rate.Limiter
}

func NewDynamoStore(client BatchWriteAPI, tablePrefix string) *DynamoStore {
	return &DynamoStore{client: client, prefix: tablePrefix, backoff: defaultBatchBackoff}
}

// WithRateLimit caps BatchWriteItem calls per second, retries included.
// A non-positive rate removes the cap.
func (d *DynamoStore) WithRateLimit(perSecond float64) *DynamoStore {
	if perSecond <= 0 {
		d.limiter = nil
		return d
	}
	d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	return d
}

// TableName returns the table a collection is written to.
func (d *DynamoStore) TableName(collection string) string {
	return d.prefix + collection
}

// Tables maps every table this store writes to its hash key attribute.
func (d *DynamoStore) Tables() map[string]string {
	tables := make(map[string]string, len(KeyAttributes))
	for collection, key := range KeyAttributes {
		tables[d.TableName(collection)] = key
	}
	return tables
}

// InsertMany uses BatchWriteItem (chunks of 25) and retries unprocessed items.
func (d *DynamoStore) InsertMany(ctx context.Context, collection string, docs []interface{}) (int, error) {
	table := d.TableName(collection)
	written := 0
	for i := 0; i < len(docs); i += batchWriteLimit {
		end := i + batchWriteLimit
		if end > len(docs) {
			end = len(docs)
		}
		writeReqs := make([]types.WriteRequest, 0, end-i)
		for _, doc := range docs[i:end] {
			item, err := marshalItem(doc)
			if err != nil {
				return written, fmt.Errorf("marshal batch item: %w", err)
			}
			writeReqs = append(writeReqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		if err := d.writeChunk(ctx, table, writeReqs); err != nil {
			return written, err
		}
		written += len(writeReqs)
	}
	return written, nil
}

func (d *DynamoStore) writeChunk(ctx context.Context, table string, reqs []types.WriteRequest) error {
	req := &dynamodb.BatchWriteItemInput{RequestItems: map[string][]types.WriteRequest{table: reqs}}
	for attempts := 1; ; attempts++ {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("batch write to %s: %w", table, err)
			}
		}
		out, err := d.client.BatchWriteItem(ctx, req)
		if err != nil {
			return fmt.Errorf("batch write to %s failed: %w", table, err)
		}
		unp := out.UnprocessedItems[table]
		if len(unp) == 0 {
			return nil
		}
		if attempts >= maxBatchAttempts {
			return fmt.Errorf("batch write to %s left %d unprocessed items after %d attempts", table, len(unp), attempts)
		}
		req.RequestItems[table] = unp

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempts) * d.backoff):
		}
	}
}

// ddbNumber stores an exact decimal as a DynamoDB number.
type ddbNumber string

func (n ddbNumber) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: string(n)}, nil
}

type ddbUser struct {
	UserID       string `dynamodbav:"user_id"`
	Email        string `dynamodbav:"email"`
	PasswordHash string `dynamodbav:"password_hash"`
	FullName     string `dynamodbav:"full_name"`
	Phone        string `dynamodbav:"phone"`
	Role         string `dynamodbav:"role"`
	CreatedAt    string `dynamodbav:"created_at"`
}

type ddbAddress struct {
	AddressID  string `dynamodbav:"address_id"`
	UserID     string `dynamodbav:"user_id"`
	Country    string `dynamodbav:"country"`
	City       string `dynamodbav:"city"`
	Street     string `dynamodbav:"street"`
	PostalCode string `dynamodbav:"postal_code"`
}

type ddbCategory struct {
	CategoryID string  `dynamodbav:"category_id"`
	Name       string  `dynamodbav:"name"`
	ParentID   *string `dynamodbav:"parent_id,omitempty"`
}

type ddbProduct struct {
	ProductID         string    `dynamodbav:"product_id"`
	CategoryID        string    `dynamodbav:"category_id"`
	Name              string    `dynamodbav:"name"`
	Description       string    `dynamodbav:"description"`
	Price             ddbNumber `dynamodbav:"price"`
	SKU               string    `dynamodbav:"sku"`
	Quantity          int       `dynamodbav:"quantity"`
	Images            []string  `dynamodbav:"images,omitempty"`
	CreatedAt         string    `dynamodbav:"created_at"`
	QuantityUpdatedAt string    `dynamodbav:"quantity_updated_at"`
}

type ddbReview struct {
	ReviewID  string `dynamodbav:"review_id"`
	UserID    string `dynamodbav:"user_id"`
	ProductID string `dynamodbav:"product_id"`
	Rating    int    `dynamodbav:"rating"`
	Comment   string `dynamodbav:"comment"`
	CreatedAt string `dynamodbav:"created_at"`
}

type ddbOrderItem struct {
	ProductID string    `dynamodbav:"product_id"`
	Quantity  int       `dynamodbav:"quantity"`
	Price     ddbNumber `dynamodbav:"price"`
}

type ddbOrder struct {
	OrderID       string         `dynamodbav:"order_id"`
	UserID        string         `dynamodbav:"user_id"`
	AddressID     string         `dynamodbav:"address_id"`
	Status        string         `dynamodbav:"status"`
	TotalAmount   ddbNumber      `dynamodbav:"total_amount"`
	Items         []ddbOrderItem `dynamodbav:"items"`
	PaymentMethod string         `dynamodbav:"payment_method"`
	PaymentStatus string         `dynamodbav:"payment_status"`
	CreatedAt     string         `dynamodbav:"created_at"`
	PaymentDate   string         `dynamodbav:"payment_date"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func marshalItem(doc interface{}) (map[string]types.AttributeValue, error) {
	var item interface{}
	switch v := doc.(type) {
	case models.User:
		item = ddbUser{
			UserID:       v.ID.Hex(),
			Email:        v.Email,
			PasswordHash: v.PasswordHash,
			FullName:     v.FullName,
			Phone:        v.Phone,
			Role:         v.Role,
			CreatedAt:    formatTime(v.CreatedAt),
		}
	case models.Address:
		item = ddbAddress{
			AddressID:  v.ID.Hex(),
			UserID:     v.UserID.Hex(),
			Country:    v.Country,
			City:       v.City,
			Street:     v.Street,
			PostalCode: v.PostalCode,
		}
	case models.Category:
		dc := ddbCategory{CategoryID: v.ID.Hex(), Name: v.Name}
		if v.ParentID != nil {
			parent := v.ParentID.Hex()
			dc.ParentID = &parent
		}
		item = dc
	case models.Product:
		item = ddbProduct{
			ProductID:         v.ID.Hex(),
			CategoryID:        v.CategoryID.Hex(),
			Name:              v.Name,
			Description:       v.Description,
			Price:             ddbNumber(v.Price.String()),
			SKU:               v.SKU,
			Quantity:          v.Quantity,
			Images:            v.Images,
			CreatedAt:         formatTime(v.CreatedAt),
			QuantityUpdatedAt: formatTime(v.QuantityUpdatedAt),
		}
	case models.Review:
		item = ddbReview{
			ReviewID:  v.ID.Hex(),
			UserID:    v.UserID.Hex(),
			ProductID: v.ProductID.Hex(),
			Rating:    v.Rating,
			Comment:   v.Comment,
			CreatedAt: formatTime(v.CreatedAt),
		}
	case models.Order:
		do := ddbOrder{
			OrderID:       v.ID.Hex(),
			UserID:        v.UserID.Hex(),
			AddressID:     v.AddressID.Hex(),
			Status:        string(v.Status),
			TotalAmount:   ddbNumber(v.TotalAmount.String()),
			PaymentMethod: string(v.PaymentMethod),
			PaymentStatus: string(v.PaymentStatus),
			CreatedAt:     formatTime(v.CreatedAt),
			PaymentDate:   formatTime(v.PaymentDate),
		}
		for _, it := range v.Items {
			do.Items = append(do.Items, ddbOrderItem{
				ProductID: it.ProductID.Hex(),
				Quantity:  it.Quantity,
				Price:     ddbNumber(it.Price.String()),
			})
		}
		item = do
	default:
		return nil, fmt.Errorf("unsupported document type %T", doc)
	}
	return attributevalue.MarshalMap(item)
}
