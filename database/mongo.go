package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/logger"
	"github.com/pythonsogood/dbms-nosql/models"
)

// DefaultConnectTimeout bounds connect plus ping.
const DefaultConnectTimeout = 10 * time.Second

const disconnectTimeout = 5 * time.Second

// Mongo is an open connection to the target database.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect connects to MongoDB using the provided URI and database name and
// pings the primary before returning.
func Connect(ctx context.Context, mongoURL, dbName string, timeout time.Duration) (*Mongo, error) {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(timeoutCtx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, apperrors.Connection("failed to connect to MongoDB", err)
	}
	if err := client.Ping(timeoutCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperrors.Connection("failed to ping MongoDB", err)
	}

	logger.Info(ctx, "connected", zap.String("database", dbName))
	return &Mongo{Client: client, DB: client.Database(dbName)}, nil
}

// EnsureIndexes creates the unique indexes the generated data relies on.
// Index creation is idempotent, so reseeding an existing database is safe.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string]mongo.IndexModel{
		models.CollectionUsers: {
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		models.CollectionProducts: {
			Keys: bson.D{{Key: "category_id", Value: 1}},
		},
		models.CollectionAddresses: {
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		models.CollectionOrders: {
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		models.CollectionReviews: {
			Keys: bson.D{{Key: "product_id", Value: 1}},
		},
	}
	for _, name := range models.WriteOrder {
		model, ok := indexes[name]
		if !ok {
			continue
		}
		if _, err := m.DB.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return apperrors.Connection("create index on "+name, err)
		}
	}
	return nil
}

// Close disconnects from MongoDB
func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}
	disconnectCtx, cancel := context.WithTimeout(ctx, disconnectTimeout)
	defer cancel()

	if err := m.Client.Disconnect(disconnectCtx); err != nil {
		return apperrors.Connection("failed to disconnect from MongoDB", err)
	}
	logger.Debug(ctx, "disconnected from MongoDB")
	return nil
}
