// Package repository persists a generated dataset, one bulk insert per collection.
package repository

import (
	"context"
)

// Store inserts a batch of documents into one named collection (or table).
// It returns the number of documents acknowledged.
type Store interface {
	InsertMany(ctx context.Context, collection string, docs []interface{}) (int, error)
}
