package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/logger"
	"github.com/pythonsogood/dbms-nosql/models"
)

// Writer persists a dataset through a Store in models.WriteOrder.
type Writer struct {
	store   Store
	timeout time.Duration
}

// NewWriter returns a Writer that bounds each collection insert by timeout.
// A zero timeout leaves only the caller's context deadline.
func NewWriter(store Store, timeout time.Duration) *Writer {
	return &Writer{store: store, timeout: timeout}
}

// Write inserts every non-empty collection in order, awaiting each insert
// before the next. The first failure stops the run; earlier collections stay
// written. It returns the acknowledged count per collection.
func (w *Writer) Write(ctx context.Context, ds *models.Dataset) (map[string]int, error) {
	inserted := make(map[string]int, len(models.WriteOrder))
	for _, name := range models.WriteOrder {
		docs := ds.Documents(name)
		if len(docs) == 0 {
			logger.Debug(ctx, "skipping empty collection", zap.String("collection", name))
			continue
		}

		start := time.Now()
		n, err := w.insert(ctx, name, docs)
		if err != nil {
			logger.Error(ctx, "bulk insert failed", err, zap.String("collection", name))
			return inserted, apperrors.Write(fmt.Sprintf("insert %s", name), err)
		}
		inserted[name] = n
		logger.Debug(ctx, "collection written",
			zap.String("collection", name),
			zap.Int("documents", n),
			zap.Duration("latency", time.Since(start)),
		)
	}
	return inserted, nil
}

func (w *Writer) insert(ctx context.Context, name string, docs []interface{}) (int, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	return w.store.InsertMany(ctx, name, docs)
}
