package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/pythonsogood/dbms-nosql/models"
)

// JSONStore keeps inserted documents in memory and renders them as one JSON
// object keyed by collection, in write order. It backs dry runs, the -out
// file and the S3 snapshot.
type JSONStore struct {
	mu          sync.Mutex
	collections map[string][]interface{}
	order       []string
}

func NewJSONStore() *JSONStore {
	return &JSONStore{collections: make(map[string][]interface{})}
}

func (s *JSONStore) InsertMany(_ context.Context, collection string, docs []interface{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.collections[collection]; !seen {
		s.order = append(s.order, collection)
	}
	s.collections[collection] = append(s.collections[collection], docs...)
	return len(docs), nil
}

// MarshalJSON preserves insertion order, which a map would not.
func (s *JSONStore) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		docs, err := json.Marshal(s.collections[name])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(docs)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Bytes returns the indented snapshot.
func (s *JSONStore) Bytes() ([]byte, error) {
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// WriteFile writes the snapshot to path.
func (s *JSONStore) WriteFile(path string) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Snapshot renders a dataset the same way a JSONStore filled by a Writer would.
func Snapshot(ds *models.Dataset) ([]byte, error) {
	store := NewJSONStore()
	for _, name := range models.WriteOrder {
		if docs := ds.Documents(name); len(docs) > 0 {
			_, _ = store.InsertMany(context.Background(), name, docs)
		}
	}
	return store.Bytes()
}
