package seeder

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/generator"
	"github.com/pythonsogood/dbms-nosql/repository"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type failingStore struct {
	failOn string
	calls  []string
}

func (f *failingStore) InsertMany(_ context.Context, collection string, docs []interface{}) (int, error) {
	f.calls = append(f.calls, collection)
	if collection == f.failOn {
		return 0, errors.New("E11000 duplicate key")
	}
	return len(docs), nil
}

type fakeUploader struct {
	key  string
	body []byte
	err  error
}

func (f *fakeUploader) SnapshotKey(runID string, _ time.Time) string { return "seed-data/" + runID + ".json" }

func (f *fakeUploader) Upload(_ context.Context, key string, body []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key, f.body = key, body
	return "s3://bucket/" + key, nil
}

type fakeMetrics struct {
	inserted map[string]int
	failed   bool
	calls    int
}

func (f *fakeMetrics) RecordSeedRun(_ context.Context, _ string, inserted map[string]int, _ time.Duration, failed bool) error {
	f.calls++
	f.inserted, f.failed = inserted, failed
	return nil
}

type fakePublisher struct {
	topic   string
	message []byte
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, topicArn string, message []byte) error {
	f.topic, f.message = topicArn, message
	return f.err
}

func newSeeder(seed uint64) *Seeder {
	p := faker.New(seed, testNow)
	opts := generator.DefaultOptions()
	opts.CategoryCount, opts.ProductCount, opts.UserCount = 4, 10, 8
	return &Seeder{
		Provider: p,
		Hasher:   generator.NewArgon2Hasher(p, generator.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLength: 16, SaltLength: 8}),
		Options:  opts,
		RunID:    "run-1",
		Seed:     seed,
		Database: "online_shopping",
		Sink:     "mongo",
	}
}

func TestRun_WritesAndReports(t *testing.T) {
	s := newSeeder(7)
	store := repository.NewJSONStore()
	uploader := &fakeUploader{}
	metrics := &fakeMetrics{}
	publisher := &fakePublisher{}
	kafka := &fakePublisher{}
	s.Store, s.Snapshots, s.Metrics = store, uploader, metrics
	s.Notify = []Notification{
		{Publisher: publisher, Topic: "arn:aws:sns:eu-west-2:000000000000:seed-events"},
		{Publisher: kafka, Topic: "seed-events"},
	}

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, summary.DryRun)
	assert.Equal(t, 8, summary.Generated["users"])
	assert.Equal(t, summary.Generated["orders"], summary.Inserted["orders"])
	assert.Equal(t, "s3://bucket/seed-data/run-1.json", summary.Snapshot)
	assert.Empty(t, summary.Warnings)

	stored, err := store.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, string(stored), string(uploader.body))

	assert.Equal(t, 1, metrics.calls)
	assert.False(t, metrics.failed)
	assert.Equal(t, summary.Inserted, metrics.inserted)

	var published Summary
	require.NoError(t, json.Unmarshal(publisher.message, &published))
	assert.Equal(t, "run-1", published.RunID)
	assert.Equal(t, "arn:aws:sns:eu-west-2:000000000000:seed-events", publisher.topic)
	assert.Equal(t, "seed-events", kafka.topic)
	assert.Equal(t, publisher.message, kafka.message)
}

func TestRun_DryRunWritesFileOnly(t *testing.T) {
	s := newSeeder(3)
	s.OutputPath = filepath.Join(t.TempDir(), "dataset.json")
	metrics := &fakeMetrics{}
	s.Metrics = metrics

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Empty(t, summary.Inserted)
	assert.Zero(t, metrics.calls)

	b, err := os.ReadFile(s.OutputPath)
	require.NoError(t, err)
	var decoded map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Len(t, decoded["users"], 8)
}

func TestRun_WriteFailureStopsAndRecordsFailure(t *testing.T) {
	s := newSeeder(11)
	store := &failingStore{failOn: "categories"}
	metrics := &fakeMetrics{}
	publisher := &fakePublisher{}
	s.Store, s.Metrics = store, metrics
	s.Notify = []Notification{{Publisher: publisher, Topic: "arn"}}

	_, err := s.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 5, apperrors.ExitCode(err))
	assert.Equal(t, []string{"users", "addresses", "categories"}, store.calls)
	assert.True(t, metrics.failed)
	assert.Nil(t, publisher.message, "failed runs are not announced")
}

func TestRun_InvalidOptionsIsConfigError(t *testing.T) {
	s := newSeeder(1)
	s.Options.ItemsPerOrder = generator.Range{Min: 3, Max: 1}
	s.Store = &failingStore{}

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
	assert.Empty(t, s.Store.(*failingStore).calls)
}

func TestRun_AuxiliaryFailuresBecomeWarnings(t *testing.T) {
	s := newSeeder(5)
	s.Store = repository.NewJSONStore()
	s.Snapshots = &fakeUploader{err: errors.New("AccessDenied")}
	s.Notify = []Notification{{Publisher: &fakePublisher{err: errors.New("topic not found")}, Topic: "arn"}}

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Warnings, 2)
	assert.Contains(t, summary.Warnings[0], "AccessDenied")
	assert.Contains(t, summary.Warnings[1], "topic not found")
	assert.Empty(t, summary.Snapshot)
}
