// Package seeder runs one seeding pass: generate, verify, persist, report.
package seeder

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/generator"
	"github.com/pythonsogood/dbms-nosql/logger"
	"github.com/pythonsogood/dbms-nosql/models"
	"github.com/pythonsogood/dbms-nosql/repository"
)

// SnapshotUploader stores the JSON rendering of a dataset.
type SnapshotUploader interface {
	SnapshotKey(runID string, at time.Time) string
	Upload(ctx context.Context, key string, body []byte) (string, error)
}

// MetricsRecorder publishes per-run metrics.
type MetricsRecorder interface {
	RecordSeedRun(ctx context.Context, database string, inserted map[string]int, duration time.Duration, failed bool) error
}

// Publisher announces a finished run.
type Publisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

// Notification sends the run summary to one topic.
type Notification struct {
	Publisher Publisher
	Topic     string
}

// Seeder wires one run. Only Provider and Hasher are required; a nil Store
// makes the run a dry run.
type Seeder struct {
	Provider *faker.Provider
	Hasher   generator.PasswordHasher
	Options  generator.Options

	Store        repository.Store
	WriteTimeout time.Duration
	OutputPath   string

	Snapshots SnapshotUploader
	Metrics   MetricsRecorder
	Notify    []Notification

	RunID    string
	Seed     uint64
	Database string
	Sink     string
}

// Summary describes a finished run. It is also the SNS message body.
type Summary struct {
	RunID      string         `json:"run_id"`
	Seed       uint64         `json:"seed,omitempty"`
	Database   string         `json:"database"`
	Sink       string         `json:"sink"`
	DryRun     bool           `json:"dry_run"`
	Generated  map[string]int `json:"generated"`
	Inserted   map[string]int `json:"inserted,omitempty"`
	Snapshot   string         `json:"snapshot,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// Run generates the dataset, verifies it and writes it. Failures of the
// auxiliary outputs (snapshot, metrics, notification) are logged and listed in
// Summary.Warnings; the dataset is already committed by then.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:     s.RunID,
		Seed:      s.Seed,
		Database:  s.Database,
		Sink:      s.Sink,
		DryRun:    s.Store == nil,
		StartedAt: start.UTC(),
	}

	ds, err := s.generate(ctx)
	if err != nil {
		s.recordFailure(ctx, summary, start)
		return summary, err
	}
	summary.Generated = ds.Counts()

	if s.OutputPath != "" {
		if err := writeSnapshotFile(ds, s.OutputPath); err != nil {
			s.recordFailure(ctx, summary, start)
			return summary, apperrors.Write("write "+s.OutputPath, err)
		}
		logger.Info(ctx, "dataset written to file", zap.String("path", s.OutputPath))
	}

	if s.Store == nil {
		logger.Info(ctx, "dry run, nothing inserted")
		summary.DurationMS = time.Since(start).Milliseconds()
		return summary, nil
	}

	summary.Inserted, err = repository.NewWriter(s.Store, s.WriteTimeout).Write(ctx, ds)
	if err != nil {
		s.recordFailure(ctx, summary, start)
		return summary, err
	}
	logger.Info(ctx, "inserted", logger.Counts(summary.Inserted, models.WriteOrder)...)

	s.upload(ctx, ds, summary)
	summary.DurationMS = time.Since(start).Milliseconds()
	s.report(ctx, summary, false)
	return summary, nil
}

func (s *Seeder) generate(ctx context.Context) (*models.Dataset, error) {
	ds, err := generator.Generate(s.Provider, s.Hasher, s.Options)
	if err != nil {
		return nil, err
	}
	if err := generator.Check(ds, s.Options); err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "generated dataset failed verification", err)
	}
	logger.Info(ctx, "generated", logger.Counts(ds.Counts(), models.WriteOrder)...)
	return ds, nil
}

func (s *Seeder) upload(ctx context.Context, ds *models.Dataset, summary *Summary) {
	if s.Snapshots == nil {
		return
	}
	body, err := repository.Snapshot(ds)
	if err == nil {
		summary.Snapshot, err = s.Snapshots.Upload(ctx, s.Snapshots.SnapshotKey(s.RunID, summary.StartedAt), body)
	}
	if err != nil {
		s.warn(ctx, summary, "snapshot upload failed", err)
		return
	}
	logger.Info(ctx, "snapshot uploaded", zap.String("location", summary.Snapshot))
}

func (s *Seeder) report(ctx context.Context, summary *Summary, failed bool) {
	if s.Metrics != nil {
		err := s.Metrics.RecordSeedRun(ctx, s.Database, summary.Inserted, time.Duration(summary.DurationMS)*time.Millisecond, failed)
		if err != nil {
			s.warn(ctx, summary, "metrics publish failed", err)
		}
	}
	if failed || len(s.Notify) == 0 {
		return
	}
	body, err := json.Marshal(summary)
	if err != nil {
		s.warn(ctx, summary, "encode run summary", err)
		return
	}
	for _, n := range s.Notify {
		if err := n.Publisher.Publish(ctx, n.Topic, body); err != nil {
			s.warn(ctx, summary, "run notification to "+n.Topic+" failed", err)
		}
	}
}

func (s *Seeder) recordFailure(ctx context.Context, summary *Summary, start time.Time) {
	summary.DurationMS = time.Since(start).Milliseconds()
	s.report(ctx, summary, true)
}

func (s *Seeder) warn(ctx context.Context, summary *Summary, msg string, err error) {
	logger.Warn(ctx, msg, zap.Error(err))
	summary.Warnings = append(summary.Warnings, msg+": "+err.Error())
}

func writeSnapshotFile(ds *models.Dataset, path string) error {
	body, err := repository.Snapshot(ds)
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}
