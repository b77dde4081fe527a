package aws

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the slice of the S3 client used for snapshots.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client creates a new S3 client from AWS config. Custom endpoints
// (LocalStack) need path-style addressing.
func NewS3Client(cfg sdkaws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := Endpoint("S3"); endpoint != "" {
			o.BaseEndpoint = sdkaws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// SnapshotUploader stores dataset snapshots in one bucket.
type SnapshotUploader struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func NewSnapshotUploader(client PutObjectAPI, bucket string) *SnapshotUploader {
	return &SnapshotUploader{client: client, bucket: bucket, prefix: "seed-data"}
}

// SnapshotKey places a run's snapshot under its UTC date.
func (u *SnapshotUploader) SnapshotKey(runID string, at time.Time) string {
	return path.Join(u.prefix, at.UTC().Format("2006-01-02"), runID+".json")
}

// Upload writes body as a JSON object and returns its s3:// location.
func (u *SnapshotUploader) Upload(ctx context.Context, key string, body []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        sdkaws.String(u.bucket),
		Key:           sdkaws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   sdkaws.String("application/json"),
		ContentLength: sdkaws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot to s3://%s/%s: %w", u.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
