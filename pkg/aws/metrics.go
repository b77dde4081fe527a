package aws

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Seeding metric names.
const (
	MetricDocumentsInserted = "DocumentsInserted"
	MetricSeedRunDuration   = "SeedRunDuration"
	MetricSeedRunFailed     = "SeedRunFailed"
)

// metricBatchSize stays well under the PutMetricData limit.
const metricBatchSize = 20

// PutMetricDataAPI is the slice of the CloudWatch client used here.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsClient wraps AWS CloudWatch Metrics operations
type MetricsClient struct {
	client    PutMetricDataAPI
	namespace string
	enabled   bool
	now       func() time.Time
}

// NewMetricsClient creates a CloudWatch Metrics client. It is a no-op unless
// CLOUDWATCH_ENABLED=true.
func NewMetricsClient(cfg aws.Config) *MetricsClient {
	namespace := os.Getenv("CLOUDWATCH_NAMESPACE")
	if namespace == "" {
		namespace = "ECommerce/Seed"
	}
	return NewMetricsClientWithAPI(cloudwatch.NewFromConfig(cfg), namespace, os.Getenv("CLOUDWATCH_ENABLED") == "true")
}

func NewMetricsClientWithAPI(api PutMetricDataAPI, namespace string, enabled bool) *MetricsClient {
	return &MetricsClient{client: api, namespace: namespace, enabled: enabled, now: time.Now}
}

// PutMetricBatch sends multiple metric data points to CloudWatch
func (m *MetricsClient) PutMetricBatch(ctx context.Context, metrics []types.MetricDatum) error {
	if !m.enabled || len(metrics) == 0 {
		return nil
	}

	for i := 0; i < len(metrics); i += metricBatchSize {
		end := i + metricBatchSize
		if end > len(metrics) {
			end = len(metrics)
		}

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: metrics[i:end],
		})
		if err != nil {
			return fmt.Errorf("failed to put metric batch: %w", err)
		}
	}
	return nil
}

// RecordSeedRun publishes one DocumentsInserted datum per collection, the run
// duration and, when failed is true, a SeedRunFailed count.
func (m *MetricsClient) RecordSeedRun(ctx context.Context, database string, inserted map[string]int, duration time.Duration, failed bool) error {
	ts := aws.Time(m.now())
	dbDim := types.Dimension{Name: aws.String("Database"), Value: aws.String(database)}

	names := make([]string, 0, len(inserted))
	for name := range inserted {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make([]types.MetricDatum, 0, len(names)+2)
	for _, name := range names {
		data = append(data, types.MetricDatum{
			MetricName: aws.String(MetricDocumentsInserted),
			Value:      aws.Float64(float64(inserted[name])),
			Unit:       types.StandardUnitCount,
			Timestamp:  ts,
			Dimensions: []types.Dimension{dbDim, {Name: aws.String("Collection"), Value: aws.String(name)}},
		})
	}
	data = append(data, types.MetricDatum{
		MetricName: aws.String(MetricSeedRunDuration),
		Value:      aws.Float64(float64(duration.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  ts,
		Dimensions: []types.Dimension{dbDim},
	})
	if failed {
		data = append(data, types.MetricDatum{
			MetricName: aws.String(MetricSeedRunFailed),
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  ts,
			Dimensions: []types.Dimension{dbDim},
		})
	}
	return m.PutMetricBatch(ctx, data)
}

// IsEnabled returns whether CloudWatch metrics are enabled
func (m *MetricsClient) IsEnabled() bool {
	return m.enabled
}
