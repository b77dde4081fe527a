package aws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	t.Setenv("AWS_ENDPOINT", "http://localhost:4566")
	t.Setenv("AWS_S3_ENDPOINT", "http://s3.localhost:4566")

	assert.Equal(t, "http://localhost:4566", Endpoint(""))
	assert.Equal(t, "http://s3.localhost:4566", Endpoint("S3"))
	assert.Equal(t, "http://localhost:4566", Endpoint("SNS"))
}

type fakeSecretsAPI struct {
	values map[string]string
	calls  int
}

func (f *fakeSecretsAPI) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[*in.SecretId]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: sdkaws.String(v)}, nil
}

func TestSecretsClient_GetSecret(t *testing.T) {
	api := &fakeSecretsAPI{values: map[string]string{
		"seed/MONGODB_CONNECTION": "mongodb://secret:27017",
		"seed/db":                 `{"MONGODB_CONNECTION":"mongodb://json:27017"}`,
	}}
	client := NewSecretsClientWithAPI(api)
	ctx := context.Background()

	v, err := client.GetSecret(ctx, "seed/MONGODB_CONNECTION")
	require.NoError(t, err)
	assert.Equal(t, "mongodb://secret:27017", v)

	_, err = client.GetSecret(ctx, "seed/MONGODB_CONNECTION")
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls, "second read is served from cache")

	v, err = client.GetSecret(ctx, "seed/db#MONGODB_CONNECTION")
	require.NoError(t, err)
	assert.Equal(t, "mongodb://json:27017", v)

	_, err = client.GetSecret(ctx, "seed/db#MISSING")
	assert.Error(t, err)
	_, err = client.GetSecret(ctx, "seed/MONGODB_CONNECTION#key")
	assert.Error(t, err)
	_, err = client.GetSecret(ctx, "absent")
	assert.Error(t, err)
}

type fakePutObject struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutObject) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestSnapshotUploader(t *testing.T) {
	api := &fakePutObject{}
	up := NewSnapshotUploader(api, "seed-snapshots")

	key := up.SnapshotKey("run-1", time.Date(2026, 10, 17, 23, 0, 0, 0, time.FixedZone("X", -2*3600)))
	assert.Equal(t, "seed-data/2026-10-18/run-1.json", key)

	loc, err := up.Upload(context.Background(), key, []byte(`{"users":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "s3://seed-snapshots/seed-data/2026-10-18/run-1.json", loc)
	assert.Equal(t, "application/json", *api.input.ContentType)
	assert.Equal(t, `{"users":[]}`, string(api.body))

	_, err = NewSnapshotUploader(&fakePutObject{err: errors.New("AccessDenied")}, "b").Upload(context.Background(), "k", nil)
	assert.ErrorContains(t, err, "AccessDenied")
}

type fakePublishAPI struct {
	topic   string
	message string
}

func (f *fakePublishAPI) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.topic = *in.TopicArn
	f.message = *in.Message
	return &sns.PublishOutput{}, nil
}

func TestSNSClient_PublishJSON(t *testing.T) {
	api := &fakePublishAPI{}
	client := NewSNSClientWithAPI(api)
	arn := "arn:aws:sns:eu-west-2:000000000000:seed-events"

	require.NoError(t, PublishJSON(context.Background(), client, arn, map[string]int{"users": 3}))
	assert.Equal(t, arn, api.topic)

	var out map[string]int
	require.NoError(t, json.Unmarshal([]byte(api.message), &out))
	assert.Equal(t, 3, out["users"])

	assert.Error(t, client.Publish(context.Background(), "", []byte("x")))
}

type fakeMetricsAPI struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeMetricsAPI) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetricsClient_RecordSeedRun(t *testing.T) {
	api := &fakeMetricsAPI{}
	m := NewMetricsClientWithAPI(api, "ECommerce/Seed", true)

	err := m.RecordSeedRun(context.Background(), "online_shopping",
		map[string]int{"users": 100, "orders": 150}, 1500*time.Millisecond, true)
	require.NoError(t, err)

	require.Len(t, api.inputs, 1)
	data := api.inputs[0].MetricData
	require.Len(t, data, 4)
	assert.Equal(t, MetricDocumentsInserted, *data[0].MetricName)
	assert.Equal(t, "orders", *data[0].Dimensions[1].Value)
	assert.Equal(t, float64(150), *data[0].Value)
	assert.Equal(t, MetricSeedRunDuration, *data[2].MetricName)
	assert.Equal(t, float64(1500), *data[2].Value)
	assert.Equal(t, MetricSeedRunFailed, *data[3].MetricName)
}

func TestMetricsClient_BatchesAndDisabled(t *testing.T) {
	api := &fakeMetricsAPI{}
	m := NewMetricsClientWithAPI(api, "ns", true)
	require.NoError(t, m.PutMetricBatch(context.Background(), make([]cwtypes.MetricDatum, 45)))
	assert.Len(t, api.inputs, 3)

	off := NewMetricsClientWithAPI(&fakeMetricsAPI{}, "ns", false)
	require.NoError(t, off.RecordSeedRun(context.Background(), "db", map[string]int{"users": 1}, time.Second, false))
	assert.Empty(t, off.client.(*fakeMetricsAPI).inputs)
	assert.False(t, off.IsEnabled())
}

type fakeLogsAPI struct {
	events int
	puts   int
}

func (f *fakeLogsAPI) CreateLogGroup(context.Context, *cloudwatchlogs.CreateLogGroupInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	return &cloudwatchlogs.CreateLogGroupOutput{}, nil
}

func (f *fakeLogsAPI) PutRetentionPolicy(context.Context, *cloudwatchlogs.PutRetentionPolicyInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error) {
	return &cloudwatchlogs.PutRetentionPolicyOutput{}, nil
}

func (f *fakeLogsAPI) CreateLogStream(context.Context, *cloudwatchlogs.CreateLogStreamInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogsAPI) PutLogEvents(_ context.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.puts++
	f.events += len(in.LogEvents)
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func TestCloudWatchLogsClient_BuffersUntilSync(t *testing.T) {
	api := &fakeLogsAPI{}
	c := &CloudWatchLogsClient{client: api, logGroupName: "/g", logStreamName: "seed-data-run", enabled: true}
	require.NoError(t, c.open(context.Background()))

	for i := 0; i < logFlushThreshold+5; i++ {
		_, err := c.Write([]byte(`{"msg":"line"}`))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, api.puts)
	assert.Equal(t, logFlushThreshold, api.events)

	require.NoError(t, c.Sync())
	assert.Equal(t, 2, api.puts)
	assert.Equal(t, logFlushThreshold+5, api.events)

	require.NoError(t, c.Sync())
	assert.Equal(t, 2, api.puts, "nothing pending, nothing sent")
}

func TestCloudWatchLogsClient_DisabledDropsLines(t *testing.T) {
	api := &fakeLogsAPI{}
	c := &CloudWatchLogsClient{client: api, enabled: false}
	n, err := c.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, c.Sync())
	assert.Zero(t, api.puts)
}
