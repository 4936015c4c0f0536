package processor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestPublishSummary(t *testing.T) {
	cw := &fakeCloudWatch{}
	pub := NewMetricsPublisher(cw, "prod")

	pub.PublishSummary(context.Background(), Summary{
		Processed: 8,
		Failed:    2,
		Elapsed:   1500 * time.Millisecond,
	})

	require.Len(t, cw.inputs, 1)
	input := cw.inputs[0]
	assert.Equal(t, MetricNamespace, *input.Namespace)
	require.Len(t, input.MetricData, 3)

	byName := map[string]float64{}
	for _, d := range input.MetricData {
		byName[*d.MetricName] = *d.Value
		require.Len(t, d.Dimensions, 1)
		assert.Equal(t, "Environment", *d.Dimensions[0].Name)
		assert.Equal(t, "prod", *d.Dimensions[0].Value)
	}
	assert.Equal(t, float64(8), byName["RecordsProcessed"])
	assert.Equal(t, float64(2), byName["RecordsFailed"])
	assert.Equal(t, float64(1500), byName["ProcessingTimeMs"])
}

func TestPublishSummaryBestEffort(t *testing.T) {
	cw := &fakeCloudWatch{err: fmt.Errorf("throttled")}
	pub := NewMetricsPublisher(cw, "dev")

	// Must not panic or propagate the error.
	pub.PublishSummary(context.Background(), Summary{Processed: 1})
}
