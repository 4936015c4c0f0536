package processor

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricNamespace is the CloudWatch namespace for pipeline metrics.
const MetricNamespace = "StreamingPipeline"

// CloudWatchAPI is the subset of the CloudWatch client the publisher needs.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsPublisher pushes batch summaries to CloudWatch.
type MetricsPublisher struct {
	cw          CloudWatchAPI
	environment string
	now         func() time.Time
}

// NewMetricsPublisher returns a publisher tagging metrics with the
// given environment dimension.
func NewMetricsPublisher(cw CloudWatchAPI, environment string) *MetricsPublisher {
	return &MetricsPublisher{cw: cw, environment: environment, now: time.Now}
}

// PublishSummary emits RecordsProcessed, RecordsFailed and
// ProcessingTimeMs for one batch. Metric delivery is best effort:
// failures are logged, never surfaced, so a CloudWatch outage cannot
// fail record processing.
func (m *MetricsPublisher) PublishSummary(ctx context.Context, sum Summary) {
	ts := m.now().UTC()
	dims := []types.Dimension{{
		Name:  aws.String("Environment"),
		Value: aws.String(m.environment),
	}}

	datum := func(name string, value float64, unit types.StandardUnit) types.MetricDatum {
		return types.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(value),
			Unit:       unit,
			Timestamp:  aws.Time(ts),
			Dimensions: dims,
		}
	}

	_, err := m.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(MetricNamespace),
		MetricData: []types.MetricDatum{
			datum("RecordsProcessed", float64(sum.Processed), types.StandardUnitCount),
			datum("RecordsFailed", float64(sum.Failed), types.StandardUnitCount),
			datum("ProcessingTimeMs", float64(sum.Elapsed.Milliseconds()), types.StandardUnitMilliseconds),
		},
	})
	if err != nil {
		log.WithError(err).Warn("failed to publish metrics")
	}
}
