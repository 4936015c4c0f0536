package main

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/streamlake/pipeline/config"
	"github.com/streamlake/pipeline/internal/logging"
	"github.com/streamlake/pipeline/internal/processor"
)

// Shared across invocations of a warm container
var (
	proc    *processor.Processor
	metrics *processor.MetricsPublisher
)

// This init() function runs once when the Lambda container starts
func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	logging.SetupLambda(cfg.LogLevel)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		panic(fmt.Sprintf("failed to load AWS config: %v", err))
	}

	proc, err = processor.New(s3.NewFromConfig(awsCfg), cfg.DataBucketName, processor.Options{
		Prefix:      cfg.RawPrefix,
		Environment: cfg.Environment,
		Compress:    cfg.CompressOutput,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to build processor: %v", err))
	}
	metrics = processor.NewMetricsPublisher(cloudwatch.NewFromConfig(awsCfg), cfg.Environment)
}

// RecordResult mirrors the per-record outcome back to the caller.
type RecordResult struct {
	SequenceNumber string `json:"sequenceNumber"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// Response is the handler's summary body.
type Response struct {
	Message          string         `json:"message"`
	RecordsProcessed int            `json:"recordsProcessed"`
	RecordsFailed    int            `json:"recordsFailed"`
	Results          []RecordResult `json:"results"`
}

func handler(ctx context.Context, event events.KinesisEvent) (Response, error) {
	log.WithField("records", len(event.Records)).Info("received batch from Kinesis")

	records := make([]processor.Record, 0, len(event.Records))
	for _, r := range event.Records {
		records = append(records, processor.Record{
			SequenceNumber: r.Kinesis.SequenceNumber,
			PartitionKey:   r.Kinesis.PartitionKey,
			Data:           r.Kinesis.Data,
			Arrival:        r.Kinesis.ApproximateArrivalTimestamp.Time,
		})
	}

	sum, results := proc.ProcessBatch(ctx, records)
	metrics.PublishSummary(ctx, sum)

	log.WithFields(log.Fields{
		"processed":       sum.Processed,
		"failed":          sum.Failed,
		"success_rate":    sum.SuccessRate(),
		"rate_per_second": sum.Rate(),
		"elapsed_ms":      sum.Elapsed.Milliseconds(),
	}).Info("batch complete")

	resp := Response{
		Message:          "Batch processing complete",
		RecordsProcessed: sum.Processed,
		RecordsFailed:    sum.Failed,
		Results:          make([]RecordResult, 0, len(results)),
	}
	for _, r := range results {
		rr := RecordResult{SequenceNumber: r.SequenceNumber, Success: r.Err == nil}
		if r.Err != nil {
			rr.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, rr)
	}
	return resp, nil
}

func main() {
	lambda.Start(handler)
}
