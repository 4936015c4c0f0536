// Package processor turns Kinesis stream records into partitioned JSON
// objects in the raw zone of the data lake.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
)

// PipelineVersion is stamped into the metadata envelope of every
// object written to the raw zone.
const PipelineVersion = "1.0.0"

// S3API is the subset of the S3 client the processor needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Record is a single stream record, decoupled from the Lambda event
// shape so the processor can be driven from tests and replay tools.
type Record struct {
	SequenceNumber string
	PartitionKey   string
	Data           []byte
	Arrival        time.Time
}

// Result reports the outcome of processing one record.
type Result struct {
	SequenceNumber string
	PartitionKey   string
	Key            string
	Err            error
	Duration       time.Duration
}

// Summary aggregates a batch run.
type Summary struct {
	Processed int
	Failed    int
	Elapsed   time.Duration
}

// SuccessRate returns the percentage of records that landed in S3.
// An empty batch counts as fully successful.
func (s Summary) SuccessRate() float64 {
	total := s.Processed + s.Failed
	if total == 0 {
		return 100
	}
	return float64(s.Processed) / float64(total) * 100
}

// Rate returns records landed per second over the batch's elapsed time,
// 0 when no time has passed.
func (s Summary) Rate() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Processed) / secs
}

// Options tune a Processor. The zero value is usable.
type Options struct {
	// Prefix is the raw-zone key prefix, "raw/" by default.
	Prefix string
	// Environment is recorded in envelope metadata and metric dimensions.
	Environment string
	// Compress gzips object bodies and switches the suffix to .json.gz.
	Compress bool
	// Concurrency bounds parallel S3 writes per batch, 4 by default.
	Concurrency int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Processor writes stream records to partitioned S3 keys and keeps
// per-batch counters.
type Processor struct {
	s3c    S3API
	bucket string
	opts   Options
}

// New returns a Processor writing to the given bucket.
func New(s3c S3API, bucket string, opts Options) (*Processor, error) {
	if bucket == "" {
		return nil, fmt.Errorf("processor: bucket name is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = "raw/"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{s3c: s3c, bucket: bucket, opts: opts}, nil
}

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Metadata metadata        `json:"metadata"`
}

type metadata struct {
	IngestionTimestamp string `json:"ingestion_timestamp"`
	PipelineVersion    string `json:"pipeline_version"`
	Environment        string `json:"environment,omitempty"`
	PartitionKey       string `json:"partition_key"`
	SequenceNumber     string `json:"sequence_number"`
}

// ProcessBatch writes every record in the batch, bounding concurrency
// per Options. A bad record is counted and reported in its Result; it
// never fails the batch. The returned results are index-aligned with
// the input.
func (p *Processor) ProcessBatch(ctx context.Context, records []Record) (Summary, []Result) {
	start := p.opts.Now()
	results := make([]Result, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, rec := range records {
		g.Go(func() error {
			results[i] = p.processRecord(gctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{Elapsed: p.opts.Now().Sub(start)}
	for _, r := range results {
		if r.Err != nil {
			sum.Failed++
			log.WithFields(log.Fields{
				"sequence_number": r.SequenceNumber,
				"partition_key":   r.PartitionKey,
			}).WithError(r.Err).Error("record failed")
			continue
		}
		sum.Processed++
		log.WithFields(log.Fields{
			"sequence_number": r.SequenceNumber,
			"key":             r.Key,
		}).Debug("record written")
	}
	return sum, results
}

func (p *Processor) processRecord(ctx context.Context, rec Record) Result {
	start := p.opts.Now()
	res := Result{
		SequenceNumber: rec.SequenceNumber,
		PartitionKey:   rec.PartitionKey,
	}

	if !json.Valid(rec.Data) {
		res.Err = fmt.Errorf("record is not valid JSON")
		res.Duration = p.opts.Now().Sub(start)
		return res
	}

	ts := eventTime(rec, p.opts.Now)
	body, err := json.Marshal(envelope{
		Data: json.RawMessage(rec.Data),
		Metadata: metadata{
			IngestionTimestamp: p.opts.Now().UTC().Format(time.RFC3339),
			PipelineVersion:    PipelineVersion,
			Environment:        p.opts.Environment,
			PartitionKey:       rec.PartitionKey,
			SequenceNumber:     rec.SequenceNumber,
		},
	})
	if err != nil {
		res.Err = fmt.Errorf("marshal envelope: %w", err)
		res.Duration = p.opts.Now().Sub(start)
		return res
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.objectKey(ts)),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"partition-key":   rec.PartitionKey,
			"sequence-number": rec.SequenceNumber,
		},
	}
	if p.opts.Compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(body); err == nil {
			err = zw.Close()
		}
		if err != nil {
			res.Err = fmt.Errorf("compress body: %w", err)
			res.Duration = p.opts.Now().Sub(start)
			return res
		}
		input.Body = bytes.NewReader(buf.Bytes())
		input.ContentEncoding = aws.String("gzip")
	} else {
		input.Body = bytes.NewReader(body)
	}

	if _, err := p.s3c.PutObject(ctx, input); err != nil {
		res.Err = fmt.Errorf("put object: %w", err)
		res.Duration = p.opts.Now().Sub(start)
		return res
	}

	res.Key = *input.Key
	res.Duration = p.opts.Now().Sub(start)
	return res
}

func (p *Processor) objectKey(ts time.Time) string {
	ext := ".json"
	if p.opts.Compress {
		ext = ".json.gz"
	}
	name := fmt.Sprintf("data_%s_%s%s",
		ts.UTC().Format("20060102_150405"),
		uuid.NewString()[:8], ext)
	return partitionPath(p.opts.Prefix, ts) + name
}
