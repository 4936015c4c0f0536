package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu   sync.Mutex
	puts []*s3.PutObjectInput
	body map[string][]byte
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if f.body == nil {
		f.body = map[string][]byte{}
	}
	f.body[*params.Key] = data
	f.puts = append(f.puts, params)
	return &s3.PutObjectOutput{}, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestProcessBatchWritesPartitionedObject(t *testing.T) {
	s3c := &fakeS3{}
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	p, err := New(s3c, "raw-bucket", Options{Environment: "dev", Now: fixedClock(now)})
	require.NoError(t, err)

	sum, results := p.ProcessBatch(context.Background(), []Record{{
		SequenceNumber: "seq-1",
		PartitionKey:   "device-42",
		Data:           []byte(`{"timestamp":"2024-03-05T09:12:00Z","value":7}`),
	}})

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 0, sum.Failed)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	// Partitioned by the embedded event timestamp, not the clock.
	assert.True(t, strings.HasPrefix(results[0].Key, "raw/year=2024/month=03/day=05/hour=09/data_20240305_091200_"),
		"unexpected key %q", results[0].Key)
	assert.True(t, strings.HasSuffix(results[0].Key, ".json"))

	require.Len(t, s3c.puts, 1)
	put := s3c.puts[0]
	assert.Equal(t, "raw-bucket", *put.Bucket)
	assert.Equal(t, "application/json", *put.ContentType)
	assert.Equal(t, "device-42", put.Metadata["partition-key"])
	assert.Equal(t, "seq-1", put.Metadata["sequence-number"])

	var env struct {
		Data     map[string]any `json:"data"`
		Metadata struct {
			IngestionTimestamp string `json:"ingestion_timestamp"`
			PipelineVersion    string `json:"pipeline_version"`
			Environment        string `json:"environment"`
			PartitionKey       string `json:"partition_key"`
			SequenceNumber     string `json:"sequence_number"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(s3c.body[results[0].Key], &env))
	assert.Equal(t, float64(7), env.Data["value"])
	assert.Equal(t, PipelineVersion, env.Metadata.PipelineVersion)
	assert.Equal(t, "dev", env.Metadata.Environment)
	assert.Equal(t, "device-42", env.Metadata.PartitionKey)
	assert.Equal(t, "2024-03-05T10:00:00Z", env.Metadata.IngestionTimestamp)
}

func TestProcessBatchInvalidJSON(t *testing.T) {
	s3c := &fakeS3{}
	p, err := New(s3c, "raw-bucket", Options{})
	require.NoError(t, err)

	sum, results := p.ProcessBatch(context.Background(), []Record{
		{SequenceNumber: "bad", Data: []byte("not json")},
		{SequenceNumber: "good", Data: []byte(`{"ok":true}`)},
	})

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.Failed)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Len(t, s3c.puts, 1)
}

func TestProcessBatchPutFailure(t *testing.T) {
	s3c := &fakeS3{err: fmt.Errorf("access denied")}
	p, err := New(s3c, "raw-bucket", Options{})
	require.NoError(t, err)

	sum, results := p.ProcessBatch(context.Background(), []Record{
		{SequenceNumber: "seq-1", Data: []byte(`{}`)},
	})

	assert.Equal(t, 0, sum.Processed)
	assert.Equal(t, 1, sum.Failed)
	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "access denied")
}

func TestProcessBatchCompressed(t *testing.T) {
	s3c := &fakeS3{}
	p, err := New(s3c, "raw-bucket", Options{Compress: true})
	require.NoError(t, err)

	sum, results := p.ProcessBatch(context.Background(), []Record{
		{SequenceNumber: "seq-1", Data: []byte(`{"value":1}`)},
	})
	require.Equal(t, 1, sum.Processed)
	assert.True(t, strings.HasSuffix(results[0].Key, ".json.gz"))

	put := s3c.puts[0]
	require.NotNil(t, put.ContentEncoding)
	assert.Equal(t, "gzip", *put.ContentEncoding)

	zr, err := gzip.NewReader(bytes.NewReader(s3c.body[results[0].Key]))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(plain, &env))
	assert.JSONEq(t, `{"value":1}`, string(env.Data))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(&fakeS3{}, "", Options{})
	assert.Error(t, err)
}

func TestSummaryRate(t *testing.T) {
	tests := []struct {
		name string
		sum  Summary
		want float64
	}{
		{"NoTimePassed", Summary{Processed: 5}, 0},
		{"PerSecond", Summary{Processed: 10, Elapsed: 2 * time.Second}, 5},
		{"FailuresExcluded", Summary{Processed: 3, Failed: 7, Elapsed: time.Second}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.sum.Rate(), 0.001)
		})
	}
}

func TestSummarySuccessRate(t *testing.T) {
	tests := []struct {
		name string
		sum  Summary
		want float64
	}{
		{"Empty", Summary{}, 100},
		{"AllGood", Summary{Processed: 4}, 100},
		{"Half", Summary{Processed: 2, Failed: 2}, 50},
		{"AllBad", Summary{Failed: 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.sum.SuccessRate(), 0.001)
		})
	}
}
