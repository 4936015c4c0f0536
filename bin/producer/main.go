// Command producer pushes synthetic events into the ingest stream at a
// bounded rate, for exercising the pipeline end to end.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/streamlake/pipeline/config"
	"github.com/streamlake/pipeline/internal/logging"
)

type event struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"`
	Source    string  `json:"source"`
	Value     float64 `json:"value"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	stream := flag.String("stream", cfg.StreamName, "Kinesis stream name")
	count := flag.Int("count", 100, "number of events to send")
	perSecond := flag.Float64("rate", 10, "events per second")
	source := flag.String("source", "producer", "event source tag")
	flag.Parse()

	logging.SetupCLI(cfg.LogLevel)

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to load AWS config")
	}
	client := kinesis.NewFromConfig(awsCfg)

	limiter := rate.NewLimiter(rate.Limit(*perSecond), 1)
	sent := 0
	for i := 0; i < *count; i++ {
		if err := limiter.Wait(ctx); err != nil {
			log.WithError(err).Fatal("rate limiter interrupted")
		}

		ev := event{
			ID:        uuid.NewString(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Source:    *source,
			Value:     rand.Float64() * 100,
		}
		data, err := json.Marshal(ev)
		if err != nil {
			log.WithError(err).Fatal("failed to marshal event")
		}

		_, err = client.PutRecord(ctx, &kinesis.PutRecordInput{
			StreamName:   stream,
			PartitionKey: aws.String(ev.ID),
			Data:         data,
		})
		if err != nil {
			log.WithError(err).WithField("id", ev.ID).Error("failed to put record")
			continue
		}
		sent++

		if sent%50 == 0 {
			log.WithField("sent", sent).Info("progress")
		}
	}

	log.WithFields(log.Fields{
		"stream": *stream,
		"sent":   sent,
		"failed": *count - sent,
	}).Info("done")
	fmt.Printf("sent %d/%d events to %s\n", sent, *count, *stream)
}
