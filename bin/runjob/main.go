// Command runjob starts the Glue ETL job and watches it until it
// reaches a terminal state.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"

	"github.com/streamlake/pipeline/config"
	"github.com/streamlake/pipeline/internal/logging"
)

const pollInterval = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	jobName := flag.String("job", cfg.EtlJobName, "Glue job name")
	maxWait := flag.Duration("max-wait", 30*time.Minute, "how long to wait for the run to finish")
	flag.Parse()

	logging.SetupCLI(cfg.LogLevel)

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to load AWS config")
	}
	client := glue.NewFromConfig(awsCfg)

	resp, err := client.StartJobRun(ctx, &glue.StartJobRunInput{
		JobName: jobName,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to start job run")
	}
	runID := *resp.JobRunId
	log.WithFields(log.Fields{"job": *jobName, "run_id": runID}).Info("started job run")

	if err := monitorJobRun(ctx, client, *jobName, runID, *maxWait); err != nil {
		log.WithError(err).Fatal("job run did not succeed")
	}
	log.WithField("run_id", runID).Info("job run succeeded")
}

// monitorJobRun waits for the run to reach a terminal state, failed,
// succeeded, stopped or timed out, checking every pollInterval.
func monitorJobRun(ctx context.Context, client *glue.Client, jobName, runID string, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		resp, err := client.GetJobRun(ctx, &glue.GetJobRunInput{
			JobName: aws.String(jobName),
			RunId:   aws.String(runID),
		})
		if err != nil {
			return fmt.Errorf("failed to get job run status: %v", err)
		}

		state := resp.JobRun.JobRunState
		log.WithField("state", state).Info("current job run state")

		switch state {
		case types.JobRunStateSucceeded:
			return nil
		case types.JobRunStateFailed, types.JobRunStateStopped, types.JobRunStateTimeout, types.JobRunStateError:
			reason := ""
			if resp.JobRun.ErrorMessage != nil {
				reason = *resp.JobRun.ErrorMessage
			}
			return fmt.Errorf("job run %s ended with state %s: %s", runID, state, reason)
		}

		time.Sleep(pollInterval)
	}

	return fmt.Errorf("timed out waiting for job run %s to complete", runID)
}
