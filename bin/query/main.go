// Command query runs SQL against the curated zone through the Athena
// workgroup and prints the result rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/dustin/go-humanize"

	"github.com/streamlake/pipeline/config"
	"github.com/streamlake/pipeline/internal/logging"
)

const pollInterval = 2 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	sql := flag.String("sql", "", "query to run (required)")
	workgroup := flag.String("workgroup", cfg.AthenaWorkgroup, "Athena workgroup")
	database := flag.String("database", cfg.GlueDatabase, "Glue catalog database")
	maxWait := flag.Duration("max-wait", 5*time.Minute, "how long to wait for the query to finish")
	flag.Parse()

	logging.SetupCLI(cfg.LogLevel)

	if *sql == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to load AWS config")
	}
	client := athena.NewFromConfig(awsCfg)

	start, err := client.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: sql,
		WorkGroup:   workgroup,
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: database,
		},
	})
	if err != nil {
		log.WithError(err).Fatal("failed to start query")
	}
	queryID := *start.QueryExecutionId
	log.WithField("query_id", queryID).Info("started query")

	if err := waitForQuery(ctx, client, queryID, *maxWait); err != nil {
		log.WithError(err).Fatal("query did not succeed")
	}

	if err := printResults(ctx, client, queryID); err != nil {
		log.WithError(err).Fatal("failed to fetch results")
	}
}

func waitForQuery(ctx context.Context, client *athena.Client, queryID string, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		resp, err := client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(queryID),
		})
		if err != nil {
			return fmt.Errorf("failed to get query status: %v", err)
		}

		state := resp.QueryExecution.Status.State
		switch state {
		case types.QueryExecutionStateSucceeded:
			if stats := resp.QueryExecution.Statistics; stats != nil && stats.DataScannedInBytes != nil {
				log.WithField("scanned", humanize.Bytes(uint64(*stats.DataScannedInBytes))).
					Info("query succeeded")
			}
			return nil
		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			reason := ""
			if resp.QueryExecution.Status.StateChangeReason != nil {
				reason = *resp.QueryExecution.Status.StateChangeReason
			}
			return fmt.Errorf("query %s ended with state %s: %s", queryID, state, reason)
		}

		time.Sleep(pollInterval)
	}

	return fmt.Errorf("timed out waiting for query %s to complete", queryID)
}

func printResults(ctx context.Context, client *athena.Client, queryID string) error {
	paginator := athena.NewGetQueryResultsPaginator(client, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(queryID),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, row := range page.ResultSet.Rows {
			fields := make([]string, 0, len(row.Data))
			for _, d := range row.Data {
				if d.VarCharValue != nil {
					fields = append(fields, *d.VarCharValue)
				} else {
					fields = append(fields, "")
				}
			}
			fmt.Println(strings.Join(fields, "\t"))
		}
	}
	return nil
}
