package awsclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
	"github.com/cloudsleuth/cloudsleuth/internal/logging"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

type cloudwatchLogsAPI interface {
	StartQuery(ctx context.Context, params *cloudwatchlogs.StartQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StartQueryOutput, error)
	GetQueryResults(ctx context.Context, params *cloudwatchlogs.GetQueryResultsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetQueryResultsOutput, error)
	StopQuery(ctx context.Context, params *cloudwatchlogs.StopQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StopQueryOutput, error)
}

// logsClient runs Logs Insights queries to completion. Queries are
// asynchronous on the AWS side: StartQuery returns an id, and results
// are polled until the query completes, fails, or outlives the timeout.
type logsClient struct {
	api          cloudwatchLogsAPI
	pollInterval time.Duration
	queryTimeout time.Duration
	logger       *logging.Logger
}

func (c *logsClient) QueryLogs(ctx context.Context, w timewindow.Window, q datasource.LogQuerySpec) ([][]datasource.LogField, error) {
	started, err := c.api.StartQuery(ctx, &cloudwatchlogs.StartQueryInput{
		LogGroupName: aws.String(q.LogGroup),
		QueryString:  aws.String(q.Query),
		StartTime:    aws.Int64(w.Start.Unix()),
		EndTime:      aws.Int64(w.End.Unix()),
	})
	if err != nil {
		return nil, fmt.Errorf("start query on %s: %w", q.LogGroup, err)
	}

	queryID := aws.ToString(started.QueryId)
	if queryID == "" {
		return nil, fmt.Errorf("start query on %s: no query id returned", q.LogGroup)
	}
	c.logger.Debug("started query %s on %s", queryID, q.LogGroup)

	deadline := time.NewTimer(c.queryTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		out, err := c.api.GetQueryResults(ctx, &cloudwatchlogs.GetQueryResultsInput{
			QueryId: aws.String(queryID),
		})
		if err != nil {
			return nil, fmt.Errorf("get query results for %s: %w", queryID, err)
		}

		switch out.Status {
		case cwltypes.QueryStatusComplete:
			c.logger.Debug("query %s complete with %d rows", queryID, len(out.Results))
			return toLogRows(out.Results), nil
		case cwltypes.QueryStatusRunning, cwltypes.QueryStatusScheduled:
			// keep polling
		default:
			return nil, fmt.Errorf("query %s ended with status %s", queryID, out.Status)
		}

		select {
		case <-ctx.Done():
			c.stopQuery(queryID)
			return nil, ctx.Err()
		case <-deadline.C:
			c.stopQuery(queryID)
			return nil, fmt.Errorf("query %s did not complete within %s: %w",
				queryID, c.queryTimeout, datasource.ErrQueryTimeout)
		case <-ticker.C:
		}
	}
}

// stopQuery cancels the remote query so an abandoned poll does not
// leave it running against the account's query quota.
func (c *logsClient) stopQuery(queryID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := c.api.StopQuery(ctx, &cloudwatchlogs.StopQueryInput{QueryId: aws.String(queryID)}); err != nil {
		c.logger.Warn("failed to stop query %s: %v", queryID, err)
	}
}

func toLogRows(results [][]cwltypes.ResultField) [][]datasource.LogField {
	rows := make([][]datasource.LogField, 0, len(results))
	for _, result := range results {
		row := make([]datasource.LogField, 0, len(result))
		for _, field := range result {
			row = append(row, datasource.LogField{
				Field: aws.ToString(field.Field),
				Value: aws.ToString(field.Value),
			})
		}
		rows = append(rows, row)
	}
	return rows
}
