package datasource

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
)

func logInsightConfig() config.CloudwatchLogInsightConfig {
	return config.CloudwatchLogInsightConfig{
		OrderNo:       6,
		Description:   "Some description",
		LogGroupName:  "log-group-name",
		Query:         "fields column1, column2",
		ResultColumns: []string{"column1", "column2"},
	}
}

func TestLogQueryFetch(t *testing.T) {
	logs := &fakeLogs{rows: [][]LogField{
		{{Field: "column1", Value: "row1-column1"}, {Field: "column2", Value: "row1-column2"}},
		{{Field: "column1", Value: "row2-column1"}, {Field: "column2", Value: "row2-column2"}},
		{{Field: "column1", Value: "row3-column1"}, {Field: "column2", Value: "row3-column2"}},
	}}
	clients := testClients()
	clients.Logs = logs

	source := NewLogQuery(logInsightConfig())
	fragment, err := source.Fetch(context.Background(), testWindow(t), clients)
	require.NoError(t, err)

	assert.Equal(t, 6, fragment.OrderNo)
	assert.Equal(t, "Cloudwatch Log Insights", fragment.Title)
	assert.Equal(t, "Description: [Some description]\n"+
		"Log Group: [`log-group-name`]\n"+
		"Data:\n"+
		"```\n"+
		"column1,column2\n"+
		"row1-column1,row1-column2\n"+
		"row2-column1,row2-column2\n"+
		"row3-column1,row3-column2\n"+
		"```", fragment.Body)

	require.Len(t, logs.specs, 1)
	assert.Equal(t, "log-group-name", logs.specs[0].LogGroup)
	assert.Equal(t, "fields column1, column2", logs.specs[0].Query)
}

func TestLogQueryEmptyResult(t *testing.T) {
	source := NewLogQuery(logInsightConfig())
	fragment, err := source.Fetch(context.Background(), testWindow(t), testClients())
	require.NoError(t, err)

	assert.Equal(t, "Description: [Some description]\n"+
		"Log Group: [`log-group-name`]\n"+
		"Data:\n"+
		"```\n"+
		"No applicable data found\n"+
		"```", fragment.Body)
}

func TestLogQueryColumnMismatch(t *testing.T) {
	clients := testClients()
	clients.Logs = &fakeLogs{rows: [][]LogField{
		{{Field: "column1", Value: "v1"}, {Field: "column2", Value: "v2"}},
		{{Field: "column2", Value: "v3"}, {Field: "column1", Value: "v4"}},
	}}

	source := NewLogQuery(logInsightConfig())
	_, err := source.Fetch(context.Background(), testWindow(t), clients)
	require.Error(t, err)

	var dsErr *Error
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ReasonQueryFailed, dsErr.Reason)
	assert.Contains(t, err.Error(), "expected column not matched! expected: column1, actual: column2")
}

func TestLogQueryValuesWithCommasAreQuoted(t *testing.T) {
	clients := testClients()
	clients.Logs = &fakeLogs{rows: [][]LogField{
		{{Field: "column1", Value: "a,b"}, {Field: "column2", Value: "plain"}},
	}}

	source := NewLogQuery(logInsightConfig())
	fragment, err := source.Fetch(context.Background(), testWindow(t), clients)
	require.NoError(t, err)
	assert.Contains(t, fragment.Body, "\"a,b\",plain\n")
}

func TestLogQueryTimeout(t *testing.T) {
	clients := testClients()
	clients.Logs = &fakeLogs{err: fmt.Errorf("gave up after 5m0s: %w", ErrQueryTimeout)}

	source := NewLogQuery(logInsightConfig())
	_, err := source.Fetch(context.Background(), testWindow(t), clients)
	require.Error(t, err)

	var dsErr *Error
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ReasonQueryTimeout, dsErr.Reason)
	assert.ErrorIs(t, err, ErrQueryTimeout)
}

func TestLogQueryFailure(t *testing.T) {
	apiErr := errors.New("query cancelled")
	clients := testClients()
	clients.Logs = &fakeLogs{err: apiErr}

	source := NewLogQuery(logInsightConfig())
	_, err := source.Fetch(context.Background(), testWindow(t), clients)
	require.Error(t, err)

	var dsErr *Error
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ReasonQueryFailed, dsErr.Reason)
	assert.ErrorIs(t, err, apiErr)
}
