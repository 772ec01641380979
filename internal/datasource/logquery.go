package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

// noDataFound fills a fragment's data block when a query matched no log
// events in the window. An empty log result is still a finding, unlike
// an empty metric series.
const noDataFound = "No applicable data found\n"

// LogQuery runs one Logs Insights query and tabulates its rows against
// the configured result columns.
type LogQuery struct {
	cfg config.CloudwatchLogInsightConfig
}

func NewLogQuery(cfg config.CloudwatchLogInsightConfig) *LogQuery {
	return &LogQuery{cfg: cfg}
}

func (s *LogQuery) Kind() Kind { return KindLogInsight }
func (s *LogQuery) Label() string {
	return fmt.Sprintf("cloudwatch log insight %s", s.cfg.LogGroupName)
}
func (s *LogQuery) OrderNo() int { return s.cfg.OrderNo }

func (s *LogQuery) Fetch(ctx context.Context, w timewindow.Window, clients *Clients) (Fragment, error) {
	rows, err := clients.Logs.QueryLogs(ctx, w, LogQuerySpec{
		LogGroup: s.cfg.LogGroupName,
		Query:    s.cfg.Query,
	})
	if err != nil {
		if errors.Is(err, ErrQueryTimeout) {
			return Fragment{}, WrapError(s.Label(), ReasonQueryTimeout, err, "query timed out")
		}
		return Fragment{}, WrapError(s.Label(), ReasonQueryFailed, err, "log query failed")
	}

	data, err := s.tabulate(rows)
	if err != nil {
		return Fragment{}, err
	}

	lines := []string{
		fmt.Sprintf("Description: [%s]", s.cfg.Description),
		fmt.Sprintf("Log Group: [`%s`]", s.cfg.LogGroupName),
	}

	return Fragment{
		OrderNo: s.cfg.OrderNo,
		Title:   "Cloudwatch Log Insights",
		Body:    fragmentBody(lines, data),
	}, nil
}

// tabulate renders rows as CSV under the configured column header.
// Result fields must arrive in column order; the header cycles across
// rows, so a row with reordered or unexpected fields fails the source
// rather than silently misaligning the table.
func (s *LogQuery) tabulate(rows [][]LogField) (string, error) {
	if len(rows) == 0 {
		return noDataFound, nil
	}

	columns := s.cfg.ResultColumns
	records := [][]string{columns}

	next := 0
	for _, row := range rows {
		values := make([]string, 0, len(row))
		for _, field := range row {
			expected := columns[next%len(columns)]
			if field.Field != expected {
				return "", NewError(s.Label(), ReasonQueryFailed,
					"expected column not matched! expected: %s, actual: %s", expected, field.Field)
			}
			values = append(values, field.Value)
			next++
		}
		records = append(records, values)
	}

	data, err := writeCSV(records)
	if err != nil {
		return "", WrapError(s.Label(), ReasonQueryFailed, err, "render failed")
	}
	return data, nil
}
