package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

// ErrQueryTimeout is returned by LogsAPI implementations when a query
// does not complete before the polling deadline. Sources translate it
// into ReasonQueryTimeout.
var ErrQueryTimeout = errors.New("query did not complete before the deadline")

// InstanceInfo describes one EC2 instance, reduced to the fields the
// prompt renders.
type InstanceInfo struct {
	ID             string
	InstanceType   string
	CoreCount      int32
	ThreadsPerCore int32
	State          string
}

// DBInstanceInfo describes one RDS instance.
type DBInstanceInfo struct {
	Identifier    string
	Class         string
	Engine        string
	EngineVersion string
	StorageType   string
	Status        string
	MultiAZ       bool
}

// MetricPoint is a single datapoint of a metric series.
type MetricPoint struct {
	Timestamp time.Time
	Value     float64
}

// MetricQuery selects one metric series at 60s resolution.
type MetricQuery struct {
	ID             string
	Namespace      string
	MetricName     string
	Stat           string
	Unit           string
	DimensionName  string
	DimensionValue string
}

// LogQuerySpec is a Logs Insights query against one log group.
type LogQuerySpec struct {
	LogGroup string
	Query    string
}

// LogField is one field of a Logs Insights result row. Rows arrive as
// ordered field lists, matched against the configured result columns.
type LogField struct {
	Field string
	Value string
}

// ComputeAPI resolves EC2 instances by their Name tag.
type ComputeAPI interface {
	InstancesByName(ctx context.Context, name string) ([]InstanceInfo, error)
}

// DatabaseAPI lists the account's RDS instances.
type DatabaseAPI interface {
	DBInstances(ctx context.Context) ([]DBInstanceInfo, error)
}

// MetricsAPI fetches one metric series over the window.
type MetricsAPI interface {
	MetricData(ctx context.Context, w timewindow.Window, q MetricQuery) ([]MetricPoint, error)
}

// LogsAPI runs a Logs Insights query to completion and returns its
// rows. Implementations return ErrQueryTimeout (wrapped or bare) when
// the query outlives the polling deadline.
type LogsAPI interface {
	QueryLogs(ctx context.Context, w timewindow.Window, q LogQuerySpec) ([][]LogField, error)
}

// Clients bundles the AWS surfaces the datasources fetch from. Tests
// substitute fakes; production wiring lives in the awsclient package.
type Clients struct {
	Compute  ComputeAPI
	Database DatabaseAPI
	Metrics  MetricsAPI
	Logs     LogsAPI
}
