// Package datasource defines the context fragments that feed the
// diagnosis prompt and the five sources that produce them: free-text
// application descriptions, EC2 and RDS instance descriptions,
// CloudWatch metric series and Logs Insights query results.
//
// Every source observes the same resolved time window and renders its
// findings into a Fragment. Fetching is side-effect free with respect
// to other sources, so the orchestrator can run them in any order or
// concurrently without changing the assembled prompt.
package datasource

import (
	"context"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

// Kind names a datasource variant. Values match the config list keys.
type Kind string

const (
	KindAppDescription Kind = "app_description"
	KindEC2            Kind = "ec2"
	KindRDS            Kind = "rds"
	KindMetric         Kind = "cloudwatch_metric"
	KindLogInsight     Kind = "cloudwatch_log_insight"
)

// Fragment is one rendered piece of prompt context. Title becomes the
// fragment's "Information: [...]" heading; Body holds the detail lines
// and any fenced data block. Fragments render deterministically: the
// same inputs always produce the same bytes.
type Fragment struct {
	OrderNo int
	Title   string
	Body    string
}

// DataSource fetches one fragment of diagnostic context.
type DataSource interface {
	// Kind reports the variant, used for metrics and log fields.
	Kind() Kind

	// Label identifies the configured entry in logs and failure reports.
	Label() string

	// OrderNo is the fragment's position in the assembled prompt.
	// Lower numbers come first; ties keep config declaration order.
	OrderNo() int

	// Fetch gathers and renders the fragment. Failures are reported as
	// *Error so the orchestrator can classify and isolate them.
	Fetch(ctx context.Context, w timewindow.Window, clients *Clients) (Fragment, error)
}

// FromConfig builds the configured datasources in declaration order:
// app descriptions, then EC2, RDS, CloudWatch metrics and log queries.
// The orchestrator's stable sort by order number preserves this order
// between equal order numbers.
func FromConfig(cfg *config.Config) []DataSource {
	sources := make([]DataSource, 0, cfg.DatasourceCount())

	for _, c := range cfg.AppDescriptions {
		sources = append(sources, NewAppDescription(c))
	}
	for _, c := range cfg.EC2Instances {
		sources = append(sources, NewComputeInstance(c))
	}
	for _, c := range cfg.RDSInstances {
		sources = append(sources, NewDatabaseInstance(c))
	}
	for _, c := range cfg.CloudwatchMetrics {
		sources = append(sources, NewMetricSeries(c))
	}
	for _, c := range cfg.CloudwatchLogInsights {
		sources = append(sources, NewLogQuery(c))
	}

	return sources
}
