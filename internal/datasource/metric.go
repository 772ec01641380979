package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

// maxMetricRows caps how many datapoints one series contributes to the
// prompt. Older points beyond the cap are dropped and announced with a
// trailing marker row, keeping the statistics line as the summary of
// the full series.
const maxMetricRows = 100

// ec2Namespace is the metric namespace whose dimension values name
// instances rather than identifying them. Values are resolved to
// instance ids before querying.
const ec2Namespace = "AWS/EC2"

// MetricSeries fetches one CloudWatch metric at 60s resolution. For the
// AWS/EC2 namespace the configured dimension value is an instance Name
// tag; it resolves to one series per matching instance, all rendered
// into the same fragment.
type MetricSeries struct {
	cfg config.CloudwatchMetricConfig
}

func NewMetricSeries(cfg config.CloudwatchMetricConfig) *MetricSeries {
	return &MetricSeries{cfg: cfg}
}

func (s *MetricSeries) Kind() Kind    { return KindMetric }
func (s *MetricSeries) Label() string { return fmt.Sprintf("cloudwatch metric %s", s.cfg.MetricIdentifier) }
func (s *MetricSeries) OrderNo() int  { return s.cfg.OrderNo }

// dimension is one resolved name/value pair to query by.
type dimension struct {
	name  string
	value string
}

func (s *MetricSeries) Fetch(ctx context.Context, w timewindow.Window, clients *Clients) (Fragment, error) {
	dimensions, err := s.resolveDimensions(ctx, clients)
	if err != nil {
		return Fragment{}, err
	}

	blocks := make([]string, 0, len(dimensions))
	totalPoints := 0

	for _, dim := range dimensions {
		points, err := clients.Metrics.MetricData(ctx, w, MetricQuery{
			ID:             s.cfg.MetricIdentifier,
			Namespace:      s.cfg.MetricNamespace,
			MetricName:     s.cfg.MetricName,
			Stat:           s.cfg.MetricStat,
			Unit:           s.cfg.MetricUnit,
			DimensionName:  dim.name,
			DimensionValue: dim.value,
		})
		if err != nil {
			return Fragment{}, WrapError(s.Label(), ReasonQueryFailed, err,
				fmt.Sprintf("get metric data failed for dimension %s:%s", dim.name, dim.value))
		}
		if len(points) == 0 {
			continue
		}
		totalPoints += len(points)

		block, err := s.renderSeries(w, dim, points)
		if err != nil {
			return Fragment{}, WrapError(s.Label(), ReasonQueryFailed, err, "render failed")
		}
		blocks = append(blocks, block)
	}

	if totalPoints == 0 {
		return Fragment{}, NewError(s.Label(), ReasonNoDataPoints,
			"no datapoints for %s %s in window %s", s.cfg.MetricNamespace, s.cfg.MetricName, w)
	}

	return Fragment{
		OrderNo: s.cfg.OrderNo,
		Title:   fmt.Sprintf("Cloudwatch %s", s.cfg.MetricNamespace),
		Body:    strings.Join(blocks, "\n\n"),
	}, nil
}

// resolveDimensions maps the configured dimension to the list of series
// to query. Outside AWS/EC2 the config value is used as-is.
func (s *MetricSeries) resolveDimensions(ctx context.Context, clients *Clients) ([]dimension, error) {
	if s.cfg.MetricNamespace != ec2Namespace {
		return []dimension{{name: s.cfg.DimensionName, value: s.cfg.DimensionValue}}, nil
	}

	instances, err := clients.Compute.InstancesByName(ctx, s.cfg.DimensionValue)
	if err != nil {
		return nil, WrapError(s.Label(), ReasonQueryFailed, err, "instance lookup failed")
	}
	if len(instances) == 0 {
		return nil, NewError(s.Label(), ReasonNotFound,
			"unable to find EC2 instance with name: %s", s.cfg.DimensionValue)
	}

	dimensions := make([]dimension, 0, len(instances))
	for _, instance := range instances {
		dimensions = append(dimensions, dimension{name: s.cfg.DimensionName, value: instance.ID})
	}
	return dimensions, nil
}

// renderSeries produces the detail lines and CSV for one series. Rows
// are newest first so the freshest signal leads the block.
func (s *MetricSeries) renderSeries(w timewindow.Window, dim dimension, points []MetricPoint) (string, error) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.After(points[j].Timestamp)
	})

	lines := []string{
		fmt.Sprintf("Metric: [`%s`]", s.cfg.MetricName),
		fmt.Sprintf("Dimension: [`%s:%s`]", dim.name, dim.value),
	}
	if s.cfg.MetricUnit != "" {
		lines = append(lines, fmt.Sprintf("Unit: %s", s.cfg.MetricUnit))
	}
	lines = append(lines, statisticsLine(points))

	loc := w.End.Location()
	records := [][]string{{"timestamp", "value"}}
	for i, p := range points {
		if i == maxMetricRows {
			records = append(records, []string{
				fmt.Sprintf("... (%d older points omitted)", len(points)-maxMetricRows),
			})
			break
		}
		records = append(records, []string{
			p.Timestamp.In(loc).Format(timewindow.DisplayLayout),
			formatValue(p.Value),
		})
	}

	data, err := writeCSV(records)
	if err != nil {
		return "", err
	}

	return fragmentBody(lines, data), nil
}

// statisticsLine summarizes the full series, including points the CSV
// truncates away.
func statisticsLine(points []MetricPoint) string {
	min, max, sum := points[0].Value, points[0].Value, 0.0
	for _, p := range points {
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
		sum += p.Value
	}
	avg := sum / float64(len(points))

	return fmt.Sprintf("Statistics: [min=%s max=%s avg=%s samples=%d]",
		formatValue(min), formatValue(max), formatValue(avg), len(points))
}
