package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
)

// Metrics collects per-run fetch statistics on a private registry. Runs
// are one-shot processes, so metrics only leave the process through a
// Pushgateway push at the end of the run.
type Metrics struct {
	registry *prometheus.Registry

	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	promptBytes   prometheus.Gauge
	promptTokens  prometheus.Gauge
}

// NewMetrics builds the run's registry. runID distinguishes pushes from
// successive runs under the same job.
func NewMetrics(runID string) *Metrics {
	constLabels := prometheus.Labels{"run_id": runID}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "cloudsleuth",
			Subsystem:   "datasource",
			Name:        "fetches_total",
			Help:        "Datasource fetches by kind and outcome.",
			ConstLabels: constLabels,
		}, []string{"kind", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "cloudsleuth",
			Subsystem:   "datasource",
			Name:        "fetch_duration_seconds",
			Help:        "Datasource fetch latency by kind.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"kind"}),
		promptBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "cloudsleuth",
			Subsystem:   "prompt",
			Name:        "bytes",
			Help:        "Size of the assembled prompt in bytes.",
			ConstLabels: constLabels,
		}),
		promptTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "cloudsleuth",
			Subsystem:   "prompt",
			Name:        "estimated_tokens",
			Help:        "Estimated token count of the assembled prompt.",
			ConstLabels: constLabels,
		}),
	}

	m.registry.MustRegister(m.fetchesTotal, m.fetchDuration, m.promptBytes, m.promptTokens)
	return m
}

func (m *Metrics) observeFetch(kind datasource.Kind, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.fetchesTotal.WithLabelValues(string(kind), outcome).Inc()
	m.fetchDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// ObservePrompt records the assembled prompt's size.
func (m *Metrics) ObservePrompt(bytes, estimatedTokens int) {
	m.promptBytes.Set(float64(bytes))
	m.promptTokens.Set(float64(estimatedTokens))
}

// Push delivers the run's metrics to a Pushgateway. Best effort: the
// caller logs and moves on when the gateway is unreachable.
func (m *Metrics) Push(gatewayURL, job string) error {
	return push.New(gatewayURL, job).Gatherer(m.registry).Push()
}
