// Package orchestrator runs the configured datasources over one shared
// time window and collects their fragments in prompt order.
//
// Fetches are independent: one failing source never aborts the others,
// and every failure is classified and reported alongside whatever
// fragments were gathered. Only a run that yields no fragments at all
// fails outright.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
	"github.com/cloudsleuth/cloudsleuth/internal/logging"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

// DefaultConcurrency bounds parallel fetches unless overridden.
const DefaultConcurrency = 4

// ErrNoUsableData is returned when every datasource failed and there is
// nothing to assemble a prompt from.
var ErrNoUsableData = errors.New("no usable data: all datasources failed")

// Failure describes one isolated datasource failure.
type Failure struct {
	Source string
	Kind   datasource.Kind
	Reason datasource.Reason
	Err    error
}

// Observer receives fetch lifecycle events, e.g. for progress display.
// Callbacks may arrive from concurrent goroutines.
type Observer interface {
	FetchStarted(source datasource.DataSource)
	FetchFinished(source datasource.DataSource, err error)
}

// Options tune a run. The zero value runs with DefaultConcurrency and
// no observer or metrics.
type Options struct {
	// Concurrency caps parallel fetches; 1 runs them sequentially.
	// Zero or negative means DefaultConcurrency.
	Concurrency int

	Observer Observer
	Metrics  *Metrics

	// Tracer records one span per run plus a child span per fetch.
	// Nil falls back to the global tracer provider.
	Tracer trace.Tracer
}

// Run fetches every source and returns the gathered fragments sorted by
// order number (ties keep the given order), plus the isolated failures.
// The returned error is non-nil only when no fragment was gathered.
func Run(ctx context.Context, sources []datasource.DataSource, w timewindow.Window, clients *datasource.Clients, opts Options) ([]datasource.Fragment, []Failure, error) {
	logger := logging.GetLogger("orchestrator")

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("orchestrator")
	}

	ordered := make([]datasource.DataSource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderNo() < ordered[j].OrderNo()
	})

	ctx, span := tracer.Start(ctx, "orchestrator.run",
		trace.WithAttributes(
			attribute.Int("datasource.count", len(ordered)),
			attribute.String("window.start", w.Start.Format(time.RFC3339)),
			attribute.String("window.end", w.End.Format(time.RFC3339)),
			attribute.Int("concurrency", concurrency),
		),
	)
	defer span.End()

	logger.Info("fetching %d datasources over %s (concurrency=%d)", len(ordered), w, concurrency)

	type outcome struct {
		fragment datasource.Fragment
		err      error
	}
	outcomes := make([]outcome, len(ordered))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, source := range ordered {
		i, source := i, source
		g.Go(func() error {
			if opts.Observer != nil {
				opts.Observer.FetchStarted(source)
			}

			fetchCtx, fetchSpan := tracer.Start(ctx, "datasource.fetch",
				trace.WithAttributes(
					attribute.String("datasource.kind", string(source.Kind())),
					attribute.String("datasource.label", source.Label()),
					attribute.Int("datasource.order_no", source.OrderNo()),
				),
			)

			started := time.Now()
			fragment, err := source.Fetch(fetchCtx, w, clients)
			elapsed := time.Since(started)

			if opts.Metrics != nil {
				opts.Metrics.observeFetch(source.Kind(), err, elapsed)
			}
			if err != nil {
				fetchSpan.RecordError(err)
				fetchSpan.SetStatus(codes.Error, "fetch failed")
				logger.Warn("%s failed after %s: %v", source.Label(), elapsed.Round(time.Millisecond), err)
			} else {
				fetchSpan.SetStatus(codes.Ok, "")
				logger.Debug("%s fetched in %s", source.Label(), elapsed.Round(time.Millisecond))
			}
			fetchSpan.End()

			outcomes[i] = outcome{fragment: fragment, err: err}

			if opts.Observer != nil {
				opts.Observer.FetchFinished(source, err)
			}
			return nil
		})
	}

	// goroutines record outcomes instead of failing the group, so Wait
	// only synchronizes
	_ = g.Wait()

	fragments := make([]datasource.Fragment, 0, len(ordered))
	var failures []Failure
	for i, out := range outcomes {
		if out.err != nil {
			failures = append(failures, classify(ordered[i], out.err))
			continue
		}
		fragments = append(fragments, out.fragment)
	}

	logger.Info("gathered %d fragments, %d failures", len(fragments), len(failures))
	span.SetAttributes(
		attribute.Int("result.fragments", len(fragments)),
		attribute.Int("result.failures", len(failures)),
	)

	if len(fragments) == 0 {
		err := fmt.Errorf("%w (%d attempted)", ErrNoUsableData, len(ordered))
		span.RecordError(err)
		span.SetStatus(codes.Error, "no usable data")
		return nil, failures, err
	}
	span.SetStatus(codes.Ok, "")
	return fragments, failures, nil
}

func classify(source datasource.DataSource, err error) Failure {
	failure := Failure{
		Source: source.Label(),
		Kind:   source.Kind(),
		Reason: datasource.ReasonQueryFailed,
		Err:    err,
	}

	var dsErr *datasource.Error
	if errors.As(err, &dsErr) {
		failure.Reason = dsErr.Reason
	}
	return failure
}

// FormatFailures renders the batch failure report appended to run
// output, one line per failed source.
func FormatFailures(failures []Failure) string {
	if len(failures) == 0 {
		return ""
	}

	report := fmt.Sprintf("%d datasource(s) failed:\n", len(failures))
	for _, f := range failures {
		report += fmt.Sprintf("  - [%s] %v\n", f.Reason, f.Err)
	}
	return report
}
