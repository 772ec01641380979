// Package timewindow resolves the observation window shared by every
// datasource in a run. A window is either derived from a lookback
// duration ending now, or given explicitly as a start/end pair. All
// datasources receive the same resolved window, so their data lines up.
package timewindow

import (
	"fmt"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
)

// InputLayout is the canonical format accepted for explicit --start and
// --end values, interpreted in the configured time zone.
const InputLayout = "2006-01-02 15:04:05"

// DisplayLayout renders timestamps inside the prompt, zone included.
const DisplayLayout = "2006-01-02 15:04:05 MST"

// Window is an immutable half-open time range with Start strictly
// before End. Both bounds carry the configured location.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// String renders the window for logs and the run header.
func (w Window) String() string {
	return fmt.Sprintf("%s .. %s", w.Start.Format(DisplayLayout), w.End.Format(DisplayLayout))
}

// Resolve builds the run's window. With neither bound given, the window
// is [now-duration, now]. With both bounds given, they are used as-is
// and duration is ignored. Giving exactly one bound is an error, as is
// any window whose start does not precede its end.
func Resolve(now time.Time, duration time.Duration, start, end *time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}

	if (start == nil) != (end == nil) {
		return Window{}, config.NewConfigError("--start and --end must be provided together")
	}

	var w Window
	if start == nil {
		if duration <= 0 {
			return Window{}, config.NewConfigError(fmt.Sprintf("duration must be positive, got %s", duration))
		}
		w = Window{Start: now.Add(-duration).In(loc), End: now.In(loc)}
	} else {
		w = Window{Start: start.In(loc), End: end.In(loc)}
	}

	if !w.Start.Before(w.End) {
		return Window{}, config.NewConfigError(fmt.Sprintf(
			"start %s must be before end %s",
			w.Start.Format(DisplayLayout), w.End.Format(DisplayLayout),
		))
	}

	return w, nil
}

// ParseTimestamp parses a --start/--end value in the configured zone.
// The canonical "2006-01-02 15:04:05" layout is tried first; anything
// else falls through to natural-language parsing ("yesterday 14:00",
// "2 hours ago") relative to now.
func ParseTimestamp(value string, now time.Time, loc *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, config.NewConfigError("timestamp must not be empty")
	}
	if loc == nil {
		loc = time.UTC
	}

	if ts, err := time.ParseInLocation(InputLayout, trimmed, loc); err == nil {
		return ts, nil
	}

	parser := dps.Parser{}
	cfg := &dps.Configuration{
		CurrentTime:         now,
		DefaultTimezone:     loc,
		PreferredDateSource: dps.CurrentPeriod,
	}

	parsed, err := parser.Parse(cfg, trimmed)
	if err != nil {
		return time.Time{}, config.NewConfigError(fmt.Sprintf(
			"cannot parse timestamp %q: expected %q or a relative expression", trimmed, InputLayout,
		))
	}
	if parsed.IsZero() {
		return time.Time{}, config.NewConfigError(fmt.Sprintf("cannot parse timestamp %q", trimmed))
	}

	return parsed.Time.In(loc), nil
}
