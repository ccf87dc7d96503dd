package pacing

import (
	"context"
	"strings"
	"time"

	"github.com/entrhq/forumwalk/pkg/timing"
)

// stabilityWindow tracks how long a value has gone unchanged.
type stabilityWindow struct {
	last  string
	since *time.Time
}

// observe records v at now and returns how long v has been steady.
func (w *stabilityWindow) observe(v string, now time.Time) time.Duration {
	if w.since == nil || v != w.last {
		w.last = v
		w.since = &now
		return 0
	}
	return now.Sub(*w.since)
}

// Debouncer waits for a value to stop changing.
type Debouncer struct {
	clock    timing.Clock
	interval time.Duration
}

// NewDebouncer creates a debouncer sampling at DefaultPollInterval.
func NewDebouncer(clock timing.Clock) *Debouncer {
	return &Debouncer{clock: clock, interval: DefaultPollInterval}
}

// WaitUntilStable reads a value repeatedly until it has stayed the same for
// quiet. Blank reads mean "not available yet": they neither start nor reset
// the window. An expired timeout is reported through the result.
func (d *Debouncer) WaitUntilStable(ctx context.Context, read func(context.Context) string, quiet, timeout time.Duration) WaitResult {
	start := d.clock.Now()
	deadline := start.Add(timeout)
	var w stabilityWindow
	res := WaitResult{}

	for d.clock.Now().Before(deadline) {
		res.Polls++
		if v := strings.TrimSpace(read(ctx)); v != "" {
			res.Last = v
			if w.observe(v, d.clock.Now()) >= quiet {
				res.OK = true
				break
			}
		}
		if err := d.clock.Sleep(ctx, d.interval); err != nil {
			break
		}
	}

	res.Elapsed = d.clock.Now().Sub(start)
	return res
}
