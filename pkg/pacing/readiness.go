package pacing

import (
	"context"
	"strings"
	"time"

	"github.com/entrhq/forumwalk/pkg/timing"
)

// DefaultPollInterval is the sampling period of Readiness and Debouncer.
const DefaultPollInterval = 400 * time.Millisecond

// Readiness detects when a thread's replies have rendered meaningfully.
type Readiness struct {
	locators Locators
	clock    timing.Clock
	interval time.Duration
	log      Logger
}

// NewReadiness creates a detector over loc.
func NewReadiness(loc Locators, clock timing.Clock, log Logger) *Readiness {
	return &Readiness{
		locators: loc.WithDefaults(),
		clock:    clock,
		interval: DefaultPollInterval,
		log:      orNop(log),
	}
}

// WaitUntilReady polls until a content anchor exists, is visible and has
// text, and no busy indicator is showing. A timeout is reported through
// the result and logged; callers are expected to carry on regardless.
func (r *Readiness) WaitUntilReady(ctx context.Context, s Surface, timeout time.Duration) WaitResult {
	start := r.clock.Now()
	deadline := start.Add(timeout)
	res := WaitResult{}

	for {
		res.Polls++
		anchor, ok := r.anchor(ctx, s)
		if ok {
			res.Last = anchor
			if busy := r.busy(ctx, s); busy != "" {
				res.Last = anchor + " (busy: " + busy + ")"
			} else {
				res.OK = true
				res.Elapsed = r.clock.Now().Sub(start)
				return res
			}
		}

		if !r.clock.Now().Before(deadline) {
			break
		}
		if err := r.clock.Sleep(ctx, r.interval); err != nil {
			break
		}
	}

	res.Elapsed = r.clock.Now().Sub(start)
	r.log.Warnf("thread content not ready: %s", res)
	return res
}

// anchor returns the first content anchor that is present, visible and
// non-empty.
func (r *Readiness) anchor(ctx context.Context, s Surface) (string, bool) {
	for _, sel := range r.locators.ContentAnchors {
		el, err := s.Element(ctx, sel)
		if err != nil {
			r.log.Debugf("content anchor %q: %v", sel, err)
			continue
		}
		if el.Exists && el.Visible && strings.TrimSpace(el.Text) != "" {
			return sel, true
		}
	}
	return "", false
}

// busy returns the first visible loading indicator, or "".
func (r *Readiness) busy(ctx context.Context, s Surface) string {
	for _, sel := range r.locators.BusyIndicators {
		el, err := s.Element(ctx, sel)
		if err == nil && el.Exists && el.Visible {
			return sel
		}
	}
	return ""
}
