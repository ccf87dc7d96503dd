package forum

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/forumwalk/pkg/browser"
	"github.com/entrhq/forumwalk/pkg/pacing"
	"github.com/entrhq/forumwalk/pkg/retry"
	"github.com/entrhq/forumwalk/pkg/timing"
)

// VisitOptions configures a topic visit.
type VisitOptions struct {
	MinPages        int
	MaxPages        int
	LikeProbability float64

	Navigate browser.NavigateOptions

	// ReadyTimeout bounds the first readiness wait.
	ReadyTimeout time.Duration

	// Linger is the pause between readiness and the stability wait.
	Linger timing.Range

	// StableQuiet and StableTimeout configure the wait for the position
	// label to settle after the page loads.
	StableQuiet   time.Duration
	StableTimeout time.Duration

	Retry retry.Options
}

// DefaultVisitOptions returns 5-10 pages, a 30% like chance and the
// default retry policy.
func DefaultVisitOptions() VisitOptions {
	return VisitOptions{
		MinPages:        5,
		MaxPages:        10,
		LikeProbability: 0.3,
		ReadyTimeout:    40 * time.Second,
		Linger:          timing.Range{Min: 1200 * time.Millisecond, Max: 2500 * time.Millisecond},
		StableQuiet:     2200 * time.Millisecond,
		StableTimeout:   25 * time.Second,
		Retry:           retry.DefaultOptions(),
	}
}

// Visit is the outcome of one topic.
type Visit struct {
	URL    string
	Liked  bool
	Result pacing.BrowseResult
}

// VisitStats aggregates a sequence of visits.
type VisitStats struct {
	Visited   int
	Satisfied int
	Failed    int
}

// Visitor opens each topic in its own tab and reads it page by page.
type Visitor struct {
	open    Opener
	tracker *pacing.Tracker
	liker   *Liker
	opts    VisitOptions
	clock   timing.Clock
	rand    timing.Rand
	log     Logger
}

// NewVisitor wires a Visitor. The retry policy shares clock, rand and log
// unless the options set their own.
func NewVisitor(open Opener, tracker *pacing.Tracker, liker *Liker, opts VisitOptions, clock timing.Clock, rnd timing.Rand, log Logger) *Visitor {
	log = orNop(log)
	if opts.Retry.Clock == nil {
		opts.Retry.Clock = clock
	}
	if opts.Retry.Rand == nil {
		opts.Retry.Rand = rnd
	}
	if opts.Retry.Log == nil {
		opts.Retry.Log = log
	}
	return &Visitor{
		open:    open,
		tracker: tracker,
		liker:   liker,
		opts:    opts,
		clock:   clock,
		rand:    rnd,
		log:     log,
	}
}

// VisitAll visits the topics in order. A topic whose every attempt fails is
// counted and skipped. It stops early only when ctx is done.
func (v *Visitor) VisitAll(ctx context.Context, topics []string) VisitStats {
	var stats VisitStats
	for i, topic := range topics {
		if ctx.Err() != nil {
			break
		}
		v.log.Infof("[%d/%d] visiting %s", i+1, len(topics), topic)
		visit, err := v.Visit(ctx, topic)
		if err != nil {
			stats.Failed++
			v.log.Errorf("skipping %s: %v", topic, err)
			continue
		}
		stats.Visited++
		if visit.Result.OK {
			stats.Satisfied++
		}
	}
	return stats
}

// Visit reads one topic through the retry policy.
func (v *Visitor) Visit(ctx context.Context, topic string) (Visit, error) {
	return retry.Do(ctx, "visit "+topic, v.opts.Retry, func(ctx context.Context) (Visit, error) {
		return v.visitOnce(ctx, topic)
	})
}

func (v *Visitor) visitOnce(ctx context.Context, topic string) (visit Visit, err error) {
	visit.URL = topic

	page, err := v.open()
	if err != nil {
		return visit, fmt.Errorf("failed to open tab: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			v.log.Debugf("closing tab: %v", cerr)
		}
	}()

	if err := page.Navigate(ctx, topic, v.opts.Navigate); err != nil {
		return visit, err
	}

	if ready := v.tracker.Readiness().WaitUntilReady(ctx, page, v.opts.ReadyTimeout); !ready.OK {
		v.log.Debugf("replies not ready, continuing: %s", ready)
	}
	if err := timing.Pause(ctx, v.clock, v.rand, v.opts.Linger); err != nil {
		return visit, err
	}
	reader := v.tracker.Reader()
	v.tracker.Debouncer().WaitUntilStable(ctx, func(ctx context.Context) string {
		return reader.PositionText(ctx, page)
	}, v.opts.StableQuiet, v.opts.StableTimeout)

	if v.liker != nil && v.rand.Float64() < v.opts.LikeProbability {
		visit.Liked = v.liker.Like(ctx, page)
	}

	visit.Result = v.tracker.BrowsePages(ctx, page, v.opts.MinPages, v.opts.MaxPages)
	if err := ctx.Err(); err != nil {
		return visit, err
	}
	if !visit.Result.OK {
		v.log.Warnf("minimum page target not reached on %s (%s)", topic, visit.Result)
	} else {
		v.log.Infof("finished %s (%s)", topic, visit.Result)
	}
	return visit, nil
}
