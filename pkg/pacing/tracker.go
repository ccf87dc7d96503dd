package pacing

import (
	"context"
	"time"

	"github.com/entrhq/forumwalk/pkg/timing"
)

// Pacing holds the tunables of the scroll loop.
type Pacing struct {
	// GrowthThreshold is the rendered-count delta that completes a page
	// when the position label gives no usable delta.
	GrowthThreshold int `yaml:"growth_threshold"`

	// ShortThreadSlack is added to minPages*GrowthThreshold to decide that
	// a thread is too short to ever reach minPages. It is a heuristic.
	ShortThreadSlack int `yaml:"short_thread_slack"`

	// The loop runs at most target*LoopFactor + LoopBase iterations.
	LoopFactor int `yaml:"loop_factor"`
	LoopBase   int `yaml:"loop_base"`

	ScrollMin int `yaml:"scroll_min"`
	ScrollMax int `yaml:"scroll_max"`

	// BottomEpsilon is the pixel tolerance of the bottom-of-content check.
	BottomEpsilon float64 `yaml:"bottom_epsilon"`

	ReadyTimeout     time.Duration `yaml:"ready_timeout"`
	StabilityTimeout time.Duration `yaml:"stability_timeout"`
	Quiet            timing.Range  `yaml:"quiet"`

	// Warmup follows readiness, Settle follows each scroll. Reading, Skim
	// and Idle follow a position advance, a rendered-count advance and no
	// advance respectively.
	Warmup  timing.Range `yaml:"warmup"`
	Settle  timing.Range `yaml:"settle"`
	Reading timing.Range `yaml:"reading"`
	Skim    timing.Range `yaml:"skim"`
	Idle    timing.Range `yaml:"idle"`
}

// DefaultPacing returns the tunables used against linux.do.
func DefaultPacing() Pacing {
	return Pacing{
		GrowthThreshold:  10,
		ShortThreadSlack: 5,
		LoopFactor:       6,
		LoopBase:         12,
		ScrollMin:        900,
		ScrollMax:        1400,
		BottomEpsilon:    5,
		ReadyTimeout:     40 * time.Second,
		StabilityTimeout: 25 * time.Second,
		Quiet:            timing.Range{Min: 2 * time.Second, Max: 3200 * time.Millisecond},
		Warmup:           timing.Range{Min: 1500 * time.Millisecond, Max: 3 * time.Second},
		Settle:           timing.Range{Min: 800 * time.Millisecond, Max: 1600 * time.Millisecond},
		Reading:          timing.Range{Min: 3500 * time.Millisecond, Max: 8 * time.Second},
		Skim:             timing.Range{Min: 2 * time.Second, Max: 4 * time.Second},
		Idle:             timing.Range{Min: 1500 * time.Millisecond, Max: 3500 * time.Millisecond},
	}
}

// Budget returns the iteration cap for a target.
func (p Pacing) Budget(target int) int {
	return target*p.LoopFactor + p.LoopBase
}

// ShortThreadLimit returns the rendered count at or below which a thread
// that hit bottom counts as inherently short.
func (p Pacing) ShortThreadLimit(minPages int) int {
	return minPages*p.GrowthThreshold + p.ShortThreadSlack
}

// baseline is the signal a page advance is measured against.
type baseline struct {
	position    int
	hasPosition bool
	rendered    int
}

// evaluate classifies cur against b and moves b forward. The position label
// takes precedence; rendered growth is consulted only when the label shows
// no forward progress. Each branch moves only its own baseline.
func (b *baseline) evaluate(cur ProgressSignal, growth int) Advance {
	if cur.HasPosition && b.hasPosition && cur.Position > b.position {
		b.position = cur.Position
		return AdvancePosition
	}
	if cur.HasPosition && !b.hasPosition {
		b.position, b.hasPosition = cur.Position, true
	}

	if cur.Rendered-b.rendered >= growth {
		b.rendered = cur.Rendered
		return AdvanceRendered
	}
	if cur.Rendered < b.rendered {
		// the stream unloaded replies above the viewport
		b.rendered = cur.Rendered
	}
	return AdvanceNone
}

// Tracker drives the scroll-and-wait loop over one thread.
type Tracker struct {
	pacing    Pacing
	readiness *Readiness
	reader    *SignalReader
	debouncer *Debouncer
	clock     timing.Clock
	rand      timing.Rand
	log       Logger

	// OnStep, when set, is called after every evaluated iteration.
	OnStep func(Step)
}

// NewTracker wires a Tracker from its collaborators.
func NewTracker(p Pacing, loc Locators, clock timing.Clock, rnd timing.Rand, log Logger) *Tracker {
	log = orNop(log)
	return &Tracker{
		pacing:    p,
		readiness: NewReadiness(loc, clock, log),
		reader:    NewSignalReader(loc, log),
		debouncer: NewDebouncer(clock),
		clock:     clock,
		rand:      rnd,
		log:       log,
	}
}

// Readiness returns the tracker's readiness detector.
func (t *Tracker) Readiness() *Readiness { return t.readiness }

// Reader returns the tracker's signal reader.
func (t *Tracker) Reader() *SignalReader { return t.reader }

// Debouncer returns the tracker's debouncer.
func (t *Tracker) Debouncer() *Debouncer { return t.debouncer }

// DrawTarget picks the page target uniformly from [minPages, maxPages],
// raising maxPages to minPages first.
func (t *Tracker) DrawTarget(minPages, maxPages int) int {
	if minPages < 0 {
		minPages = 0
	}
	if maxPages < minPages {
		maxPages = minPages
	}
	return timing.IntBetween(t.rand, minPages, maxPages)
}

// BrowsePages scrolls through the thread on s until the drawn page target is
// met, the thread is exhausted, or the iteration budget runs out. OK is true
// when the target was met, the thread was too short to reach minPages, or at
// least minPages were completed before stopping.
func (t *Tracker) BrowsePages(ctx context.Context, s Surface, minPages, maxPages int) BrowseResult {
	if minPages < 0 {
		minPages = 0
	}
	target := t.DrawTarget(minPages, maxPages)
	res := BrowseResult{State: StateInitializing, Target: target}
	t.log.Infof("target: browse %d pages of replies", target)

	t.readiness.WaitUntilReady(ctx, s, t.pacing.ReadyTimeout)
	if !t.pause(ctx, t.pacing.Warmup) {
		return t.finish(res, StateCancelled, minPages)
	}

	sig := t.reader.Read(ctx, s)
	base := baseline{position: sig.Position, hasPosition: sig.HasPosition, rendered: sig.Rendered}
	res.Final = sig
	if sig.HasPosition {
		t.log.Infof("initial position #%d, %d replies rendered", sig.Position, sig.Rendered)
	} else {
		t.log.Infof("position label unavailable, %d replies rendered", sig.Rendered)
	}

	if target == 0 {
		return t.finish(res, StateSatisfied, minPages)
	}

	budget := t.pacing.Budget(target)
	for i := 1; i <= budget; i++ {
		res.Iterations = i

		res.State = StateScrolling
		dy := timing.IntBetween(t.rand, t.pacing.ScrollMin, t.pacing.ScrollMax)
		t.log.Debugf("[loop %d] scrolling %dpx", i, dy)
		if err := s.ScrollBy(ctx, dy); err != nil {
			t.log.Warnf("[loop %d] scroll failed: %v", i, err)
		}
		if !t.pause(ctx, t.pacing.Settle) {
			return t.finish(res, StateCancelled, minPages)
		}

		res.State = StateAwaitingStability
		stable := t.debouncer.WaitUntilStable(ctx, func(ctx context.Context) string {
			return t.reader.PositionText(ctx, s)
		}, t.pacing.Quiet.Pick(t.rand), t.pacing.StabilityTimeout)
		if ctx.Err() != nil {
			return t.finish(res, StateCancelled, minPages)
		}
		if !stable.OK {
			t.log.Debugf("[loop %d] position not stable: %s", i, stable)
		}

		res.State = StateEvaluating
		prev := base
		sig = t.reader.Read(ctx, s)
		res.Final = sig
		adv := base.evaluate(sig, t.pacing.GrowthThreshold)

		var rest timing.Range
		switch adv {
		case AdvancePosition:
			res.PagesCompleted++
			t.log.Successf("page %d/%d read (position #%d -> #%d)", res.PagesCompleted, target, prev.position, sig.Position)
			rest = t.pacing.Reading
		case AdvanceRendered:
			res.PagesCompleted++
			t.log.Successf("page %d/%d read (rendered %d -> %d)", res.PagesCompleted, target, prev.rendered, sig.Rendered)
			rest = t.pacing.Skim
		default:
			rest = t.pacing.Idle
		}

		if t.OnStep != nil {
			t.OnStep(Step{
				Iteration:      i,
				Scrolled:       dy,
				Signal:         sig,
				Advance:        adv,
				PagesCompleted: res.PagesCompleted,
				Stable:         stable,
			})
		}

		if !t.pause(ctx, rest) {
			return t.finish(res, StateCancelled, minPages)
		}

		if res.PagesCompleted >= target {
			return t.finish(res, StateSatisfied, minPages)
		}

		m, err := s.Metrics(ctx)
		if err != nil {
			t.log.Debugf("[loop %d] metrics unavailable: %v", i, err)
			continue
		}
		if m.AtBottom(t.pacing.BottomEpsilon) {
			limit := t.pacing.ShortThreadLimit(minPages)
			if sig.Rendered <= limit {
				t.log.Infof("reached bottom of a short thread (%d replies <= %d)", sig.Rendered, limit)
				return t.finish(res, StateExhaustedShort, minPages)
			}
			t.log.Infof("reached bottom of thread (%s)", m)
			return t.finish(res, StateExhaustedIncomplete, minPages)
		}
	}

	t.log.Warnf("iteration budget of %d spent before reaching %d pages", budget, target)
	return t.finish(res, StateBudgetExhausted, minPages)
}

func (t *Tracker) finish(res BrowseResult, state State, minPages int) BrowseResult {
	res.State = state
	switch state {
	case StateSatisfied, StateExhaustedShort:
		res.OK = true
	default:
		res.OK = res.PagesCompleted >= minPages
	}
	if state == StateSatisfied {
		t.log.Successf("reached the page target, done with this thread")
	}
	return res
}

// pause sleeps for a duration drawn from rg and reports whether the context
// is still live.
func (t *Tracker) pause(ctx context.Context, rg timing.Range) bool {
	return timing.Pause(ctx, t.clock, t.rand, rg) == nil
}
