package pacing

import (
	"fmt"
	"time"
)

// WaitResult is the outcome of a best-effort wait.
type WaitResult struct {
	// OK reports whether the awaited condition held before the deadline.
	OK bool

	// Last is the last value observed while waiting.
	Last string

	// Elapsed is the time spent waiting.
	Elapsed time.Duration

	// Polls is how many times the condition was sampled.
	Polls int
}

func (w WaitResult) String() string {
	status := "timeout"
	if w.OK {
		status = "ok"
	}
	return fmt.Sprintf("%s after %s (%d polls, last=%q)", status, w.Elapsed.Round(time.Millisecond), w.Polls, w.Last)
}

// State is a phase of the pagination state machine.
type State int

const (
	StateInitializing State = iota
	StateScrolling
	StateAwaitingStability
	StateEvaluating
	StateSatisfied
	StateExhaustedShort
	StateExhaustedIncomplete
	StateBudgetExhausted
	StateCancelled
)

var stateNames = map[State]string{
	StateInitializing:        "initializing",
	StateScrolling:           "scrolling",
	StateAwaitingStability:   "awaiting-stability",
	StateEvaluating:          "evaluating",
	StateSatisfied:           "satisfied",
	StateExhaustedShort:      "exhausted-short",
	StateExhaustedIncomplete: "exhausted-incomplete",
	StateBudgetExhausted:     "budget-exhausted",
	StateCancelled:           "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s ends a browse.
func (s State) Terminal() bool {
	return s >= StateSatisfied
}

// Advance names the signal that completed a page.
type Advance int

const (
	AdvanceNone Advance = iota
	AdvancePosition
	AdvanceRendered
)

func (a Advance) String() string {
	switch a {
	case AdvancePosition:
		return "position"
	case AdvanceRendered:
		return "rendered"
	default:
		return "none"
	}
}

// Step records one iteration of the scroll loop.
type Step struct {
	Iteration      int
	Scrolled       int
	Signal         ProgressSignal
	Advance        Advance
	PagesCompleted int
	Stable         WaitResult
}

// BrowseResult summarizes one thread visit.
type BrowseResult struct {
	// OK is true when the target was met or the thread was legitimately short.
	OK bool

	State          State
	Target         int
	PagesCompleted int
	Iterations     int
	Final          ProgressSignal
}

func (r BrowseResult) String() string {
	return fmt.Sprintf("%s: %d/%d pages in %d iterations (%s)", r.State, r.PagesCompleted, r.Target, r.Iterations, r.Final)
}
