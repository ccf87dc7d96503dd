// Package timing provides the clock and random source abstractions used to
// pace browsing like a human reader.
//
// Everything that sleeps or draws a random number goes through a Clock or a
// Rand so that tests can replace both with deterministic fakes.
package timing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Clock tells time and blocks for a duration.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Rand is the subset of *rand.Rand used for pacing decisions.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// RealClock is a Clock backed by the time package.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for d or until ctx is cancelled.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// lockedRand guards a *rand.Rand so a single source can be shared.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// NewRand returns a goroutine-safe Rand. A zero seed means seed from the
// current time.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// IntBetween returns a uniformly distributed integer in [lo, hi].
// If hi < lo, lo is returned.
func IntBetween(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// Between returns a uniformly distributed duration in [lo, hi).
func Between(r Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(r.Float64()*float64(hi-lo))
}

// Range is a closed interval of durations used for randomized pauses.
type Range struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// Pick draws a duration from the range.
func (rg Range) Pick(r Rand) time.Duration {
	return Between(r, rg.Min, rg.Max)
}

// Pause sleeps for a duration drawn from rg.
func Pause(ctx context.Context, c Clock, r Rand, rg Range) error {
	return c.Sleep(ctx, rg.Pick(r))
}
