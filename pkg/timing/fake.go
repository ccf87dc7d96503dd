package timing

import (
	"context"
	"sync"
	"time"
)

// FakeClock is a Clock whose Sleep advances virtual time instantly.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  time.Duration
	sleeps int
}

// NewFakeClock returns a FakeClock starting at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the virtual time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the virtual time by d.
func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
		c.slept += d
	}
	c.sleeps++
	return nil
}

// Slept returns the total virtual time spent sleeping.
func (c *FakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}

// Sleeps returns how many times Sleep was called.
func (c *FakeClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}

// FixedRand returns the same fractions for every draw. Intn(n) yields
// Int clamped into [0, n), Float64 yields Frac.
type FixedRand struct {
	Int  int
	Frac float64
}

// Intn implements Rand.
func (f FixedRand) Intn(n int) int {
	if f.Int < 0 {
		return 0
	}
	if f.Int >= n {
		return n - 1
	}
	return f.Int
}

// Float64 implements Rand.
func (f FixedRand) Float64() float64 {
	return f.Frac
}
