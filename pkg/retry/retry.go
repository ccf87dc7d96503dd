// Package retry runs operations with a bounded number of attempts and a
// randomized pause between them.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/forumwalk/pkg/timing"
)

// ErrExhausted is returned once every attempt has failed.
var ErrExhausted = errors.New("retries exhausted")

// Logger is the logging surface used by Do.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Options configures Do.
type Options struct {
	// Attempts is the total number of tries, at least 1.
	Attempts int

	// The pause between attempts is drawn uniformly from [MinDelay, MaxDelay).
	MinDelay time.Duration
	MaxDelay time.Duration

	Clock timing.Clock
	Rand  timing.Rand
	Log   Logger
}

// DefaultOptions returns 3 attempts with a 5-10s pause.
func DefaultOptions() Options {
	return Options{
		Attempts: 3,
		MinDelay: 5 * time.Second,
		MaxDelay: 10 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	if o.Attempts < 1 {
		o.Attempts = 1
	}
	if o.Clock == nil {
		o.Clock = timing.RealClock{}
	}
	if o.Rand == nil {
		o.Rand = timing.NewRand(0)
	}
	if o.Log == nil {
		o.Log = nopLogger{}
	}
	return o
}

// Do calls fn until it succeeds, the attempts run out, or ctx is done.
// The returned error wraps ErrExhausted and the last failure.
func Do[T any](ctx context.Context, name string, opts Options, fn func(context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()
	var zero T
	var lastErr error

	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				opts.Log.Infof("%s succeeded on attempt %d/%d", name, attempt, opts.Attempts)
			}
			return v, nil
		}
		lastErr = err
		opts.Log.Warnf("%s attempt %d/%d failed: %v", name, attempt, opts.Attempts, err)

		if attempt == opts.Attempts {
			break
		}
		delay := timing.Between(opts.Rand, opts.MinDelay, opts.MaxDelay)
		opts.Log.Infof("retrying %s in %.2fs (%s-%s random delay)", name, delay.Seconds(), opts.MinDelay, opts.MaxDelay)
		if err := opts.Clock.Sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%s: %w", name, err)
		}
	}

	opts.Log.Errorf("%s failed after %d attempts: %v", name, opts.Attempts, lastErr)
	return zero, fmt.Errorf("%s: %w after %d attempts: %w", name, ErrExhausted, opts.Attempts, lastErr)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, name string, opts Options, fn func(context.Context) error) error {
	_, err := Do(ctx, name, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
