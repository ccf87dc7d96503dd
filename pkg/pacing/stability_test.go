package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/forumwalk/pkg/timing"
	"github.com/stretchr/testify/assert"
)

func TestDebouncer_StableValue(t *testing.T) {
	clock := timing.NewFakeClock(epoch)
	read := func(context.Context) string { return "#10" }

	res := NewDebouncer(clock).WaitUntilStable(context.Background(), read, 2*time.Second, 25*time.Second)
	assert.True(t, res.OK)
	assert.Equal(t, "#10", res.Last)
	assert.GreaterOrEqual(t, res.Elapsed, 2*time.Second)
	assert.Less(t, res.Elapsed, 3*time.Second)
}

func TestDebouncer_ChangeResetsWindow(t *testing.T) {
	clock := timing.NewFakeClock(epoch)
	// changes every poll for the first 3 seconds, then settles
	read := func(context.Context) string {
		if clock.Now().Before(epoch.Add(3 * time.Second)) {
			return clock.Now().String()
		}
		return "#50"
	}

	res := NewDebouncer(clock).WaitUntilStable(context.Background(), read, 2*time.Second, 25*time.Second)
	assert.True(t, res.OK)
	assert.Equal(t, "#50", res.Last)
	assert.GreaterOrEqual(t, res.Elapsed, 5*time.Second)
}

func TestDebouncer_BlankReadsNeverStabilize(t *testing.T) {
	clock := timing.NewFakeClock(epoch)
	read := func(context.Context) string { return "   " }

	res := NewDebouncer(clock).WaitUntilStable(context.Background(), read, time.Second, 5*time.Second)
	assert.False(t, res.OK)
	assert.Empty(t, res.Last)
	assert.GreaterOrEqual(t, res.Elapsed, 5*time.Second)
}

func TestDebouncer_BlankReadsDoNotResetWindow(t *testing.T) {
	clock := timing.NewFakeClock(epoch)
	polls := 0
	read := func(context.Context) string {
		polls++
		if polls%2 == 0 {
			return ""
		}
		return "#7"
	}

	res := NewDebouncer(clock).WaitUntilStable(context.Background(), read, 2*time.Second, 25*time.Second)
	assert.True(t, res.OK)
	assert.Less(t, res.Elapsed, 3*time.Second)
}

func TestDebouncer_NeverSettles(t *testing.T) {
	clock := timing.NewFakeClock(epoch)
	read := func(context.Context) string { return clock.Now().String() }

	res := NewDebouncer(clock).WaitUntilStable(context.Background(), read, time.Second, 4*time.Second)
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Last)
}

func TestStabilityWindow(t *testing.T) {
	var w stabilityWindow
	assert.Zero(t, w.observe("a", epoch))
	assert.Equal(t, time.Second, w.observe("a", epoch.Add(time.Second)))
	assert.Zero(t, w.observe("b", epoch.Add(2*time.Second)))
	assert.Equal(t, 3*time.Second, w.observe("b", epoch.Add(5*time.Second)))
}
