package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/forumwalk/pkg/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestReadiness_ReadyImmediately(t *testing.T) {
	clock := timing.NewFakeClock(epoch)
	s := newFakeSurface()

	res := NewReadiness(DefaultLocators(), clock, nil).WaitUntilReady(context.Background(), s, 10*time.Second)
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Polls)
	assert.Zero(t, res.Elapsed)
	assert.Equal(t, DefaultLocators().ContentAnchors[0], res.Last)
}

func TestReadiness_RequiresAllConditions(t *testing.T) {
	tests := []struct {
		name string
		el   Element
	}{
		{"missing", Element{}},
		{"hidden", Element{Exists: true, Visible: false, Text: "post"}},
		{"blank text", Element{Exists: true, Visible: true, Text: "  \n "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := timing.NewFakeClock(epoch)
			s := newFakeSurface()
			s.anchor = func(int) Element { return tt.el }

			res := NewReadiness(DefaultLocators(), clock, nil).WaitUntilReady(context.Background(), s, 2*time.Second)
			assert.False(t, res.OK)
			assert.GreaterOrEqual(t, res.Elapsed, 2*time.Second)
			assert.Greater(t, res.Polls, 1)
		})
	}
}

func TestReadiness_WaitsForBusyIndicator(t *testing.T) {
	clock := timing.NewFakeClock(epoch)
	s := newFakeSurface()
	s.busy = func(int) bool { return clock.Now().Before(epoch.Add(time.Second)) }

	res := NewReadiness(DefaultLocators(), clock, nil).WaitUntilReady(context.Background(), s, 10*time.Second)
	require.True(t, res.OK)
	assert.GreaterOrEqual(t, res.Elapsed, time.Second)
	assert.Less(t, res.Elapsed, 2*time.Second)
}

func TestReadiness_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newFakeSurface()
	s.anchor = func(int) Element { return Element{} }

	res := NewReadiness(DefaultLocators(), timing.NewFakeClock(epoch), nil).WaitUntilReady(ctx, s, time.Hour)
	assert.False(t, res.OK)
	assert.Equal(t, 1, res.Polls)
}
