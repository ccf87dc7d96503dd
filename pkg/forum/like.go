package forum

import (
	"context"
	"time"

	"github.com/entrhq/forumwalk/pkg/timing"
)

// DefaultLikeSelector is the Discourse reactions button.
const DefaultLikeSelector = ".discourse-reactions-reaction-button"

// Liker reacts to the first post of a topic.
type Liker struct {
	Selector string
	Pause    timing.Range

	clock timing.Clock
	rand  timing.Rand
	log   Logger
}

// NewLiker returns a Liker with the default selector and a 1-2s pause after
// clicking.
func NewLiker(clock timing.Clock, rnd timing.Rand, log Logger) *Liker {
	return &Liker{
		Selector: DefaultLikeSelector,
		Pause:    timing.Range{Min: time.Second, Max: 2 * time.Second},
		clock:    clock,
		rand:     rnd,
		log:      orNop(log),
	}
}

// Like clicks the reaction button if there is one and reports whether it
// did. Failures are logged, never returned.
func (l *Liker) Like(ctx context.Context, page Page) bool {
	clicked, err := page.Click(ctx, l.Selector)
	switch {
	case err != nil:
		l.log.Errorf("like failed: %v", err)
		return false
	case !clicked:
		l.log.Infof("no reaction button, probably already liked")
		return false
	}
	l.log.Successf("liked %s", page.URL())
	_ = timing.Pause(ctx, l.clock, l.rand, l.Pause)
	return true
}
