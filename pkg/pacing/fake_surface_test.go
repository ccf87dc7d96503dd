package pacing

import (
	"context"
	"errors"
	"sync"
)

// fakeSurface is a scripted thread page. Every callback receives the number
// of ScrollBy calls made so far.
type fakeSurface struct {
	mu       sync.Mutex
	loc      Locators
	scrolls  int
	scrolled []int

	anchor    func(n int) Element
	busy      func(n int) bool
	position  func(n int) string
	rendered  func(n int) int
	bottom    func(n int) bool
	container bool

	scrollErr  error
	metricsErr error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		loc:       DefaultLocators(),
		container: true,
		anchor: func(int) Element {
			return Element{Exists: true, Visible: true, Text: "first post"}
		},
		position: func(int) string { return "" },
		rendered: func(int) int { return 0 },
		bottom:   func(int) bool { return false },
	}
}

func (f *fakeSurface) ScrollBy(_ context.Context, dy int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scrollErr != nil {
		return f.scrollErr
	}
	f.scrolls++
	f.scrolled = append(f.scrolled, dy)
	return nil
}

func (f *fakeSurface) n() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scrolls
}

func (f *fakeSurface) Element(_ context.Context, selector string) (Element, error) {
	n := f.n()
	switch selector {
	case f.loc.ContentAnchors[0]:
		return f.anchor(n), nil
	case f.loc.PositionIndicators[0]:
		text := f.position(n)
		return Element{Exists: text != "", Visible: text != "", Text: text}, nil
	case f.loc.StreamContainer:
		return Element{Exists: f.container, Visible: f.container}, nil
	case f.loc.BusyIndicators[0]:
		if f.busy != nil && f.busy(n) {
			return Element{Exists: true, Visible: true}, nil
		}
	}
	return Element{}, nil
}

func (f *fakeSurface) Count(_ context.Context, selector string) (int, error) {
	n := f.n()
	switch selector {
	case f.loc.scoped(f.loc.ReplyItems[0]):
		if f.container {
			return f.rendered(n), nil
		}
	case f.loc.ReplyItems[0]:
		if !f.container {
			return f.rendered(n), nil
		}
	}
	return 0, nil
}

func (f *fakeSurface) Metrics(context.Context) (Metrics, error) {
	if f.metricsErr != nil {
		return Metrics{}, f.metricsErr
	}
	if f.bottom(f.n()) {
		return Metrics{ScrollY: 4000, ViewportHeight: 1000, ScrollHeight: 5000}, nil
	}
	return Metrics{ScrollY: 0, ViewportHeight: 1000, ScrollHeight: 100000}, nil
}

var errBroken = errors.New("surface broken")
