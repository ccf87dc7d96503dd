package pacing

import (
	"context"
	"fmt"
)

// Element is the observed state of the first node matching a selector.
type Element struct {
	// Exists reports whether any node matched.
	Exists bool

	// Visible reports non-zero size and not hidden through display,
	// visibility or opacity.
	Visible bool

	// Text is the node's rendered text, untrimmed.
	Text string
}

// Metrics are the scroll dimensions of the document.
type Metrics struct {
	ScrollY        float64
	ViewportHeight float64
	ScrollHeight   float64
}

// AtBottom reports whether the viewport reaches the end of the document,
// within epsilon pixels.
func (m Metrics) AtBottom(epsilon float64) bool {
	return m.ScrollY+m.ViewportHeight >= m.ScrollHeight-epsilon
}

func (m Metrics) String() string {
	return fmt.Sprintf("y=%.0f view=%.0f height=%.0f", m.ScrollY, m.ViewportHeight, m.ScrollHeight)
}

// Surface is the rendering surface of one open thread.
//
// Implementations return a zero Element or count, not an error, when
// nothing matches. Errors are reserved for a broken surface (closed tab,
// script failure) and are treated as transient by this package.
type Surface interface {
	// ScrollBy scrolls the viewport vertically by dy pixels.
	ScrollBy(ctx context.Context, dy int) error

	// Element returns the state of the first node matching selector.
	Element(ctx context.Context, selector string) (Element, error)

	// Count returns the number of nodes matching selector.
	Count(ctx context.Context, selector string) (int, error)

	// Metrics returns the current scroll offset and document dimensions.
	Metrics(ctx context.Context) (Metrics, error)
}

// Logger is the logging surface used by this package.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Successf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})   {}
func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Successf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})    {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
