package pacing

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var positionPattern = regexp.MustCompile(`#(\d+)`)

// ParsePosition extracts the first integer following a '#' in text,
// as in "#2422 / 5000".
func ParsePosition(text string) (int, bool) {
	m := positionPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ProgressSignal is one sample of the two progress proxies.
type ProgressSignal struct {
	// Position is the timeline label, valid only when HasPosition is set.
	Position    int
	HasPosition bool

	// Rendered is the number of reply nodes attached to the document.
	Rendered int
}

func (p ProgressSignal) String() string {
	pos := "#?"
	if p.HasPosition {
		pos = fmt.Sprintf("#%d", p.Position)
	}
	return fmt.Sprintf("%s rendered=%d", pos, p.Rendered)
}

// SignalReader samples ProgressSignals from a Surface.
type SignalReader struct {
	locators Locators
	log      Logger
}

// NewSignalReader creates a reader over loc.
func NewSignalReader(loc Locators, log Logger) *SignalReader {
	return &SignalReader{locators: loc.WithDefaults(), log: orNop(log)}
}

// Read samples both proxies. Missing elements yield an absent position or
// a zero count.
func (r *SignalReader) Read(ctx context.Context, s Surface) ProgressSignal {
	sig := ProgressSignal{Rendered: r.rendered(ctx, s)}
	sig.Position, sig.HasPosition = r.position(ctx, s)
	return sig
}

// PositionText returns the trimmed text of the first non-blank position
// indicator, or "".
func (r *SignalReader) PositionText(ctx context.Context, s Surface) string {
	for _, sel := range r.locators.PositionIndicators {
		el, err := s.Element(ctx, sel)
		if err != nil {
			r.log.Debugf("position indicator %q: %v", sel, err)
			continue
		}
		if text := strings.TrimSpace(el.Text); el.Exists && text != "" {
			return text
		}
	}
	return ""
}

func (r *SignalReader) position(ctx context.Context, s Surface) (int, bool) {
	for _, sel := range r.locators.PositionIndicators {
		el, err := s.Element(ctx, sel)
		if err != nil || !el.Exists {
			continue
		}
		if n, ok := ParsePosition(el.Text); ok {
			return n, true
		}
	}
	return 0, false
}

func (r *SignalReader) rendered(ctx context.Context, s Surface) int {
	scoped := false
	if c := r.locators.StreamContainer; c != "" {
		el, err := s.Element(ctx, c)
		scoped = err == nil && el.Exists
	}

	for _, item := range r.locators.ReplyItems {
		sel := item
		if scoped {
			sel = r.locators.scoped(item)
		}
		n, err := s.Count(ctx, sel)
		if err != nil {
			r.log.Debugf("count %q: %v", sel, err)
			continue
		}
		if n > 0 {
			return n
		}
	}
	return 0
}
