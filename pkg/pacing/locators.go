package pacing

import "strings"

// Locators is the ordered set of CSS selectors used to inspect a thread.
// Every list is tried front to back; the first useful match wins.
type Locators struct {
	// ContentAnchors mark rendered reply content.
	ContentAnchors []string `yaml:"content_anchors"`

	// BusyIndicators are loading states that must be gone before the
	// thread counts as ready.
	BusyIndicators []string `yaml:"busy_indicators"`

	// PositionIndicators hold the "#N" position label.
	PositionIndicators []string `yaml:"position_indicators"`

	// StreamContainer scopes reply counting. Empty or missing means the
	// whole document.
	StreamContainer string `yaml:"stream_container"`

	// ReplyItems match one node per rendered reply.
	ReplyItems []string `yaml:"reply_items"`
}

// DefaultLocators returns selectors for a Discourse topic page.
func DefaultLocators() Locators {
	return Locators{
		ContentAnchors: []string{
			"#post-stream article.topic-post .cooked",
			"article.topic-post",
		},
		BusyIndicators: []string{
			`#post-stream[aria-busy="true"]`,
			".spinner",
			".loading-container",
			".topic-loading",
			".discourse-spinner",
		},
		PositionIndicators: []string{
			"#topic-progress",
			".timeline-container .timeline-replies",
			".topic-timeline .timeline-handle",
		},
		StreamContainer: "#post-stream",
		ReplyItems: []string{
			"article.topic-post",
			"[data-post-number]",
		},
	}
}

// WithDefaults fills every empty field from DefaultLocators.
func (l Locators) WithDefaults() Locators {
	d := DefaultLocators()
	if len(l.ContentAnchors) == 0 {
		l.ContentAnchors = d.ContentAnchors
	}
	if l.BusyIndicators == nil {
		l.BusyIndicators = d.BusyIndicators
	}
	if len(l.PositionIndicators) == 0 {
		l.PositionIndicators = d.PositionIndicators
	}
	if l.StreamContainer == "" {
		l.StreamContainer = d.StreamContainer
	}
	if len(l.ReplyItems) == 0 {
		l.ReplyItems = d.ReplyItems
	}
	return l
}

// scoped prefixes every selector in the item list with the stream
// container, so "a, b" becomes "#post-stream a, #post-stream b".
func (l Locators) scoped(item string) string {
	container := strings.TrimSpace(l.StreamContainer)
	if container == "" {
		return item
	}
	parts := splitSelectorList(item)
	for i, p := range parts {
		parts[i] = container + " " + p
	}
	return strings.Join(parts, ", ")
}

// splitSelectorList splits a selector list on its top-level commas. Commas
// inside attribute brackets, parentheses or quoted strings do not split.
func splitSelectorList(list string) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	for i, r := range list {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			if p := strings.TrimSpace(list[start:i]); p != "" {
				parts = append(parts, p)
			}
			start = i + 1
		}
	}
	if p := strings.TrimSpace(list[start:]); p != "" {
		parts = append(parts, p)
	}
	return parts
}
