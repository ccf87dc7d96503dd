package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Snippet is a short, log-friendly summary of a page.
type Snippet struct {
	Title     string
	Text      string
	Truncated bool
}

func (s *Snippet) String() string {
	suffix := ""
	if s.Truncated {
		suffix = " ..."
	}
	return fmt.Sprintf("title=%q text=%q%s", s.Title, s.Text, suffix)
}

// Summarize extracts the title and the visible text of a document,
// collapsing whitespace and stopping after maxLength bytes of text.
// It is used to log what a page looked like when expected elements
// were missing.
func Summarize(rawHTML string, maxLength int) (*Snippet, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	s := &Snippet{Title: extractTitle(doc)}
	var b strings.Builder
	s.Truncated = collectText(doc, &b, maxLength)
	s.Text = b.String()
	return s, nil
}

// collectText appends the text under n to b and reports whether it stopped
// at maxLength.
func collectText(n *html.Node, b *strings.Builder, maxLength int) bool {
	if n.Type == html.ElementNode && isSkippedElement(strings.ToLower(n.Data)) {
		return false
	}

	if n.Type == html.TextNode {
		text := strings.Join(strings.Fields(n.Data), " ")
		if text == "" {
			return false
		}
		if b.Len() > 0 {
			text = " " + text
		}
		if b.Len()+len(text) > maxLength {
			b.WriteString(truncateUTF8(text, maxLength-b.Len()))
			return true
		}
		b.WriteString(text)
		return false
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if collectText(c, b, maxLength) {
			return true
		}
	}
	return false
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func isSkippedElement(tag string) bool {
	switch tag {
	case "head", "script", "style", "noscript", "svg", "template", "iframe":
		return true
	}
	return false
}

func extractTitle(n *html.Node) string {
	if n.Type == html.ElementNode && strings.ToLower(n.Data) == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := extractTitle(c); title != "" {
			return title
		}
	}
	return ""
}
