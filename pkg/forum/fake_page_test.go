package forum

import (
	"context"
	"errors"
	"sync"

	"github.com/entrhq/forumwalk/pkg/browser"
	"github.com/entrhq/forumwalk/pkg/pacing"
)

var errNavigate = errors.New("net::ERR_CONNECTION_RESET")

// fakePage is an in-memory Page. Topic links become countable after
// linksAfter Count calls on the link selector.
type fakePage struct {
	mu sync.Mutex

	url         string
	navigations []string
	navErr      error
	navFailures int // navigations failing with navErr; -1 fails forever

	elements   map[string]pacing.Element
	counts     map[string]int
	hrefs      []string
	linksAfter int
	linkPolls  int

	clickable map[string]bool
	clickErr  error
	clicks    []string

	html    string
	metrics pacing.Metrics
	scrolls int
	closed  int
}

func newFakePage() *fakePage {
	return &fakePage{
		url:       "about:blank",
		elements:  make(map[string]pacing.Element),
		counts:    make(map[string]int),
		clickable: make(map[string]bool),
		html:      "<html><head><title>Just a moment...</title></head><body>Checking your browser</body></html>",
		metrics:   pacing.Metrics{ScrollY: 0, ViewportHeight: 900, ScrollHeight: 900},
	}
}

// newThreadPage returns a page showing a short, fully rendered thread.
func newThreadPage(replies int) *fakePage {
	p := newFakePage()
	loc := pacing.DefaultLocators()
	p.elements[loc.ContentAnchors[0]] = pacing.Element{Exists: true, Visible: true, Text: "first post"}
	p.elements[loc.StreamContainer] = pacing.Element{Exists: true, Visible: true}
	p.elements[loc.PositionIndicators[0]] = pacing.Element{Exists: true, Visible: true, Text: "#1"}
	p.counts[loc.StreamContainer+" "+loc.ReplyItems[0]] = replies
	return p
}

var _ Page = (*fakePage)(nil)

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Navigate(_ context.Context, url string, _ browser.NavigateOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, url)
	if p.navFailures != 0 {
		if p.navFailures > 0 {
			p.navFailures--
		}
		return p.navErr
	}
	p.url = url
	return nil
}

func (p *fakePage) ScrollBy(context.Context, int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls++
	return nil
}

func (p *fakePage) Element(_ context.Context, selector string) (pacing.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[selector], nil
}

func (p *fakePage) Count(_ context.Context, selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if selector == topicLinkSelector {
		p.linkPolls++
		if p.linkPolls <= p.linksAfter {
			return 0, nil
		}
		return len(p.hrefs), nil
	}
	return p.counts[selector], nil
}

func (p *fakePage) Metrics(context.Context) (pacing.Metrics, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics, nil
}

func (p *fakePage) Hrefs(_ context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if selector != topicLinkSelector {
		return nil, nil
	}
	return append([]string(nil), p.hrefs...), nil
}

func (p *fakePage) Click(_ context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.clickable[selector] {
		return false, nil
	}
	if p.clickErr != nil {
		return true, p.clickErr
	}
	p.clicks = append(p.clicks, selector)
	return true, nil
}

func (p *fakePage) HTML() (string, error) {
	return p.html, nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}
