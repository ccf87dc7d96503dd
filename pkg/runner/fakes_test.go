package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/entrhq/forumwalk/pkg/browser"
	"github.com/entrhq/forumwalk/pkg/forum"
	"github.com/entrhq/forumwalk/pkg/pacing"
)

type fakeSession struct {
	loginErr   error
	connectErr error
	rows       []forum.ConnectRow
	logins     int
}

func (s *fakeSession) Login(context.Context, string, string) error {
	s.logins++
	return s.loginErr
}

func (s *fakeSession) ConnectInfo(context.Context) ([]forum.ConnectRow, error) {
	return s.rows, s.connectErr
}

func (s *fakeSession) BrowserCookies() []browser.Cookie {
	return []browser.Cookie{{Name: "_t", Value: "token", Domain: ".linux.do", Path: "/"}}
}

// fakePage renders both the topic list and a short fully loaded thread.
type fakePage struct {
	mu       sync.Mutex
	url      string
	hrefs    []string
	navErr   error
	elements map[string]pacing.Element
	counts   map[string]int
	closed   bool
}

func newFakePage(hrefs []string) *fakePage {
	loc := pacing.DefaultLocators()
	return &fakePage{
		url:   "about:blank",
		hrefs: hrefs,
		elements: map[string]pacing.Element{
			"#main-outlet":            {Exists: true, Visible: true},
			loc.ContentAnchors[0]:     {Exists: true, Visible: true, Text: "first post"},
			loc.StreamContainer:       {Exists: true, Visible: true},
			loc.PositionIndicators[0]: {Exists: true, Visible: true, Text: "#1"},
		},
		counts: map[string]int{
			loc.StreamContainer + " " + loc.ReplyItems[0]: 4,
		},
	}
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Navigate(_ context.Context, url string, _ browser.NavigateOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.navErr != nil {
		return p.navErr
	}
	p.url = url
	return nil
}

func (p *fakePage) ScrollBy(context.Context, int) error { return nil }

func (p *fakePage) Element(_ context.Context, selector string) (pacing.Element, error) {
	return p.elements[selector], nil
}

func (p *fakePage) Count(_ context.Context, selector string) (int, error) {
	if selector == "a.raw-topic-link" {
		return len(p.hrefs), nil
	}
	return p.counts[selector], nil
}

func (p *fakePage) Metrics(context.Context) (pacing.Metrics, error) {
	return pacing.Metrics{ScrollY: 0, ViewportHeight: 900, ScrollHeight: 900}, nil
}

func (p *fakePage) Hrefs(context.Context, string) ([]string, error) {
	return p.hrefs, nil
}

func (p *fakePage) Click(context.Context, string) (bool, error) { return false, nil }

func (p *fakePage) HTML() (string, error) {
	return "<html><head><title>Latest</title></head><body></body></html>", nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeBrowser struct {
	startErr  error
	cookieErr error
	hrefs     []string
	failURL   string

	started  bool
	shutdown int
	cookies  []browser.Cookie
	opts     browser.LaunchOptions
	pages    []*fakePage
}

func (b *fakeBrowser) Start(opts browser.LaunchOptions) error {
	b.opts = opts
	if b.startErr != nil {
		return b.startErr
	}
	b.started = true
	return nil
}

func (b *fakeBrowser) AddCookies(cookies []browser.Cookie) error {
	b.cookies = append(b.cookies, cookies...)
	return b.cookieErr
}

func (b *fakeBrowser) Open() (forum.Page, error) {
	if !b.started {
		return nil, errors.New("browser not launched")
	}
	p := newFakePage(b.hrefs)
	b.pages = append(b.pages, p)
	return &routedPage{fakePage: p, failURL: b.failURL}, nil
}

func (b *fakeBrowser) Shutdown() error {
	b.shutdown++
	return nil
}

// routedPage fails navigation to one URL.
type routedPage struct {
	*fakePage
	failURL string
}

func (p *routedPage) Navigate(ctx context.Context, url string, opts browser.NavigateOptions) error {
	if p.failURL != "" && url == p.failURL {
		return errors.New("net::ERR_TIMED_OUT")
	}
	return p.fakePage.Navigate(ctx, url, opts)
}

type recordingNotifier struct {
	err      error
	title    string
	messages []string
}

func (n *recordingNotifier) Send(_ context.Context, title, message string) error {
	n.title = title
	n.messages = append(n.messages, message)
	return n.err
}
