package forum

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/entrhq/forumwalk/pkg/browser"
	"github.com/entrhq/forumwalk/pkg/timing"
	"github.com/gobwas/glob"
)

// ErrNoTopics is returned when the topic list never renders any links.
var ErrNoTopics = errors.New("no topic links found")

const (
	mainOutletSelector = "#main-outlet"
	topicLinkSelector  = "a.raw-topic-link"

	// snippetLength bounds the page text attached to ErrNoTopics.
	snippetLength = 500
)

// TopicOptions configures topic discovery.
type TopicOptions struct {
	// MaxTopics caps the sample size.
	MaxTopics int

	// Exclude holds glob patterns matched against absolute topic URLs.
	// "*" matches any run of characters, including "/".
	Exclude []string

	OutletTimeout time.Duration
	LinkTimeout   time.Duration
	PollInterval  time.Duration
	Navigate      browser.NavigateOptions
}

// DefaultTopicOptions returns the timeouts used against Discourse.
func DefaultTopicOptions() TopicOptions {
	return TopicOptions{
		MaxTopics:     50,
		OutletTimeout: 25 * time.Second,
		LinkTimeout:   35 * time.Second,
		PollInterval:  800 * time.Millisecond,
	}
}

// Discoverer finds topic links on the latest list and samples them.
type Discoverer struct {
	base    *url.URL
	opts    TopicOptions
	exclude []glob.Glob
	clock   timing.Clock
	rand    timing.Rand
	log     Logger
}

// NewDiscoverer compiles the exclusion patterns and returns a Discoverer.
func NewDiscoverer(baseURL string, opts TopicOptions, clock timing.Clock, rnd timing.Rand, log Logger) (*Discoverer, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	defaults := DefaultTopicOptions()
	if opts.OutletTimeout == 0 {
		opts.OutletTimeout = defaults.OutletTimeout
	}
	if opts.LinkTimeout == 0 {
		opts.LinkTimeout = defaults.LinkTimeout
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = defaults.PollInterval
	}

	exclude := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid topic exclude pattern %q: %w", pattern, err)
		}
		exclude = append(exclude, g)
	}

	return &Discoverer{
		base:    base,
		opts:    opts,
		exclude: exclude,
		clock:   clock,
		rand:    rnd,
		log:     orNop(log),
	}, nil
}

// ListURL is the page topics are collected from.
func (d *Discoverer) ListURL() string {
	return d.base.String() + "/latest"
}

// Discover loads the topic list on page and returns a random sample of at
// most MaxTopics unique topic URLs.
func (d *Discoverer) Discover(ctx context.Context, page Page) ([]string, error) {
	if !strings.HasPrefix(page.URL(), d.ListURL()) {
		d.log.Infof("navigating to topic list %s", d.ListURL())
		if err := page.Navigate(ctx, d.ListURL(), d.opts.Navigate); err != nil {
			return nil, fmt.Errorf("failed to open topic list: %w", err)
		}
	}

	if !d.waitFor(ctx, page, d.opts.OutletTimeout, func() bool {
		el, err := page.Element(ctx, mainOutletSelector)
		return err == nil && el.Exists
	}) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.log.Warnf("%s did not appear, looking for topic links anyway", mainOutletSelector)
	}

	found := d.waitFor(ctx, page, d.opts.LinkTimeout, func() bool {
		n, err := page.Count(ctx, topicLinkSelector)
		return err == nil && n > 0
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, d.noTopics(page)
	}

	hrefs, err := page.Hrefs(ctx, topicLinkSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic links: %w", err)
	}
	links := d.Normalize(hrefs)
	if len(links) == 0 {
		return nil, d.noTopics(page)
	}

	n := len(links)
	if d.opts.MaxTopics < n {
		n = d.opts.MaxTopics
	}
	d.log.Infof("found %d topics, sampling %d", len(links), n)
	return Sample(d.rand, links, n), nil
}

// Normalize resolves hrefs against the base URL, dropping blanks,
// duplicates and excluded topics. Order is preserved.
func (d *Discoverer) Normalize(hrefs []string) []string {
	seen := make(map[string]struct{}, len(hrefs))
	out := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			d.log.Debugf("skipping malformed topic link %q: %v", href, err)
			continue
		}
		abs := d.base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		if d.excluded(abs) {
			d.log.Debugf("excluding topic %s", abs)
			continue
		}
		out = append(out, abs)
	}
	return out
}

func (d *Discoverer) excluded(link string) bool {
	for _, g := range d.exclude {
		if g.Match(link) {
			return true
		}
	}
	return false
}

// waitFor polls cond every PollInterval until it holds or timeout elapses.
func (d *Discoverer) waitFor(ctx context.Context, page Page, timeout time.Duration, cond func() bool) bool {
	deadline := d.clock.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if !d.clock.Now().Before(deadline) {
			return false
		}
		if err := d.clock.Sleep(ctx, d.opts.PollInterval); err != nil {
			return false
		}
	}
}

func (d *Discoverer) noTopics(page Page) error {
	summary := "page content unavailable"
	if raw, err := page.HTML(); err == nil {
		if s, err := browser.Summarize(raw, snippetLength); err == nil {
			summary = s.String()
		}
	}
	return fmt.Errorf("%w on %s (%s)", ErrNoTopics, page.URL(), summary)
}

// Sample returns n distinct elements of items in random order. items is
// not modified.
func Sample(r timing.Rand, items []string, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	if n <= 0 {
		return nil
	}
	pool := append([]string(nil), items...)
	for i := 0; i < n; i++ {
		j := i + r.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
