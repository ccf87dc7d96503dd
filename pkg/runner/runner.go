// Package runner drives one complete forumwalk run: login, connect info,
// topic browsing and the status notification.
package runner

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/entrhq/forumwalk/pkg/browser"
	"github.com/entrhq/forumwalk/pkg/config"
	"github.com/entrhq/forumwalk/pkg/forum"
	"github.com/entrhq/forumwalk/pkg/logging"
	"github.com/entrhq/forumwalk/pkg/notify"
	"github.com/entrhq/forumwalk/pkg/pacing"
	"github.com/entrhq/forumwalk/pkg/retry"
	"github.com/entrhq/forumwalk/pkg/timing"
)

// Session is the HTTP side of the forum.
type Session interface {
	Login(ctx context.Context, username, password string) error
	ConnectInfo(ctx context.Context) ([]forum.ConnectRow, error)
	BrowserCookies() []browser.Cookie
}

// Browser is the rendering side of the forum.
type Browser interface {
	Start(opts browser.LaunchOptions) error
	AddCookies(cookies []browser.Cookie) error
	Open() (forum.Page, error)
	Shutdown() error
}

// Notifier delivers the status message.
type Notifier interface {
	Send(ctx context.Context, title, message string) error
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Session  Session
	Browser  Browser
	Notifier Notifier
	Clock    timing.Clock
	Rand     timing.Rand
}

// NewDeps wires the production collaborators for cfg.
func NewDeps(cfg *config.Config, log *logging.Logger) (Deps, error) {
	clock := timing.RealClock{}
	rnd := timing.NewRand(cfg.Seed)

	session, err := forum.NewClient(cfg.BaseURL, forum.ClientOptions{
		UserAgent: cfg.Browser.UserAgent,
		Log:       log.With("session"),
	})
	if err != nil {
		return Deps{}, err
	}

	notifyLog := log.With("notify")
	notifier := notify.FromConfig(cfg.Notify, &http.Client{Timeout: notify.DefaultTimeout}, retry.Options{
		Clock: clock,
		Rand:  rnd,
		Log:   notifyLog,
	}, notifyLog)

	return Deps{
		Session:  session,
		Browser:  &managerBrowser{manager: browser.NewManager(log.With("browser"))},
		Notifier: notifier,
		Clock:    clock,
		Rand:     rnd,
	}, nil
}

// managerBrowser adapts browser.Manager to Browser.
type managerBrowser struct {
	manager *browser.Manager
}

func (b *managerBrowser) Start(opts browser.LaunchOptions) error {
	if err := b.manager.Initialize(); err != nil {
		return err
	}
	return b.manager.Launch(opts)
}

func (b *managerBrowser) AddCookies(cookies []browser.Cookie) error {
	return b.manager.AddCookies(cookies)
}

func (b *managerBrowser) Open() (forum.Page, error) {
	tab, err := b.manager.NewTab()
	if err != nil {
		return nil, err
	}
	return tab, nil
}

func (b *managerBrowser) Shutdown() error {
	return b.manager.Shutdown()
}

// Runner executes runs against one configuration.
type Runner struct {
	cfg  *config.Config
	deps Deps
	log  *logging.Logger
}

// New returns a Runner. cfg must already be validated.
func New(cfg *config.Config, deps Deps, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Discard()
	}
	if deps.Clock == nil {
		deps.Clock = timing.RealClock{}
	}
	if deps.Rand == nil {
		deps.Rand = timing.NewRand(cfg.Seed)
	}
	return &Runner{cfg: cfg, deps: deps, log: log}
}

// Run performs login, connect info, browsing when enabled and the status
// notification. A failed login is tolerated. A failed topic discovery ends
// the run with an error and no notification. The browser is always shut
// down before returning.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		StartTime:     r.deps.Clock.Now(),
		Status:        statusRunning,
		Username:      r.cfg.Username,
		BrowseEnabled: r.cfg.BrowseEnabled,
	}
	r.log.Infof("run %s started", logging.RunID())

	r.login(ctx, sum)

	if r.cfg.BrowseEnabled && ctx.Err() == nil {
		err := r.browse(ctx, sum)
		if serr := r.deps.Browser.Shutdown(); serr != nil {
			r.log.Warnf("browser shutdown: %v", serr)
		}
		if err != nil {
			return r.fail(sum, err)
		}
		r.log.Successf("browsing finished: %d visited, %d satisfied, %d failed",
			sum.TopicsVisited, sum.TopicsSatisfied, sum.TopicsFailed)
	}

	if err := ctx.Err(); err != nil {
		return r.fail(sum, err)
	}

	r.notify(ctx, sum)
	r.finish(sum)
	return sum, nil
}

// Connect logs in and returns the connect page rows.
func (r *Runner) Connect(ctx context.Context) ([]forum.ConnectRow, error) {
	if err := r.deps.Session.Login(ctx, r.cfg.Username, r.cfg.Password); err != nil {
		return nil, err
	}
	return r.deps.Session.ConnectInfo(ctx)
}

func (r *Runner) login(ctx context.Context, sum *Summary) {
	if err := r.deps.Session.Login(ctx, r.cfg.Username, r.cfg.Password); err != nil {
		r.log.Warnf("login failed, later steps may not work: %v", err)
		sum.LoginError = err.Error()
		return
	}
	sum.LoginOK = true

	rows, err := r.deps.Session.ConnectInfo(ctx)
	if err != nil {
		r.log.Warnf("connect info unavailable: %v", err)
		return
	}
	sum.Connect = rows
	r.log.Infof("connect info:\n%s", forum.RenderConnect(rows))
}

func (r *Runner) launchOptions() browser.LaunchOptions {
	opts := browser.DefaultLaunchOptions()
	opts.Headless = r.cfg.Browser.Headless
	opts.UserAgent = r.cfg.Browser.UserAgent
	opts.Viewport = browser.Viewport{Width: r.cfg.Browser.ViewportWidth, Height: r.cfg.Browser.ViewportHeight}
	if r.cfg.Browser.NavigationTimeout > 0 {
		opts.Timeout = r.cfg.Browser.NavigationTimeout
	}
	return opts
}

func (r *Runner) browse(ctx context.Context, sum *Summary) error {
	if err := r.deps.Browser.Start(r.launchOptions()); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	if sum.LoginOK {
		cookies := r.deps.Session.BrowserCookies()
		if err := r.deps.Browser.AddCookies(cookies); err != nil {
			r.log.Warnf("failed to copy session cookies: %v", err)
		} else {
			r.log.Debugf("copied %d session cookies to the browser", len(cookies))
		}
	}

	nav := browser.NavigateOptions{Timeout: r.cfg.Browser.NavigationTimeout}
	topicLog := r.log.With("topics")

	discoverer, err := forum.NewDiscoverer(r.cfg.BaseURL, forum.TopicOptions{
		MaxTopics: r.cfg.MaxTopics,
		Exclude:   r.cfg.TopicExclude,
		Navigate:  nav,
	}, r.deps.Clock, r.deps.Rand, topicLog)
	if err != nil {
		return err
	}

	list, err := r.deps.Browser.Open()
	if err != nil {
		return fmt.Errorf("failed to open topic list tab: %w", err)
	}
	defer list.Close()

	topics, err := discoverer.Discover(ctx, list)
	if err != nil {
		return fmt.Errorf("topic discovery failed: %w", err)
	}
	sum.TopicsFound = len(topics)

	pacingLog := r.log.With("pacing")
	tracker := pacing.NewTracker(r.cfg.Pacing, r.cfg.Locators, r.deps.Clock, r.deps.Rand, pacingLog)

	visitLog := r.log.With("visit")
	opts := forum.DefaultVisitOptions()
	opts.MinPages = r.cfg.MinPages
	opts.MaxPages = r.cfg.MaxPages
	opts.LikeProbability = r.cfg.LikeProbability
	opts.Navigate = nav
	opts.ReadyTimeout = r.cfg.Pacing.ReadyTimeout

	visitor := forum.NewVisitor(r.deps.Browser.Open, tracker,
		forum.NewLiker(r.deps.Clock, r.deps.Rand, visitLog), opts, r.deps.Clock, r.deps.Rand, visitLog)

	stats := visitor.VisitAll(ctx, topics)
	sum.TopicsVisited = stats.Visited
	sum.TopicsSatisfied = stats.Satisfied
	sum.TopicsFailed = stats.Failed
	return ctx.Err()
}

func (r *Runner) notify(ctx context.Context, sum *Summary) {
	if r.deps.Notifier == nil {
		return
	}
	msg := notify.StatusMessage(r.cfg.Username, r.cfg.BrowseEnabled, r.cfg.MinPages, r.cfg.MaxPages)
	if err := r.deps.Notifier.Send(ctx, notify.Title, msg); err != nil {
		r.log.Warnf("some notifications failed: %v", err)
		sum.NotifyError = err.Error()
	}
}

func (r *Runner) finish(sum *Summary) {
	sum.EndTime = r.deps.Clock.Now()
	sum.Duration = sum.EndTime.Sub(sum.StartTime)
	switch {
	case !sum.LoginOK || sum.TopicsFailed > 0:
		sum.Status = statusPartialSuccess
	default:
		sum.Status = statusSuccess
	}
	r.log.Successf("run finished in %s (%s)", sum.Duration.Round(time.Millisecond), sum.Status)
}

func (r *Runner) fail(sum *Summary, err error) (*Summary, error) {
	sum.EndTime = r.deps.Clock.Now()
	sum.Duration = sum.EndTime.Sub(sum.StartTime)
	sum.Status = statusFailed
	sum.Error = err.Error()
	r.log.Errorf("run failed: %v", err)
	return sum, err
}
