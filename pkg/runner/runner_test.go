package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/entrhq/forumwalk/pkg/config"
	"github.com/entrhq/forumwalk/pkg/forum"
	"github.com/entrhq/forumwalk/pkg/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	cfg      *config.Config
	session  *fakeSession
	browser  *fakeBrowser
	notifier *recordingNotifier
	clock    *timing.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Username = "alice"
	cfg.Password = "s3cret"
	cfg.MinPages = 2
	cfg.MaxPages = 3
	cfg.LikeProbability = 0
	require.NoError(t, cfg.Validate())

	return &fixture{
		cfg: cfg,
		session: &fakeSession{rows: []forum.ConnectRow{
			{Project: "访问次数", Current: "10", Requirement: "50"},
		}},
		browser:  &fakeBrowser{hrefs: []string{"/t/a/1", "/t/b/2"}},
		notifier: &recordingNotifier{},
		clock:    timing.NewFakeClock(epoch),
	}
}

func (f *fixture) runner() *Runner {
	return New(f.cfg, Deps{
		Session:  f.session,
		Browser:  f.browser,
		Notifier: f.notifier,
		Clock:    f.clock,
		Rand:     timing.FixedRand{},
	}, nil)
}

func TestRunner_Success(t *testing.T) {
	f := newFixture(t)

	sum, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, statusSuccess, sum.Status)
	assert.True(t, sum.LoginOK)
	assert.Len(t, sum.Connect, 1)
	assert.Equal(t, 2, sum.TopicsFound)
	assert.Equal(t, 2, sum.TopicsVisited)
	assert.Equal(t, 2, sum.TopicsSatisfied)
	assert.Equal(t, 0, sum.TopicsFailed)
	assert.Greater(t, sum.Duration, time.Duration(0))

	assert.True(t, f.browser.opts.Headless)
	assert.Len(t, f.browser.cookies, 1)
	assert.Equal(t, 1, f.browser.shutdown)
	require.Len(t, f.browser.pages, 3)
	for _, p := range f.browser.pages {
		assert.True(t, p.closed)
	}
	assert.Equal(t, "https://linux.do/latest", f.browser.pages[0].url)

	assert.Equal(t, "LINUX DO", f.notifier.title)
	assert.Equal(t, []string{"✅每日登录成功: alice + 浏览任务完成(含评论2-3页)"}, f.notifier.messages)
}

func TestRunner_LoginFailureContinues(t *testing.T) {
	f := newFixture(t)
	f.session.loginErr = forum.ErrLogin

	sum, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	assert.False(t, sum.LoginOK)
	assert.Contains(t, sum.LoginError, "login failed")
	assert.Empty(t, sum.Connect)
	assert.Empty(t, f.browser.cookies)
	assert.Equal(t, 2, sum.TopicsVisited)
	assert.Equal(t, statusPartialSuccess, sum.Status)
	assert.Len(t, f.notifier.messages, 1)
}

func TestRunner_ConnectFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	f.session.connectErr = errors.New("connect page unavailable")

	sum, err := f.runner().Run(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.LoginOK)
	assert.Empty(t, sum.Connect)
	assert.Equal(t, statusSuccess, sum.Status)
}

func TestRunner_DiscoveryFailureSkipsNotification(t *testing.T) {
	f := newFixture(t)
	f.browser.hrefs = nil

	sum, err := f.runner().Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, forum.ErrNoTopics)
	assert.Equal(t, statusFailed, sum.Status)
	assert.Contains(t, sum.Error, "topic discovery failed")
	assert.Empty(t, f.notifier.messages)
	assert.Equal(t, 1, f.browser.shutdown)
}

func TestRunner_BrowserStartFailure(t *testing.T) {
	f := newFixture(t)
	f.browser.startErr = errors.New("chromium missing")

	_, err := f.runner().Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chromium missing")
	assert.Empty(t, f.notifier.messages)
	assert.Equal(t, 1, f.browser.shutdown)
}

func TestRunner_BrowseDisabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.BrowseEnabled = false

	sum, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	assert.False(t, f.browser.started)
	assert.Equal(t, 0, sum.TopicsFound)
	assert.Equal(t, []string{"✅每日登录成功: alice"}, f.notifier.messages)
}

func TestRunner_TopicFailureIsCounted(t *testing.T) {
	f := newFixture(t)
	f.browser.failURL = "https://linux.do/t/b/2"

	sum, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.TopicsFound)
	assert.Equal(t, 1, sum.TopicsVisited)
	assert.Equal(t, 1, sum.TopicsFailed)
	assert.Equal(t, statusPartialSuccess, sum.Status)
	assert.Len(t, f.notifier.messages, 1)
}

func TestRunner_NotificationFailureDoesNotFailRun(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("gotify: status 500")

	sum, err := f.runner().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gotify: status 500", sum.NotifyError)
	assert.Equal(t, statusSuccess, sum.Status, "notify errors leave the status alone")
}

func TestRunner_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := f.runner().Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, statusFailed, sum.Status)
	assert.Empty(t, f.notifier.messages)
}

func TestRunner_Connect(t *testing.T) {
	f := newFixture(t)

	rows, err := f.runner().Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.session.rows, rows)

	f.session.loginErr = forum.ErrCSRF
	_, err = f.runner().Connect(context.Background())
	assert.ErrorIs(t, err, forum.ErrCSRF)
}

func TestRunner_LaunchOptions(t *testing.T) {
	f := newFixture(t)
	f.cfg.Browser.Headless = false
	f.cfg.Browser.UserAgent = "custom"
	f.cfg.Browser.ViewportWidth = 1024
	f.cfg.Browser.ViewportHeight = 768

	opts := f.runner().launchOptions()
	assert.False(t, opts.Headless)
	assert.Equal(t, "custom", opts.UserAgent)
	assert.Equal(t, 1024, opts.Viewport.Width)
	assert.Equal(t, 768, opts.Viewport.Height)
	assert.Equal(t, 60*time.Second, opts.Timeout)
	assert.Contains(t, opts.Args, "--no-sandbox")
}
