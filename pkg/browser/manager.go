package browser

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// ErrNotLaunched is returned by operations that need a running browser.
var ErrNotLaunched = errors.New("browser not launched")

// Logger is the logging surface used by this package.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Manager owns the Playwright driver, the browser, one context, and the
// tabs opened from it.
type Manager struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	home        *Tab
	tabs        map[*Tab]struct{}
	opts        LaunchOptions
	initialized bool
	log         Logger
}

// NewManager creates a manager. It does nothing until Initialize.
func NewManager(log Logger) *Manager {
	if log == nil {
		log = nopLogger{}
	}
	return &Manager{
		tabs: make(map[*Tab]struct{}),
		log:  log,
	}
}

// Initialize installs Chromium if needed and starts the Playwright driver.
// Calling it again is a no-op.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// discard driver output so it does not interleave with our log
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// Launch starts Chromium and creates the browsing context and home tab.
func (m *Manager) Launch(opts LaunchOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return fmt.Errorf("browser manager not initialized")
	}
	if m.browser != nil {
		return fmt.Errorf("browser already launched")
	}
	opts = opts.withDefaults()

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args:     opts.Args,
	}
	browser, err := m.playwright.Chromium.Launch(launchOpts)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(opts.UserAgent),
		Locale:    playwright.String(opts.Locale),
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	}
	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return fmt.Errorf("failed to create context: %w", err)
	}
	bctx.SetDefaultTimeout(millis(opts.Timeout))

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return fmt.Errorf("failed to create page: %w", err)
	}

	m.browser = browser
	m.context = bctx
	m.opts = opts
	m.home = newTab(m, page)
	m.log.Debugf("launched chromium (headless=%v, viewport=%dx%d)", opts.Headless, opts.Viewport.Width, opts.Viewport.Height)
	return nil
}

// Home returns the tab created by Launch.
func (m *Manager) Home() (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.home == nil {
		return nil, ErrNotLaunched
	}
	return m.home, nil
}

// AddCookies installs cookies in the browsing context.
func (m *Manager) AddCookies(cookies []Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.context == nil {
		return ErrNotLaunched
	}
	if err := m.context.AddCookies(toPlaywrightCookies(cookies)); err != nil {
		return fmt.Errorf("failed to add cookies: %w", err)
	}
	return nil
}

func toPlaywrightCookies(cookies []Cookie) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		out = append(out, playwright.OptionalCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: playwright.String(c.Domain),
			Path:   playwright.String(path),
		})
	}
	return out
}

// NewTab opens a tab in the browsing context. The caller must Close it.
func (m *Manager) NewTab() (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.context == nil {
		return nil, ErrNotLaunched
	}
	page, err := m.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	tab := newTab(m, page)
	m.tabs[tab] = struct{}{}
	return tab, nil
}

// OpenTabs returns how many tabs besides the home tab are open.
func (m *Manager) OpenTabs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tabs)
}

func (m *Manager) forget(t *Tab) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tabs, t)
}

// Shutdown closes all tabs, the context and the browser, and stops the
// Playwright driver.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for tab := range m.tabs {
		_ = tab.page.Close() // ignore errors, continue cleanup
		delete(m.tabs, tab)
	}
	if m.context != nil {
		if err := m.context.Close(); err != nil {
			errs = append(errs, err)
		}
		m.context = nil
	}
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		m.browser = nil
	}
	m.home = nil

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		m.initialized = false
	}

	return errors.Join(errs...)
}
