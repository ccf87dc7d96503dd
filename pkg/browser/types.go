package browser

import (
	"fmt"
	"runtime"
	"time"
)

// LaunchOptions configures the browser and its context.
type LaunchOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// UserAgent overrides the context user agent; empty uses DefaultUserAgent
	UserAgent string

	// Viewport sets the context viewport size
	Viewport Viewport

	// Locale sets navigator.language and Accept-Language
	Locale string

	// Timeout is the default timeout of page operations
	Timeout time.Duration

	// Args are extra Chromium command line switches
	Args []string
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle", "commit"
	WaitUntil string

	// Timeout of the navigation (0 means the context default)
	Timeout time.Duration
}

// Cookie is a cookie to install in the browser context.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Default values for various operations
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 900
	DefaultLocale         = "zh-CN"
	DefaultWaitUntil      = "domcontentloaded"
)

// DefaultLaunchOptions returns headless Chromium with the default viewport.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		Headless: true,
		Viewport: Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
		Locale:   DefaultLocale,
		Timeout:  DefaultTimeout,
		Args:     []string{"--no-sandbox"},
	}
}

// DefaultUserAgent returns a desktop Chrome user agent for the host
// platform.
func DefaultUserAgent() string {
	return userAgentFor(runtime.GOOS)
}

func userAgentFor(goos string) string {
	platform := "X11; Linux x86_64"
	switch goos {
	case "darwin":
		platform = "Macintosh; Intel Mac OS X 10_15_7"
	case "windows":
		platform = "Windows NT 10.0; Win64; x64"
	}
	return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36", platform)
}

func (o LaunchOptions) withDefaults() LaunchOptions {
	if o.Viewport.Width == 0 || o.Viewport.Height == 0 {
		o.Viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent()
	}
	if o.Locale == "" {
		o.Locale = DefaultLocale
	}
	return o
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
