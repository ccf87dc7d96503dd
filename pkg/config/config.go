// Package config loads forumwalk settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/entrhq/forumwalk/pkg/logging"
	"github.com/entrhq/forumwalk/pkg/pacing"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation and parse error.
var ErrInvalid = errors.New("invalid configuration")

// ErrMissingCredentials reports that no username or password was supplied.
var ErrMissingCredentials = fmt.Errorf("%w: username and password are required", ErrInvalid)

// Config is the complete run configuration.
type Config struct {
	// BaseURL is the forum root, e.g. https://linux.do
	BaseURL string `yaml:"base_url" json:"base_url"`

	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`

	// BrowseEnabled turns topic browsing on; login and notifications
	// always run.
	BrowseEnabled bool `yaml:"browse_enabled" json:"browse_enabled"`

	// Every visited topic draws a page target from [MinPages, MaxPages].
	MinPages int `yaml:"min_pages" json:"min_pages"`
	MaxPages int `yaml:"max_pages" json:"max_pages"`

	// MaxTopics caps how many topics are sampled from the list.
	MaxTopics int `yaml:"max_topics" json:"max_topics"`

	// LikeProbability is the chance of reacting to a visited topic.
	LikeProbability float64 `yaml:"like_probability" json:"like_probability"`

	// TopicExclude holds glob patterns matched against topic URLs.
	TopicExclude []string `yaml:"topic_exclude" json:"topic_exclude"`

	// Seed feeds the random source; 0 seeds from the clock.
	Seed int64 `yaml:"seed" json:"seed"`

	Browser  BrowserConfig   `yaml:"browser" json:"browser"`
	Pacing   pacing.Pacing   `yaml:"pacing" json:"pacing"`
	Locators pacing.Locators `yaml:"locators" json:"locators"`
	Notify   NotifyConfig    `yaml:"notify" json:"notify"`
	Logging  LoggingConfig   `yaml:"logging" json:"logging"`

	// SummaryDir receives run.json and summary.md after each run; empty
	// disables the artifacts.
	SummaryDir string `yaml:"summary_dir" json:"summary_dir"`
}

// BrowserConfig configures the Chromium instance.
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	ViewportWidth     int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height" json:"viewport_height"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
}

// NotifyConfig holds the credentials of each notification channel.
// A channel with any empty field is skipped.
type NotifyConfig struct {
	GotifyURL     string `yaml:"gotify_url" json:"gotify_url"`
	GotifyToken   string `yaml:"gotify_token" json:"-"`
	ServerChanKey string `yaml:"serverchan_key" json:"-"`
	WxPushURL     string `yaml:"wxpush_url" json:"wxpush_url"`
	WxPushToken   string `yaml:"wxpush_token" json:"-"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of quiet, normal, verbose, debug.
	Level string `yaml:"level" json:"level"`

	// Dir receives the per-run log file; empty disables file logging.
	Dir string `yaml:"dir" json:"dir"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		BaseURL:         "https://linux.do",
		BrowseEnabled:   true,
		MinPages:        5,
		MaxPages:        10,
		MaxTopics:       50,
		LikeProbability: 0.3,
		Browser: BrowserConfig{
			Headless:          true,
			ViewportWidth:     1280,
			ViewportHeight:    900,
			NavigationTimeout: 60 * time.Second,
		},
		Pacing:   pacing.DefaultPacing(),
		Locators: pacing.DefaultLocators(),
		Logging: LoggingConfig{
			Level: "normal",
		},
	}
}

// Load reads a YAML file over the defaults. Fields absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file %s: %v", ErrInvalid, path, err)
	}
	return cfg, nil
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base_url must be an absolute http(s) URL, got %q", ErrInvalid, c.BaseURL)
	}

	if c.MinPages < 0 {
		return fmt.Errorf("%w: min_pages cannot be negative", ErrInvalid)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("%w: max_pages cannot be negative", ErrInvalid)
	}
	if c.MaxTopics < 0 {
		return fmt.Errorf("%w: max_topics cannot be negative", ErrInvalid)
	}
	if c.LikeProbability < 0 || c.LikeProbability > 1 {
		return fmt.Errorf("%w: like_probability must be between 0 and 1", ErrInvalid)
	}

	p := c.Pacing
	if p.GrowthThreshold < 1 {
		return fmt.Errorf("%w: growth_threshold must be at least 1", ErrInvalid)
	}
	if p.ShortThreadSlack < 0 {
		return fmt.Errorf("%w: short_thread_slack cannot be negative", ErrInvalid)
	}
	if p.LoopFactor < 1 || p.LoopBase < 0 {
		return fmt.Errorf("%w: loop_factor must be at least 1 and loop_base non-negative", ErrInvalid)
	}
	if p.ScrollMin < 1 || p.ScrollMax < p.ScrollMin {
		return fmt.Errorf("%w: scroll range %d-%d is invalid", ErrInvalid, p.ScrollMin, p.ScrollMax)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	c.Locators = c.Locators.WithDefaults()
	return nil
}

// Host returns the host part of BaseURL.
func (c *Config) Host() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
