package config

import (
	"fmt"
	"strconv"
	"strings"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from environment variables. It reports the
// first variable that fails to parse.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}

	if v, ok := get("LINUXDO_USERNAME", "USERNAME"); ok {
		c.Username = v
	}
	if v, ok := get("LINUXDO_PASSWORD", "PASSWORD"); ok {
		c.Password = v
	}
	if v, ok := get("BASE_URL"); ok {
		c.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := get("BROWSE_ENABLED"); ok {
		c.BrowseEnabled = parseSwitch(v)
	}
	if v, ok := get("HEADLESS"); ok {
		c.Browser.Headless = parseSwitch(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MIN_COMMENT_PAGES", &c.MinPages},
		{"MAX_COMMENT_PAGES", &c.MaxPages},
		{"MAX_TOPICS", &c.MaxTopics},
		{"GROWTH_THRESHOLD", &c.Pacing.GrowthThreshold},
		{"SHORT_THREAD_SLACK", &c.Pacing.ShortThreadSlack},
	}
	for _, f := range ints {
		v, ok := get(f.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, f.key, v)
		}
		*f.dst = n
	}

	if v, ok := get("LIKE_PROBABILITY"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: LIKE_PROBABILITY=%q is not a number", ErrInvalid, v)
		}
		c.LikeProbability = f
	}
	if v, ok := get("RANDOM_SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: RANDOM_SEED=%q is not an integer", ErrInvalid, v)
		}
		c.Seed = n
	}

	if v, ok := get("CONTENT_ANCHOR_SELECTORS"); ok {
		c.Locators.ContentAnchors = splitList(v)
	}
	if v, ok := get("POSITION_SELECTORS"); ok {
		c.Locators.PositionIndicators = splitList(v)
	}
	if v, ok := get("REPLY_ITEM_SELECTORS"); ok {
		c.Locators.ReplyItems = splitList(v)
	}
	if v, ok := get("TOPIC_EXCLUDE"); ok {
		c.TopicExclude = splitList(v)
	}

	if v, ok := get("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := get("LOG_DIR"); ok {
		c.Logging.Dir = v
	}

	if v, ok := get("SUMMARY_DIR"); ok {
		c.SummaryDir = v
	}

	if v, ok := get("GOTIFY_URL"); ok {
		c.Notify.GotifyURL = v
	}
	if v, ok := get("GOTIFY_TOKEN"); ok {
		c.Notify.GotifyToken = v
	}
	if v, ok := get("SC3_PUSH_KEY"); ok {
		c.Notify.ServerChanKey = v
	}
	if v, ok := get("WXPUSH_URL"); ok {
		c.Notify.WxPushURL = v
	}
	if v, ok := get("WXPUSH_TOKEN"); ok {
		c.Notify.WxPushToken = v
	}
	return nil
}

// parseSwitch treats false, 0 and off as disabled and anything else as
// enabled.
func parseSwitch(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0", "off":
		return false
	}
	return true
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
