// Package forum talks to a Discourse forum: it establishes a logged-in
// session over HTTP, discovers topics in the browser and walks through
// them with the pacing tracker.
package forum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/entrhq/forumwalk/pkg/browser"
	"golang.org/x/net/publicsuffix"
)

var (
	// ErrCSRF is returned when the CSRF token cannot be obtained.
	ErrCSRF = errors.New("csrf token unavailable")

	// ErrLogin is returned when the forum rejects the credentials or
	// answers with something other than JSON.
	ErrLogin = errors.New("login failed")
)

const (
	htmlAccept     = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	apiAccept      = "application/json, text/javascript, */*; q=0.01"
	acceptLanguage = "zh-CN,zh;q=0.9"
	loginTimezone  = "Asia/Shanghai"

	// bodyHeadLength bounds how much of an unexpected response is logged.
	bodyHeadLength = 200
)

// Logger is the logging surface used by this package.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Successf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})   {}
func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Successf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})    {}
func (nopLogger) Errorf(string, ...interface{})   {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration

	// ConnectURL overrides the connect page, which defaults to
	// https://connect.<host>/.
	ConnectURL string

	// Transport overrides the HTTP transport.
	Transport http.RoundTripper

	Log Logger
}

// Client holds the HTTP session with the forum.
type Client struct {
	base       *url.URL
	connectURL string
	userAgent  string
	http       *http.Client
	jar        http.CookieJar
	log        Logger
}

// NewClient creates a client for the forum rooted at baseURL.
func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = browser.DefaultUserAgent()
	}
	connectURL := opts.ConnectURL
	if connectURL == "" {
		connectURL = fmt.Sprintf("https://connect.%s/", base.Hostname())
	}

	return &Client{
		base:       base,
		connectURL: connectURL,
		userAgent:  opts.UserAgent,
		http: &http.Client{
			Jar:       jar,
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		jar: jar,
		log: orNop(opts.Log),
	}, nil
}

// BaseURL returns the forum root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

func (c *Client) htmlHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", htmlAccept)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Referer", c.endpoint("/"))
}

func (c *Client) apiHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", apiAccept)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.endpoint("/login"))
	req.Header.Set("Origin", c.base.Scheme+"://"+c.base.Host)
}

// Login establishes an authenticated session: it visits the home page for
// cookies, fetches a CSRF token and posts the credentials.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.log.Infof("logging in as %s", username)

	token, err := c.csrfToken(ctx)
	if err != nil {
		return err
	}

	form := url.Values{
		"login":    {username},
		"password": {password},
		"timezone": {loginTimezone},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/session"), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	c.apiHeaders(req)
	req.Header.Set("X-CSRF-Token", token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", ErrLogin, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrLogin, err)
	}
	c.log.Debugf("LOGIN: status=%d ct=%s", resp.StatusCode, resp.Header.Get("Content-Type"))

	if !isJSON(resp) {
		return fmt.Errorf("%w: response is not JSON (status %d): %s", ErrLogin, resp.StatusCode, head(body))
	}

	var result struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrLogin, err)
	}
	if result.Error != "" {
		return fmt.Errorf("%w: %s", ErrLogin, result.Error)
	}

	c.log.Successf("logged in as %s", username)
	return nil
}

func (c *Client) csrfToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/"), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create home request: %w", err)
	}
	c.htmlHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: home page request failed: %v", ErrCSRF, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	c.log.Debugf("HOME: status=%d ct=%s", resp.StatusCode, resp.Header.Get("Content-Type"))

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/session/csrf"), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create csrf request: %w", err)
	}
	c.apiHeaders(req)
	resp, err = c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", ErrCSRF, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrCSRF, err)
	}
	c.log.Debugf("CSRF: status=%d ct=%s", resp.StatusCode, resp.Header.Get("Content-Type"))

	if resp.StatusCode != http.StatusOK || !isJSON(resp) {
		return "", fmt.Errorf("%w: status=%d ct=%s head=%s", ErrCSRF, resp.StatusCode, resp.Header.Get("Content-Type"), head(body))
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrCSRF, err)
	}
	token, _ := data["csrf"].(string)
	if token == "" {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		return "", fmt.Errorf("%w: response has no csrf field (keys: %v)", ErrCSRF, keys)
	}
	return token, nil
}

// BrowserCookies exports the session cookies for the browser context,
// scoped to every subdomain of the forum host.
func (c *Client) BrowserCookies() []browser.Cookie {
	cookies := c.jar.Cookies(c.base)
	out := make([]browser.Cookie, 0, len(cookies))
	domain := "." + c.base.Hostname()
	for _, ck := range cookies {
		out = append(out, browser.Cookie{
			Name:   ck.Name,
			Value:  ck.Value,
			Domain: domain,
			Path:   "/",
		})
	}
	return out
}

func isJSON(resp *http.Response) bool {
	return strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/json")
}

func head(body []byte) string {
	if len(body) > bodyHeadLength {
		body = body[:bodyHeadLength]
	}
	return string(body)
}
