// Package notify pushes the run status to the configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrBadKey is returned for a ServerChan key without a recognizable uid.
var ErrBadKey = errors.New("malformed serverchan key")

// Title is the title of every status message.
const Title = "LINUX DO"

// DefaultTimeout bounds each push request.
const DefaultTimeout = 10 * time.Second

// Notifier delivers one message over one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, title, message string) error
}

// Logger is the logging surface used by this package.
type Logger interface {
	Infof(format string, args ...interface{})
	Successf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

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

// StatusError reports a non-2xx answer from a push service.
type StatusError struct {
	Channel string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Channel, e.Code, e.Body)
}

// StatusMessage builds the daily status line.
func StatusMessage(username string, browsed bool, minPages, maxPages int) string {
	msg := fmt.Sprintf("✅每日登录成功: %s", username)
	if browsed {
		msg += fmt.Sprintf(" + 浏览任务完成(含评论%d-%d页)", minPages, maxPages)
	}
	return msg
}

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// do sends req and returns the body of a 2xx response.
func do(client *http.Client, channel string, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", channel, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("%s: failed to read response: %w", channel, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Channel: channel, Code: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}
