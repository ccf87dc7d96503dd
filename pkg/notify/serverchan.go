package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/entrhq/forumwalk/pkg/retry"
)

var serverChanKey = regexp.MustCompile(`(?i)^sct(\d+)t`)

// ServerChan pushes through ServerChan³. The push host is derived from the
// uid embedded in the key.
type ServerChan struct {
	Key string

	// BaseURL overrides https://<uid>.push.ft07.com.
	BaseURL string

	// Retry applies to every Send. Defaults to 5 attempts 180-360s apart.
	Retry retry.Options

	Client *http.Client

	uid string
}

// NewServerChan validates key and returns a notifier for it.
func NewServerChan(key string) (*ServerChan, error) {
	m := serverChanKey.FindStringSubmatch(key)
	if m == nil {
		return nil, fmt.Errorf("%w: no uid in key", ErrBadKey)
	}
	return &ServerChan{
		Key: key,
		Retry: retry.Options{
			Attempts: 5,
			MinDelay: 180 * time.Second,
			MaxDelay: 360 * time.Second,
		},
		uid: m[1],
	}, nil
}

func (s *ServerChan) Name() string { return "serverchan" }

// UID returns the uid parsed from the key.
func (s *ServerChan) UID() string { return s.uid }

func (s *ServerChan) endpoint(title, message string) string {
	base := s.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.push.ft07.com", s.uid)
	}
	q := url.Values{"title": {title}, "desp": {message}}
	return strings.TrimRight(base, "/") + "/send/" + url.PathEscape(s.Key) + "?" + q.Encode()
}

// Send issues the push, retrying failures with a long randomized delay.
func (s *ServerChan) Send(ctx context.Context, title, message string) error {
	client := defaultClient(s.Client)
	return retry.Run(ctx, s.Name(), s.Retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(title, message), nil)
		if err != nil {
			return fmt.Errorf("failed to create serverchan request: %w", err)
		}
		_, err = do(client, s.Name(), req)
		return err
	})
}
