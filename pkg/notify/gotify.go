package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Gotify pushes to a Gotify server.
type Gotify struct {
	URL      string
	Token    string
	Priority int
	Client   *http.Client
}

// NewGotify returns a Gotify notifier with priority 1.
func NewGotify(serverURL, token string) *Gotify {
	return &Gotify{URL: serverURL, Token: token, Priority: 1}
}

func (g *Gotify) Name() string { return "gotify" }

// Send posts the message to {url}/message.
func (g *Gotify) Send(ctx context.Context, title, message string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"title":    title,
		"message":  message,
		"priority": g.Priority,
	})
	if err != nil {
		return fmt.Errorf("failed to encode gotify payload: %w", err)
	}

	endpoint := strings.TrimRight(g.URL, "/") + "/message?" + url.Values{"token": {g.Token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create gotify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = do(defaultClient(g.Client), g.Name(), req)
	return err
}
