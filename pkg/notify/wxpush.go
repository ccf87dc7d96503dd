package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// WxPush pushes to a wxpush relay.
type WxPush struct {
	URL    string
	Token  string
	Client *http.Client
}

// NewWxPush returns a WxPush notifier.
func NewWxPush(serverURL, token string) *WxPush {
	return &WxPush{URL: serverURL, Token: token}
}

func (w *WxPush) Name() string { return "wxpush" }

// Send posts the message to {url}/wxsend.
func (w *WxPush) Send(ctx context.Context, title, message string) error {
	payload, err := json.Marshal(map[string]string{
		"title":   title,
		"content": message,
	})
	if err != nil {
		return fmt.Errorf("failed to encode wxpush payload: %w", err)
	}

	endpoint := strings.TrimRight(w.URL, "/") + "/wxsend"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create wxpush request: %w", err)
	}
	req.Header.Set("Authorization", w.Token)
	req.Header.Set("Content-Type", "application/json")

	_, err = do(defaultClient(w.Client), w.Name(), req)
	return err
}
