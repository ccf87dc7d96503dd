package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/entrhq/forumwalk/pkg/config"
	"github.com/entrhq/forumwalk/pkg/retry"
	"golang.org/x/sync/errgroup"
)

// Dispatcher fans a message out to several notifiers.
type Dispatcher struct {
	notifiers []Notifier
	log       Logger
}

// NewDispatcher returns a dispatcher over notifiers.
func NewDispatcher(log Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, log: orNop(log)}
}

// FromConfig builds a dispatcher with every fully configured channel.
// Incomplete channels are skipped with an info line; a malformed
// ServerChan key is logged as an error and skipped.
func FromConfig(cfg config.NotifyConfig, client *http.Client, retryOpts retry.Options, log Logger) *Dispatcher {
	log = orNop(log)
	var notifiers []Notifier

	if cfg.GotifyURL != "" && cfg.GotifyToken != "" {
		g := NewGotify(cfg.GotifyURL, cfg.GotifyToken)
		g.Client = client
		notifiers = append(notifiers, g)
	} else {
		log.Infof("gotify not configured, skipping")
	}

	if cfg.ServerChanKey != "" {
		sc, err := NewServerChan(cfg.ServerChanKey)
		if err != nil {
			log.Errorf("serverchan disabled: %v", err)
		} else {
			sc.Client = client
			sc.Retry.Clock = retryOpts.Clock
			sc.Retry.Rand = retryOpts.Rand
			sc.Retry.Log = retryOpts.Log
			notifiers = append(notifiers, sc)
		}
	}

	if cfg.WxPushURL != "" && cfg.WxPushToken != "" {
		w := NewWxPush(cfg.WxPushURL, cfg.WxPushToken)
		w.Client = client
		notifiers = append(notifiers, w)
	} else {
		log.Infof("wxpush not configured, skipping")
	}

	return NewDispatcher(log, notifiers...)
}

// Channels returns the names of the configured notifiers.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.notifiers))
	for i, n := range d.notifiers {
		names[i] = n.Name()
	}
	return names
}

// Send delivers the message on every channel concurrently and returns the
// joined failures.
func (d *Dispatcher) Send(ctx context.Context, title, message string) error {
	errs := make([]error, len(d.notifiers))
	var g errgroup.Group
	for i, n := range d.notifiers {
		g.Go(func() error {
			if err := n.Send(ctx, title, message); err != nil {
				d.log.Errorf("%s push failed: %v", n.Name(), err)
				errs[i] = fmt.Errorf("%s: %w", n.Name(), err)
				return errs[i]
			}
			d.log.Successf("%s push sent", n.Name())
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
