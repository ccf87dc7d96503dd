package forum

import (
	"context"

	"github.com/entrhq/forumwalk/pkg/browser"
	"github.com/entrhq/forumwalk/pkg/pacing"
)

// Page is a browser tab as seen by the forum walkers. *browser.Tab
// satisfies it.
type Page interface {
	pacing.Surface

	URL() string
	Navigate(ctx context.Context, url string, opts browser.NavigateOptions) error
	Hrefs(ctx context.Context, selector string) ([]string, error)
	Click(ctx context.Context, selector string) (bool, error)
	HTML() (string, error)
	Close() error
}

var _ Page = (*browser.Tab)(nil)

// Opener opens a fresh tab. The caller closes it.
type Opener func() (Page, error)
