package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/entrhq/forumwalk/pkg/pacing"
	"github.com/playwright-community/playwright-go"
)

// Page scripts. Each takes at most one argument and returns JSON-able
// primitives.
const (
	elementScript = `sel => {
  const el = document.querySelector(sel);
  if (!el) return {exists: false, visible: false, text: ""};
  const r = el.getBoundingClientRect();
  const st = window.getComputedStyle(el);
  const visible = r.width > 0 && r.height > 0 &&
    st.display !== "none" && st.visibility !== "hidden" && st.opacity !== "0";
  return {exists: true, visible: visible, text: el.innerText || el.textContent || ""};
}`

	countScript = `sel => document.querySelectorAll(sel).length`

	metricsScript = `() => ({
  scrollY: window.scrollY,
  viewportHeight: window.innerHeight,
  scrollHeight: Math.max(
    document.body ? document.body.scrollHeight : 0,
    document.documentElement ? document.documentElement.scrollHeight : 0),
})`

	scrollScript = `dy => window.scrollBy(0, dy)`

	hrefsScript = `sel => Array.from(document.querySelectorAll(sel)).map(a => a.getAttribute("href") || "")`
)

// Tab is one browser page. It implements pacing.Surface.
type Tab struct {
	manager   *Manager
	page      playwright.Page
	closeOnce sync.Once
}

var _ pacing.Surface = (*Tab)(nil)

func newTab(m *Manager, page playwright.Page) *Tab {
	return &Tab{manager: m, page: page}
}

// URL returns the current page URL.
func (t *Tab) URL() string {
	return t.page.URL()
}

// Navigate loads url in the tab.
func (t *Tab) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if opts.WaitUntil == "" {
		opts.WaitUntil = DefaultWaitUntil
	}
	waitUntil := playwright.WaitUntilState(opts.WaitUntil)
	playwrightOpts := playwright.PageGotoOptions{WaitUntil: &waitUntil}
	if opts.Timeout > 0 {
		playwrightOpts.Timeout = playwright.Float(millis(opts.Timeout))
	}

	if _, err := t.page.Goto(url, playwrightOpts); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Eval evaluates a script in the page and returns its primitive result.
func (t *Tab) Eval(ctx context.Context, script string, arg ...interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := t.page.Evaluate(script, arg...)
	if err != nil {
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}
	return v, nil
}

// ScrollBy scrolls with the mouse wheel, falling back to window.scrollBy.
func (t *Tab) ScrollBy(ctx context.Context, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.page.Mouse().Wheel(0, float64(dy)); err == nil {
		return nil
	}
	_, err := t.Eval(ctx, scrollScript, dy)
	return err
}

// Element reports the state of the first node matching selector.
func (t *Tab) Element(ctx context.Context, selector string) (pacing.Element, error) {
	v, err := t.Eval(ctx, elementScript, selector)
	if err != nil {
		return pacing.Element{}, err
	}
	return decodeElement(v), nil
}

// Count returns the number of nodes matching selector.
func (t *Tab) Count(ctx context.Context, selector string) (int, error) {
	v, err := t.Eval(ctx, countScript, selector)
	if err != nil {
		return 0, err
	}
	return int(toFloat(v)), nil
}

// Metrics returns the scroll offset and document dimensions.
func (t *Tab) Metrics(ctx context.Context) (pacing.Metrics, error) {
	v, err := t.Eval(ctx, metricsScript)
	if err != nil {
		return pacing.Metrics{}, err
	}
	return decodeMetrics(v)
}

// Hrefs returns the raw href attribute of every node matching selector.
func (t *Tab) Hrefs(ctx context.Context, selector string) ([]string, error) {
	v, err := t.Eval(ctx, hrefsScript, selector)
	if err != nil {
		return nil, err
	}
	return decodeStrings(v), nil
}

// Click clicks the first node matching selector. It reports false without
// error when nothing matches.
func (t *Tab) Click(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	handle, err := t.page.QuerySelector(selector)
	if err != nil {
		return false, fmt.Errorf("selector query failed: %w", err)
	}
	if handle == nil {
		return false, nil
	}
	if err := handle.Click(); err != nil {
		return true, fmt.Errorf("click failed: %w", err)
	}
	return true, nil
}

// HTML returns the serialized document.
func (t *Tab) HTML() (string, error) {
	content, err := t.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// Close closes the tab. Safe to call multiple times.
func (t *Tab) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.page.Close()
		if t.manager != nil {
			t.manager.forget(t)
		}
	})
	return err
}

func decodeElement(v interface{}) pacing.Element {
	m, ok := v.(map[string]interface{})
	if !ok {
		return pacing.Element{}
	}
	el := pacing.Element{}
	el.Exists, _ = m["exists"].(bool)
	el.Visible, _ = m["visible"].(bool)
	el.Text, _ = m["text"].(string)
	return el
}

func decodeMetrics(v interface{}) (pacing.Metrics, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return pacing.Metrics{}, fmt.Errorf("unexpected metrics result %T", v)
	}
	return pacing.Metrics{
		ScrollY:        toFloat(m["scrollY"]),
		ViewportHeight: toFloat(m["viewportHeight"]),
		ScrollHeight:   toFloat(m["scrollHeight"]),
	}, nil
}

func decodeStrings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// toFloat converts a number decoded from a page result.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	}
	return 0
}
