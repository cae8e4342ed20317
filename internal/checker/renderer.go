package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const (
	rendererTimeout = 30 * time.Second
	mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) " +
		"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

// RenderedPage is what a renderer hands back for one page load.
type RenderedPage struct {
	Status        int
	ContentType   string
	Body          string
	ConsoleErrors []string
}

// PageRenderer loads a page and reports what came back. The browser-backed
// implementation additionally captures console errors; the HTTP fallback
// leaves ConsoleErrors empty and SupportsConsole false.
type PageRenderer interface {
	Render(ctx context.Context, url string) (*RenderedPage, error)
	SupportsConsole() bool
	Close()
}

// NewPageRenderer probes for a usable browser once and picks the
// implementation for the whole run. A failed launch degrades permanently to
// HTTP-only mode; there is no mid-run retry.
func NewPageRenderer(ctx context.Context) PageRenderer {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	probeCtx, probeCancel := context.WithTimeout(browserCtx, 15*time.Second)
	defer probeCancel()
	if err := chromedp.Run(probeCtx); err != nil {
		browserCancel()
		allocCancel()
		return &NullRenderer{client: newHTTPClient(rendererTimeout, true)}
	}

	return &BrowserRenderer{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{browserCancel, allocCancel},
	}
}

// BrowserRenderer drives a shared headless browser session, one tab per
// rendered page.
type BrowserRenderer struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
}

func (b *BrowserRenderer) SupportsConsole() bool { return true }

// Render opens a fresh tab, navigates, waits for the document, and collects
// any console errors or uncaught exceptions raised during load.
func (b *BrowserRenderer) Render(ctx context.Context, url string) (*RenderedPage, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	defer tabCancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, rendererTimeout)
	defer timeoutCancel()

	// Console events arrive on the tab's event goroutine, so they go
	// through the collector's lock rather than straight onto the page.
	collector := &consoleCollector{}
	chromedp.ListenTarget(tabCtx, collector.handle)

	var body string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &body, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	return &RenderedPage{
		Status:        http.StatusOK,
		ContentType:   "text/html",
		Body:          body,
		ConsoleErrors: collector.errors(),
	}, nil
}

// consoleCollector accumulates console errors and uncaught exceptions from
// browser events. Safe for concurrent use.
type consoleCollector struct {
	mu   sync.Mutex
	errs []string
}

func (c *consoleCollector) handle(ev any) {
	switch e := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		if e.Type != runtime.APITypeError {
			return
		}
		var parts []string
		for _, arg := range e.Args {
			if len(arg.Value) > 0 {
				parts = append(parts, string(arg.Value))
			}
		}
		c.add(strings.Join(parts, " "))
	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails != nil {
			c.add(e.ExceptionDetails.Text)
		}
	}
}

func (c *consoleCollector) add(msg string) {
	c.mu.Lock()
	c.errs = append(c.errs, msg)
	c.mu.Unlock()
}

func (c *consoleCollector) errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.errs...)
}

func (b *BrowserRenderer) Close() {
	for _, cancel := range b.cancels {
		cancel()
	}
}

// NullRenderer is the HTTP-only fallback used when no browser can launch.
type NullRenderer struct {
	client *http.Client
}

func (n *NullRenderer) SupportsConsole() bool { return false }

func (n *NullRenderer) Render(ctx context.Context, url string) (*RenderedPage, error) {
	return fetchWithAgent(ctx, n.client, url, "")
}

func (n *NullRenderer) Close() {}

// fetchWithAgent is the plain-HTTP page load used by the fallback renderer
// and the mobile-markup comparison.
func fetchWithAgent(ctx context.Context, client *http.Client, url, userAgent string) (*RenderedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	return &RenderedPage{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}
