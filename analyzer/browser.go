package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome, for storefronts that
// build product markup on the client.
type BrowserFetcher struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
}

// NewBrowserFetcher prepares a Chrome allocator. The browser process is
// started lazily on the first fetch.
func NewBrowserFetcher(opts FetchOptions) *BrowserFetcher {
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	return &BrowserFetcher{
		allocCtx: allocCtx,
		cancel:   cancel,
		timeout:  opts.Timeout,
	}
}

// Fetch navigates a fresh tab to pageURL and returns the rendered document
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := validatePageURL(pageURL); err != nil {
		return nil, newFetchError(pageURL, err)
	}

	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()

	// The tab hangs off the allocator, so the caller's context is bridged in.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(pageURL))
	if err != nil {
		return nil, newFetchError(pageURL, err)
	}
	if status := responseStatus(resp); status < 200 || status > 299 {
		return nil, &FetchError{
			URL:        pageURL,
			StatusCode: status,
			Err:        fmt.Errorf("unexpected status %d", status),
		}
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, newFetchError(pageURL, fmt.Errorf("read document: %w", err))
	}
	if html == "" {
		return nil, newFetchError(pageURL, errors.New("empty document"))
	}

	return []byte(html), nil
}

// Close shuts the browser down
func (f *BrowserFetcher) Close() {
	f.cancel()
}

func responseStatus(resp *network.Response) int {
	if resp == nil {
		return 0
	}
	return int(resp.Status)
}
