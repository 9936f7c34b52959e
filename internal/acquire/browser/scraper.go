// Package browser implements acquisition tier 2: full headless-browser
// rendering of the product page with per-field CSS selector candidates.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/daehan-cho/shopscribe/internal/acquire"
	"github.com/daehan-cho/shopscribe/internal/config"
	"github.com/daehan-cho/shopscribe/pkg/models"
)

// Scraper renders product pages in a shared headless-browser context. The
// browser is started lazily on first use and reference-counted per job via
// Acquire/Release; each item gets its own tab, never shared between workers.
type Scraper struct {
	cfg config.BrowserConfig
	sel config.FieldSelectors

	mu         sync.Mutex
	browserCtx context.Context
	cancels    []context.CancelFunc
	active     int
	closed     bool
}

// NewScraper builds tier 2 from browser config and the selector candidate
// lists.
func NewScraper(cfg config.BrowserConfig, sel config.FieldSelectors) *Scraper {
	return &Scraper{cfg: cfg, sel: sel}
}

func (s *Scraper) Name() string { return "browser" }

// ensureBrowser starts the allocator and browser context on first use. The
// browser is parented to the background context so one job's cancellation
// does not kill it for the others; the last Release tears it down.
func (s *Scraper) ensureBrowser() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("browser scraper already closed")
	}
	if s.browserCtx != nil {
		return s.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features=AutomationControlled", true),
	)
	if s.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	s.browserCtx = browserCtx
	s.cancels = []context.CancelFunc{browserCancel, allocCancel}
	slog.Info("headless browser started", "headless", s.cfg.Headless)
	return browserCtx, nil
}

// Acquire marks a job as holding the shared browser. The browser outlives
// any single job until every holder has released it.
func (s *Scraper) Acquire() {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()
}

// Release drops one job's hold on the shared browser and tears it down once
// no job holds it; jobs still mid-flight keep their tabs alive. The next
// Fetch starts a fresh browser. Safe to call on a scraper that never
// started one.
func (s *Scraper) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active > 0 {
		s.active--
	}
	if s.active == 0 {
		s.releaseLocked()
	}
}

// Close releases the browser permanently. Safe to call more than once.
func (s *Scraper) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.releaseLocked()
}

func (s *Scraper) releaseLocked() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.browserCtx = nil
	if len(s.cancels) > 0 {
		slog.Info("headless browser released")
	}
	s.cancels = nil
}

// Fetch renders the item's product page and extracts fields via the selector
// candidate lists. The tab is released on every exit path.
func (s *Scraper) Fetch(ctx context.Context, item acquire.Item) (acquire.Result, error) {
	browserCtx, err := s.ensureBrowser()
	if err != nil {
		return acquire.Result{}, fmt.Errorf("%w: %v", acquire.ErrMiss, err)
	}

	// Per-item tab off the shared browser; the tier's deadline still comes
	// from the caller's ctx.
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	navCtx, cancelNav := context.WithTimeout(tabCtx, s.cfg.NavTimeout)
	defer cancelNav()

	// Tie the tab to the job: cancellation must interrupt navigation.
	stop := propagateCancel(ctx, cancelTab)
	defer stop()

	pageURL := fmt.Sprintf(s.cfg.ProductURL, item.ProductID)

	if err := chromedp.Run(navCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
	); err != nil {
		if ctx.Err() != nil {
			return acquire.Result{}, ctx.Err()
		}
		return acquire.Result{}, fmt.Errorf("%w: navigate %s: %v", acquire.ErrMiss, pageURL, err)
	}

	rec := s.extract(navCtx, item.ProductID, pageURL)
	if strings.TrimSpace(rec.Name) == "" {
		return acquire.Result{}, fmt.Errorf("%w: no product name on page", acquire.ErrMiss)
	}
	return acquire.Result{Record: rec}, nil
}

// extract reads every field through its candidate list. Exhausting all
// candidates yields the documented default (empty string, zero, false),
// never an error.
func (s *Scraper) extract(ctx context.Context, productID, pageURL string) *models.ProductRecord {
	rec := &models.ProductRecord{
		ProductID:  productID,
		ProductURL: pageURL,
	}

	rec.Name = s.firstText(ctx, s.sel.Name)
	rec.Category = s.firstText(ctx, s.sel.Category)
	rec.Description = s.firstText(ctx, s.sel.Description)
	rec.ImageURL = s.firstAttr(ctx, s.sel.Image, "src")

	rec.Price = ParsePrice(s.firstText(ctx, s.sel.Price))
	rec.Rating = ParseRating(s.firstText(ctx, s.sel.Rating))
	rec.ReviewCount = ParseCount(s.firstText(ctx, s.sel.ReviewCount))

	// Stock selectors match out-of-stock markers; no match means in stock.
	rec.InStock = s.firstText(ctx, s.sel.Stock) == ""

	return rec
}

// firstText returns the first candidate selector's non-empty trimmed text.
func (s *Scraper) firstText(ctx context.Context, candidates []string) string {
	for _, sel := range candidates {
		var text string
		err := chromedp.Run(ctx,
			chromedp.Text(sel, &text, chromedp.ByQuery, chromedp.AtLeast(0)),
		)
		if err != nil {
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			return t
		}
	}
	return ""
}

// firstAttr returns the first candidate selector's non-empty attribute value.
func (s *Scraper) firstAttr(ctx context.Context, candidates []string, attr string) string {
	for _, sel := range candidates {
		var val string
		var ok bool
		err := chromedp.Run(ctx,
			chromedp.AttributeValue(sel, attr, &val, &ok, chromedp.ByQuery, chromedp.AtLeast(0)),
		)
		if err != nil || !ok {
			continue
		}
		if v := strings.TrimSpace(val); v != "" {
			return v
		}
	}
	return ""
}

// propagateCancel cancels the tab when the job context ends before the tab
// finishes. The returned stop func releases the watcher goroutine.
func propagateCancel(ctx context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

var _ acquire.Tier = (*Scraper)(nil)
