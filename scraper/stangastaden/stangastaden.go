// Package stangastaden scrapes the parking listings of Stångåstaden with a
// headless browser.
package stangastaden

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"parking-finder/models"
	"parking-finder/scraper"
	"parking-finder/services"
	"parking-finder/utils"
)

// Options configures a Scraper.
type Options struct {
	Areas       []string
	// URL overrides the listing address built from Areas.
	URL         string
	ChromeBin   string
	PageTimeout time.Duration
	RateLimitMs int
	MaxRetries  int
}

// Scraper walks every result page for the configured areas.
type Scraper struct {
	opts   Options
	logger *utils.Logger
	retry  *utils.RetryConfig
	pool   *utils.WorkerPool
}

var _ scraper.Source = (*Scraper)(nil)

// New creates a ready-to-use Scraper.
func New(opts Options, logger *utils.Logger) *Scraper {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 60 * time.Second
	}
	return &Scraper{
		opts:   opts,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		pool: utils.NewWorkerPool(1, opts.RateLimitMs),
	}
}

// Scrape loads the listing, dismisses the cookie banner and collects the
// records of every page. A browser failure aborts the whole scrape.
func (s *Scraper) Scrape(ctx context.Context) (models.Snapshot, error) {
	url := s.opts.URL
	if url == "" {
		url = BuildURL(s.opts.Areas)
	}
	s.logger.Debug("[stangastaden] scraping url '%s'", url)

	chromeBin := s.opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	s.logger.Debug("[stangastaden] using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// The first Run starts the browser and binds its lifetime to the
	// context it is given, so it must not carry a step timeout.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("stangastaden: start browser: %w", err)
	}

	err := s.retry.Do(ctx, "load-listing", func() error {
		return s.load(browserCtx, url)
	})
	if err != nil {
		return nil, fmt.Errorf("stangastaden: failed to load url %s: %w", url, err)
	}

	if err := s.dismissCookieBanner(browserCtx); err != nil {
		return nil, fmt.Errorf("stangastaden: failed to click 'acceptera alla' cookie button: %w", err)
	}

	cleaner := services.NewCleaner(s.logger)
	snapshot := models.Snapshot{}

	for current := 1; ; current++ {
		html, err := s.pageHTML(browserCtx)
		if err != nil {
			return nil, fmt.Errorf("stangastaden: read page %d: %w", current, err)
		}

		page, err := ParsePage(html)
		if err != nil {
			return nil, fmt.Errorf("stangastaden: page %d: %w", current, err)
		}
		if len(page.Blocks) == 0 {
			s.logger.Debug("[stangastaden] no rows found on page %d", current)
			break
		}
		if page.Links == 0 {
			s.logger.Warn("[stangastaden] no pagination found (bug?)")
		}

		found := cleaner.Clean(page.Blocks)
		snapshot = append(snapshot, found...)
		s.logger.Info("[stangastaden] found %d unique spaces on page %d / %d",
			len(found), current, max(1, page.Links))

		next := current + 1
		if !page.HasPage(next) {
			s.logger.Debug("[stangastaden] no next page found")
			break
		}

		if err := s.pool.Pace(ctx); err != nil {
			return nil, fmt.Errorf("stangastaden: %w", err)
		}
		if err := s.openPage(browserCtx, next); err != nil {
			return nil, fmt.Errorf("stangastaden: failed to click next page with number %d: %w", next, err)
		}
	}

	s.logger.Info("[stangastaden] found a total of %d unique spaces", len(snapshot))
	return snapshot, nil
}

// load navigates to url and requires an HTTP 200 answer.
func (s *Scraper) load(browserCtx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(browserCtx, s.opts.PageTimeout)
	defer cancel()

	start := time.Now()
	resp, err := chromedp.RunResponse(ctx, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("no http response was returned")
	}
	if resp.Status != http.StatusOK {
		return fmt.Errorf("unexpected http status %d", resp.Status)
	}

	if err := chromedp.Run(ctx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for body: %w", err)
	}

	s.logger.Info("[stangastaden] loaded page '%s' in %.2f seconds (http %d)",
		url, time.Since(start).Seconds(), resp.Status)
	return nil
}

// dismissCookieBanner clicks 'acceptera alla' when the consent banner is
// shown. A missing banner is only worth a warning.
func (s *Scraper) dismissCookieBanner(browserCtx context.Context) error {
	ctx, cancel := context.WithTimeout(browserCtx, s.opts.PageTimeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(cookieSelector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return err
	}
	if len(nodes) == 0 {
		s.logger.Warn("[stangastaden] no 'acceptera alla' cookie button found or visible, " +
			"program will likely not work as intended (bug?)")
		return nil
	}

	s.logger.Debug("[stangastaden] found 'acceptera alla' cookie button, attempting to click")
	clickCtx, cancelClick := context.WithTimeout(ctx, 5*time.Second)
	defer cancelClick()
	if err := chromedp.Run(clickCtx,
		chromedp.Click(cookieSelector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return err
	}

	s.logger.Debug("[stangastaden] cookie consent banner clicked and dismissed")
	return nil
}

func (s *Scraper) pageHTML(browserCtx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(browserCtx, s.opts.PageTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// openPage clicks the pagination link for page n and waits until the
// listing has been rendered again.
func (s *Scraper) openPage(browserCtx context.Context, n int) error {
	ctx, cancel := context.WithTimeout(browserCtx, s.opts.PageTimeout)
	defer cancel()

	s.logger.Info("[stangastaden] next page found with number %d", n)
	err := chromedp.Run(ctx,
		chromedp.Click(nextPageXPath(n), chromedp.BySearch, chromedp.NodeVisible),
		chromedp.WaitNotPresent(nextPageXPath(n), chromedp.BySearch),
		chromedp.WaitReady(listingSelector, chromedp.ByQuery),
	)
	if err != nil {
		return err
	}

	s.logger.Debug("[stangastaden] clicked next page element with number %d", n)
	return nil
}

// findChromeBinary locates a Chrome or Chromium binary.
func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
