// Package acquirer drives the shared browser to turn a post URL into raw
// PostContent. Acquisition never fails upward: anti-bot walls, navigation
// timeouts and selector drift all degrade to synthetic fallback content so
// the rest of the pipeline stays available.
package acquirer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/frierosdesign/eventsync/internal/auth"
	"github.com/frierosdesign/eventsync/internal/browser"
	"github.com/frierosdesign/eventsync/internal/ratelimit"
	"github.com/frierosdesign/eventsync/internal/types"
)

const (
	contentGraceWait = 3 * time.Second
	snapshotTimeout  = 10 * time.Second
)

// Subresource and tracker traffic blocked during navigation to cut load time
// and detection surface.
var blockedURLPatterns = []string{
	"*.css",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.mp4", "*.webm", "*.m4v",
	"*.jpg", "*.jpeg", "*.png", "*.webp", "*.gif", "*.avif",
	"*googletagmanager.com*",
	"*google-analytics.com*",
	"*doubleclick.net*",
	"*facebook.com/tr*",
	"*connect.facebook.net*",
	"*scorecardresearch.com*",
}

// Options tunes acquisition behavior.
type Options struct {
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	// SyntheticFallback controls whether total acquisition failure yields
	// generated placeholder content (the default) or nil.
	SyntheticFallback bool
}

// DefaultOptions match the production tuning.
func DefaultOptions() Options {
	return Options{
		NavigationTimeout: 30 * time.Second,
		SelectorTimeout:   5 * time.Second,
		SyntheticFallback: true,
	}
}

// Acquirer extracts raw post content through the shared browser.
type Acquirer struct {
	browser *browser.Browser
	cookies *auth.CookieStore
	gate    *ratelimit.Gate
	log     *logrus.Logger
	client  *http.Client
	opts    Options

	// waitVisible is swapped out in tests; driving a selector wait
	// otherwise requires a live browser.
	waitVisible func(ctx context.Context, sel string) error
}

// New creates an acquirer. cookies may be backed by an empty path when no
// session store is configured.
func New(b *browser.Browser, cookies *auth.CookieStore, gate *ratelimit.Gate, log *logrus.Logger, opts Options) *Acquirer {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultOptions().NavigationTimeout
	}
	if opts.SelectorTimeout <= 0 {
		opts.SelectorTimeout = DefaultOptions().SelectorTimeout
	}
	a := &Acquirer{
		browser: b,
		cookies: cookies,
		gate:    gate,
		log:     log,
		client:  &http.Client{Timeout: 15 * time.Second},
		opts:    opts,
	}
	a.waitVisible = func(ctx context.Context, sel string) error {
		return chromedp.Run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
	}
	return a
}

// ExtractPostData loads the post and extracts caption, media, author and
// engagement data. It never returns an error: unrecoverable failures produce
// synthetic fallback content instead, or nil when the fallback is disabled.
func (a *Acquirer) ExtractPostData(ctx context.Context, postURL string) *types.PostContent {
	shortcode := Shortcode(postURL)

	content, err := a.acquire(ctx, postURL, shortcode)
	if err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"shortcode": shortcode,
			"url":       postURL,
		}).Warn("Acquisition failed")

		if !a.opts.SyntheticFallback {
			return nil
		}
		return a.syntheticContent(shortcode)
	}

	return content
}

func (a *Acquirer) acquire(ctx context.Context, postURL, shortcode string) (content *types.PostContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			content = nil
			err = fmt.Errorf("panic during acquisition: %v", r)
		}
	}()

	if err := a.gate.Acquire(ctx); err != nil {
		return nil, err
	}

	tabCtx, closeTab, err := a.browser.NewTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	defer closeTab()

	navCtx, navCancel := context.WithTimeout(tabCtx, a.opts.NavigationTimeout)
	defer navCancel()

	if cookies, cerr := a.cookies.Load(); cerr != nil {
		a.log.WithError(cerr).Debug("Cookie store unreadable, continuing without session")
	} else if len(cookies) > 0 {
		if ierr := auth.InjectInto(navCtx, cookies); ierr != nil {
			a.log.WithError(ierr).Debug("Cookie injection failed, continuing without session")
		}
	}

	if err := chromedp.Run(navCtx,
		network.Enable(),
		network.SetBlockedURLs(blockedURLPatterns),
		chromedp.Navigate(postURL),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	// The cascade and the snapshot run against the tab, not navCtx: a page
	// whose selectors all miss must still be snapshotted, so selector
	// exhaustion cannot be allowed to burn the navigation deadline.
	if !a.waitContentReady(tabCtx) {
		a.log.Debug("No content-ready selector matched, proceeding after grace wait")
		select {
		case <-tabCtx.Done():
			return nil, tabCtx.Err()
		case <-time.After(contentGraceWait):
		}
	}

	snapCtx, snapCancel := context.WithTimeout(tabCtx, snapshotTimeout)
	defer snapCancel()

	var html, visible string
	if err := chromedp.Run(snapCtx,
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
		chromedp.Text(`body`, &visible, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to snapshot page: %w", err)
	}

	if reason := blockedReason(visible); reason != "" {
		return nil, fmt.Errorf("page blocked: %s", reason)
	}

	return a.contentFromHTML(html, shortcode)
}

// waitContentReady walks the content-ready selector cascade with a short
// timeout per candidate, reporting whether any matched. Each candidate gets
// its own budget; the caller's context only cuts the cascade short when it
// dies entirely.
func (a *Acquirer) waitContentReady(ctx context.Context) bool {
	for _, sel := range ContentReadySelectors {
		selCtx, cancel := context.WithTimeout(ctx, a.opts.SelectorTimeout)
		err := a.waitVisible(selCtx, sel)
		cancel()
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

// blockedReason inspects the page's visible text for anti-bot walls. It
// returns the matched indicator, or "minimal visible text" for near-empty
// pages, or "" when the page looks fine.
func blockedReason(visible string) string {
	lower := strings.ToLower(visible)
	for _, indicator := range blockedIndicators {
		if strings.Contains(lower, indicator) {
			return indicator
		}
	}
	if len(strings.TrimSpace(visible)) < minVisibleText {
		return "minimal visible text"
	}
	return ""
}
