// Package browser owns the shared headless Chrome process. One browser runs
// per service; each acquisition gets its own isolated tab so concurrent
// extractions never share DOM or cookie state.
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Browser is the explicitly-owned browser handle. The process is started
// lazily on first tab request and torn down by Stop.
type Browser struct {
	mu        sync.Mutex
	headless  bool
	userAgent string

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	started       bool
}

// New creates an unstarted browser handle.
func New(headless bool, userAgent string) *Browser {
	return &Browser{headless: headless, userAgent: userAgent}
}

// Start launches the browser process. Calling Start on a running browser is
// a no-op. The process outlives the passed context; Stop owns teardown.
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startLocked(ctx)
}

func (b *Browser) startLocked(ctx context.Context) error {
	if b.started {
		return nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), Options(b.headless, b.userAgent)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run a no-op to force the process to launch now, so a broken Chrome
	// install fails here instead of mid-acquisition.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	b.started = true
	return nil
}

// NewTab opens an isolated tab in the shared browser, starting the process
// if needed. Each tab lives in its own browser context (a separate cookie
// jar and storage partition), so injected sessions never leak between
// concurrent acquisitions. The returned cancel closes only this tab;
// cancellation of the caller's context closes it as well.
func (b *Browser) NewTab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	b.mu.Lock()
	if err := b.startLocked(ctx); err != nil {
		b.mu.Unlock()
		return nil, nil, err
	}
	parent := b.browserCtx
	b.mu.Unlock()

	// Browser-domain commands need the browser executor, not a tab's.
	ectx := cdp.WithExecutor(ctx, chromedp.FromContext(parent).Browser)

	bctxID, err := target.CreateBrowserContext().WithDisposeOnDetach(true).Do(ectx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	targetID, err := target.CreateTarget("about:blank").WithBrowserContextID(bctxID).Do(ectx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tab: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(parent, chromedp.WithTargetID(targetID))
	stop := context.AfterFunc(ctx, tabCancel)
	cancel := func() {
		stop()
		tabCancel()
	}
	return tabCtx, cancel, nil
}

// Stop tears down the browser process. Safe to call multiple times.
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return
	}
	b.browserCancel()
	b.allocCancel()
	b.browserCtx = nil
	b.started = false
}

// Running reports whether the browser process has been started.
func (b *Browser) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}
