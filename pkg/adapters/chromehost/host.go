// Package chromehost implements preview hosts and surfaces on Chrome via
// chromedp. A Chrome process is a host; each surface is a tab.
package chromehost

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/user/wikipreview/pkg/ports"
)

// Options configures the Chrome process.
type Options struct {
	ChromePath string
	Headless   bool
	UserAgent  string
	NoSandbox  bool
}

// Host implements ports.Host on one Chrome process.
type Host struct {
	id          string
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	tempDir     string
	closed      atomic.Bool
}

// Launch starts Chrome. The process lives until Close or until ctx is done.
func Launch(ctx context.Context, opts Options) (*Host, error) {
	chromePath := ResolveChromePath(opts.ChromePath)
	if chromePath == "" {
		return nil, fmt.Errorf("chrome not found: install Chrome/Chromium, set %s, or use --chrome-path", PathEnv[0])
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(chromePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.Flag("disable-gpu", true),
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.Flag("no-zygote", true),
		)
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	tempDir, err := os.MkdirTemp("", "wikipreview-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &Host{
		id:          "chrome-" + uuid.NewString()[:8],
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      cancel,
		tempDir:     tempDir,
	}, nil
}

func (h *Host) ID() string {
	return h.id
}

// Alive reports whether the browser is still running.
func (h *Host) Alive() bool {
	return !h.closed.Load() && h.ctx.Err() == nil
}

// NewSurface opens a tab sized to opts. The tab belongs to the browser,
// not to ctx; ctx only bounds the setup.
func (h *Host) NewSurface(ctx context.Context, opts ports.SurfaceOptions) (ports.Surface, error) {
	if !h.Alive() {
		return nil, fmt.Errorf("host %s is not alive", h.id)
	}
	density := opts.Density
	if density <= 0 {
		density = 1
	}

	tabCtx, cancel := chromedp.NewContext(h.ctx)
	s := &Surface{
		host:    h,
		ctx:     tabCtx,
		cancel:  cancel,
		width:   opts.Width,
		height:  opts.Height,
		density: density,
	}
	// mobile=true honours the viewport meta tag of the document.
	if err := s.run(ctx,
		emulation.SetDeviceMetricsOverride(int64(opts.Width), int64(opts.Height), density, true).
			WithScreenWidth(int64(math.Round(float64(opts.Width)*density))).
			WithScreenHeight(int64(math.Round(float64(opts.Height)*density))),
	); err != nil {
		s.Close()
		return nil, fmt.Errorf("open surface: %w", err)
	}
	return s, nil
}

// Close shuts the browser down.
func (h *Host) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	h.cancel()
	// Give Chrome a moment to shut down gracefully, then force kill.
	time.Sleep(100 * time.Millisecond)
	h.allocCancel()
	return os.RemoveAll(h.tempDir)
}

var _ ports.Host = (*Host)(nil)
