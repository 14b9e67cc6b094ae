package chromehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/user/wikipreview/pkg/ports"
)

const pollInterval = 25 * time.Millisecond

// Surface implements ports.Surface on one Chrome tab.
type Surface struct {
	host    *Host
	ctx     context.Context
	cancel  context.CancelFunc
	width   int
	height  int
	density float64

	mu   sync.Mutex
	file string
}

// run executes actions on the tab, bounded by ctx. Cancelling ctx aborts
// the actions but leaves the tab open.
func (s *Surface) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Load writes document to a file in the host's temp dir and navigates to it.
func (s *Surface) Load(ctx context.Context, document string) error {
	path := filepath.Join(s.host.tempDir, uuid.NewString()+".html")
	if err := os.WriteFile(path, []byte(document), 0644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	s.replaceFile(path)

	if err := s.run(ctx, chromedp.Navigate("file://"+path)); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

func (s *Surface) WaitLoadFinished(ctx context.Context) error {
	var complete bool
	if err := s.run(ctx, chromedp.Poll(`document.readyState === "complete"`, &complete, chromedp.WithPollingInterval(pollInterval))); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

// WaitReadyForDisplay waits for the document script to report that fonts
// are loaded and two frames have been committed.
func (s *Surface) WaitReadyForDisplay(ctx context.Context) error {
	var ready bool
	if err := s.run(ctx, chromedp.Poll(`!!(window.__wikipreview && window.__wikipreview.ready)`, &ready, chromedp.WithPollingInterval(pollInterval))); err != nil {
		return fmt.Errorf("wait ready: %w", err)
	}
	return nil
}

func (s *Surface) ContentSize(ctx context.Context) (ports.ContentSize, error) {
	var size []int
	if err := s.run(ctx, chromedp.Evaluate(`[document.documentElement.scrollWidth, document.documentElement.scrollHeight]`, &size)); err != nil {
		return ports.ContentSize{}, fmt.Errorf("content size: %w", err)
	}
	if len(size) != 2 {
		return ports.ContentSize{}, fmt.Errorf("content size: unexpected result %v", size)
	}
	return ports.ContentSize{Width: size[0], Height: size[1]}, nil
}

// Rasterize captures the viewport at the surface density.
func (s *Surface) Rasterize(ctx context.Context) (image.Image, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

func (s *Surface) ApplyState(ctx context.Context, theme string, collapsed bool) error {
	expr, err := stateCall("apply", theme, collapsed)
	if err != nil {
		return err
	}
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("apply state: %w", err)
	}
	if !ok {
		return fmt.Errorf("apply state: document rejected %s", theme)
	}
	return nil
}

func (s *Surface) WaitStateApplied(ctx context.Context) error {
	var settled bool
	if err := s.run(ctx, chromedp.Poll(`!!(window.__wikipreview && window.__wikipreview.settled)`, &settled, chromedp.WithPollingInterval(pollInterval))); err != nil {
		return fmt.Errorf("wait state: %w", err)
	}
	return nil
}

func (s *Surface) VerifyState(ctx context.Context, theme string, collapsed bool) (bool, error) {
	expr, err := stateCall("verify", theme, collapsed)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return false, fmt.Errorf("verify state: %w", err)
	}
	return ok, nil
}

// Close closes the tab and removes the loaded document.
func (s *Surface) Close() error {
	s.cancel()
	s.replaceFile("")
	return nil
}

func (s *Surface) replaceFile(path string) {
	s.mu.Lock()
	old := s.file
	s.file = path
	s.mu.Unlock()
	if old != "" {
		os.Remove(old)
	}
}

// stateCall builds a call to the document's state API.
func stateCall(fn, theme string, collapsed bool) (string, error) {
	quoted, err := json.Marshal(theme)
	if err != nil {
		return "", fmt.Errorf("encode theme: %w", err)
	}
	return fmt.Sprintf("window.__wikipreview.%s(%s, %t)", fn, quoted, collapsed), nil
}

var _ ports.Surface = (*Surface)(nil)
