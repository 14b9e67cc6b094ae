// Package capture implements the surface load and rasterize stage.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

// Defaults applied when an input leaves the value at zero.
const (
	DefaultTimeout      = 20 * time.Second
	DefaultSettleDelay  = 600 * time.Millisecond
	DefaultReadyTimeout = 2 * time.Second
	DefaultStateTimeout = 1500 * time.Millisecond
)

// Stage loads a document into a fresh surface of a host and rasterizes it.
type Stage struct {
	sink   ports.DebugSink
	logger ports.Logger
}

// NewStage creates a new capture stage.
func NewStage(sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		sink:   sink,
		logger: logger.WithComponent("capture"),
	}
}

// Execute captures a single state. The surface is closed before returning.
func (s *Stage) Execute(ctx context.Context, input pipeline.CaptureInput) (pipeline.CaptureResult, error) {
	sess, err := s.Open(ctx, input)
	if err != nil {
		return pipeline.CaptureResult{}, err
	}
	defer sess.Close()
	return sess.Capture(ctx, input.Key)
}

// Open creates a surface, loads the document and waits until it is ready
// for display. The caller must Close the returned session.
func (s *Stage) Open(ctx context.Context, input pipeline.CaptureInput) (pipeline.CaptureSession, error) {
	key := input.Key
	if input.Host == nil || !input.Host.Alive() {
		return nil, preview.NewRenderError(preview.ErrSurface, key, errors.New("host is not alive"))
	}

	loadCtx, cancel := context.WithTimeout(ctx, orDefault(input.Timeout, DefaultTimeout))
	defer cancel()

	surface, err := input.Host.NewSurface(loadCtx, ports.SurfaceOptions{
		Width:   input.Viewport.Width,
		Height:  input.Viewport.Height,
		Density: input.Density,
	})
	if err != nil {
		return nil, fail(loadCtx, key, preview.ErrSurface, "create surface", err)
	}

	sess := &session{stage: s, surface: surface, input: input}
	if err := sess.load(loadCtx); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// session is a loaded surface.
type session struct {
	stage   *Stage
	surface ports.Surface
	input   pipeline.CaptureInput
	timing  pipeline.CaptureTiming

	closeOnce sync.Once
	closeErr  error
}

func (ss *session) load(ctx context.Context) error {
	key := ss.input.Key
	logger := ss.stage.logger

	logger.Debug("Loading document for %s (%dx%d @%.2fx)", key,
		ss.input.Viewport.Width, ss.input.Viewport.Height, ss.input.Density)
	start := time.Now()
	if err := ss.surface.Load(ctx, ss.input.Document); err != nil {
		return fail(ctx, key, preview.ErrSurface, "load document", err)
	}
	if err := ss.surface.WaitLoadFinished(ctx); err != nil {
		return fail(ctx, key, preview.ErrSurface, "wait load finished", err)
	}
	ss.timing.LoadMs = int(time.Since(start).Milliseconds())

	settle := orDefault(ss.input.SettleDelay, DefaultSettleDelay)
	select {
	case <-time.After(settle):
	case <-ctx.Done():
		return fail(ctx, key, preview.ErrTimeout, "settle", ctx.Err())
	}

	start = time.Now()
	readyCtx, cancel := context.WithTimeout(ctx, orDefault(ss.input.ReadyTimeout, DefaultReadyTimeout))
	err := ss.surface.WaitReadyForDisplay(readyCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return fail(ctx, key, preview.ErrTimeout, "wait ready for display", err)
		}
		logger.Warn("Surface not ready after %d ms, capturing anyway: %v", time.Since(start).Milliseconds(), err)
	}
	ss.timing.ReadyMs = int(time.Since(start).Milliseconds())
	logger.Debug("Document ready: load %d ms, ready %d ms", ss.timing.LoadMs, ss.timing.ReadyMs)
	return nil
}

// Capture rasterizes the current state of the surface.
func (ss *session) Capture(ctx context.Context, key preview.Key) (pipeline.CaptureResult, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(ss.input.Timeout, DefaultTimeout))
	defer cancel()

	size, err := ss.surface.ContentSize(ctx)
	if err != nil {
		return pipeline.CaptureResult{}, fail(ctx, key, preview.ErrSurface, "content size", err)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return pipeline.CaptureResult{}, preview.NewRenderError(preview.ErrCapture, key,
			fmt.Errorf("empty content: %dx%d", size.Width, size.Height))
	}

	start := time.Now()
	img, err := ss.surface.Rasterize(ctx)
	if err != nil {
		return pipeline.CaptureResult{}, fail(ctx, key, preview.ErrCapture, "rasterize", err)
	}
	if img == nil || img.Bounds().Empty() {
		return pipeline.CaptureResult{}, preview.NewRenderError(preview.ErrCapture, key, errors.New("rasterize produced an empty image"))
	}

	timing := ss.timing
	timing.RasterizeMs = int(time.Since(start).Milliseconds())
	ss.stage.logger.Debug("Captured %s: %dx%d in %d ms", key, img.Bounds().Dx(), img.Bounds().Dy(), timing.RasterizeMs)

	if ss.stage.sink.Enabled() {
		ss.stage.sink.SaveCapture(key.String(), img)
	}

	return pipeline.CaptureResult{Image: img, Content: size, Timing: timing}, nil
}

// Apply switches the loaded document to input.Key's state. The state-applied
// event only shortens the wait; once input.Timeout passes the state is
// checked regardless. The returned bool is the verification result.
func (ss *session) Apply(ctx context.Context, input pipeline.StateInput) (bool, error) {
	key := input.Key
	if err := ss.surface.ApplyState(ctx, key.Theme, key.Collapsed); err != nil {
		return false, fail(ctx, key, preview.ErrSurface, "apply state", err)
	}

	timeout := orDefault(input.Timeout, DefaultStateTimeout)
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	err := ss.surface.WaitStateApplied(waitCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return false, fail(ctx, key, preview.ErrCancelled, "wait state applied", ctx.Err())
		}
		ss.stage.logger.Debug("No state event for %s within %d ms, verifying", key, timeout.Milliseconds())
	}

	ok, err := ss.surface.VerifyState(ctx, key.Theme, key.Collapsed)
	if err != nil {
		return false, fail(ctx, key, preview.ErrSurface, "verify state", err)
	}
	return ok, nil
}

// Close closes the surface once.
func (ss *session) Close() error {
	ss.closeOnce.Do(func() {
		ss.closeErr = ss.surface.Close()
	})
	return ss.closeErr
}

// fail wraps err as a RenderError. Expired or cancelled contexts and
// cancelled operations take precedence over def.
func fail(ctx context.Context, key preview.Key, def preview.ErrorKind, op string, err error) error {
	kind := preview.Classify(err, def)
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind = preview.Classify(ctxErr, def)
	}
	return preview.NewRenderError(kind, key, fmt.Errorf("%s: %w", op, err))
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
