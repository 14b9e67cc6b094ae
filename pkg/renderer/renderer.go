// Package renderer turns preview keys into bitmaps by running the document,
// capture, layout and crop stages against a host from the pool.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

// HostSource provides a live host, waiting for one if necessary.
type HostSource interface {
	Wait(ctx context.Context) (ports.Host, error)
}

// Capturer is the capture stage. Open returns a loaded session for
// capturing several states from one document load.
type Capturer interface {
	pipeline.Stage[pipeline.CaptureInput, pipeline.CaptureResult]
	Open(ctx context.Context, input pipeline.CaptureInput) (pipeline.CaptureSession, error)
}

// Stages are the pipeline stages a Renderer runs.
type Stages struct {
	Document    pipeline.Stage[pipeline.DocumentInput, pipeline.DocumentResult]
	Capture     Capturer
	Layout      pipeline.Stage[pipeline.LayoutInput, pipeline.LayoutResult]
	Crop        pipeline.Stage[pipeline.CropInput, pipeline.CropResult]
	Split       pipeline.Stage[pipeline.SplitInput, pipeline.SplitResult]
	Placeholder pipeline.Stage[pipeline.PlaceholderInput, pipeline.PlaceholderResult]
}

// Result is the outcome of one key of a RenderMany call.
type Result struct {
	Key    preview.Key
	Bitmap preview.Bitmap
	Err    error
}

// Renderer renders previews. Surface work is serialized per host: at most
// one render holds a host's lane at a time.
type Renderer struct {
	cfg    Config
	hosts  HostSource
	stages Stages
	logger ports.Logger

	mu    sync.Mutex
	lanes map[string]chan struct{}

	renders atomic.Int64
}

// New creates a new Renderer.
func New(cfg Config, hosts HostSource, stages Stages, logger ports.Logger) *Renderer {
	return &Renderer{
		cfg:    cfg,
		hosts:  hosts,
		stages: stages,
		logger: logger.WithComponent("renderer"),
		lanes:  make(map[string]chan struct{}),
	}
}

// Config returns the renderer configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// Renders returns the number of previews produced since creation.
func (r *Renderer) Renders() int64 {
	return r.renders.Load()
}

// Render produces the preview of key. Every error is a *preview.RenderError.
func (r *Renderer) Render(ctx context.Context, key preview.Key) (preview.Bitmap, error) {
	if key.Kind == preview.KindTheme && key.Theme == preview.ThemeSystem {
		return r.renderSplit(ctx, key)
	}

	start := time.Now()
	doc, err := r.stages.Document.Execute(ctx, pipeline.DocumentInput{Key: key, Title: r.cfg.ArticleTitle})
	if err != nil {
		return preview.Bitmap{}, asRenderError(ctx, key, preview.ErrDocumentBuild, err)
	}

	host, release, err := r.acquire(ctx, key)
	if err != nil {
		return preview.Bitmap{}, err
	}
	defer release()

	bmp, err := r.renderOn(ctx, host, key, doc.HTML)
	if err != nil {
		return preview.Bitmap{}, err
	}
	r.logger.Debug("Rendered %s in %d ms", key, time.Since(start).Milliseconds())
	return bmp, nil
}

// RenderMany renders keys, loading each kind's document once and switching
// state in place for the remaining keys of that kind. A key whose state
// switch cannot be verified falls back to a full single render. Results are
// returned in the order of keys.
func (r *Renderer) RenderMany(ctx context.Context, keys []preview.Key) []Result {
	results := make([]Result, len(keys))
	groups := make(map[preview.SubjectKind][]int)
	var order []preview.SubjectKind

	for i, key := range keys {
		results[i].Key = key
		if key.Kind == preview.KindTheme && key.Theme == preview.ThemeSystem {
			results[i].Bitmap, results[i].Err = r.Render(ctx, key)
			continue
		}
		if _, ok := groups[key.Kind]; !ok {
			order = append(order, key.Kind)
		}
		groups[key.Kind] = append(groups[key.Kind], i)
	}

	for _, kind := range order {
		r.renderGroup(ctx, keys, groups[kind], results)
	}
	return results
}

// Placeholder draws the placeholder preview of key at the target size. It
// always returns pixels: when drawing fails the bitmap is the theme's
// background.
func (r *Renderer) Placeholder(key preview.Key) preview.Bitmap {
	target := r.cfg.Target(key.Kind)
	result, err := r.stages.Placeholder.Execute(context.Background(), pipeline.PlaceholderInput{
		Target:  pipeline.Dimension{Width: target.Width, Height: target.Height},
		Density: r.cfg.Density,
		Label:   key.Label(),
		Theme:   pipeline.PlaceholderThemeFor(key.Theme),
	})
	if err == nil && result.Bitmap.IsZero() {
		err = errors.New("empty bitmap")
	}
	if err != nil {
		r.logger.Error("Failed to draw placeholder for %s, using a plain fill: %v", key, err)
		return preview.SolidBitmap(target, preview.PaletteFor(key.Theme).Background, r.cfg.Density)
	}
	return result.Bitmap
}

func (r *Renderer) renderGroup(ctx context.Context, keys []preview.Key, idxs []int, results []Result) {
	fail := func(err error) {
		for _, idx := range idxs {
			if results[idx].Err == nil && results[idx].Bitmap.IsZero() {
				results[idx].Err = err
			}
		}
	}

	first := keys[idxs[0]]
	doc, err := r.stages.Document.Execute(ctx, pipeline.DocumentInput{Key: first, Title: r.cfg.ArticleTitle})
	if err != nil {
		fail(asRenderError(ctx, first, preview.ErrDocumentBuild, err))
		return
	}

	host, release, err := r.acquire(ctx, first)
	if err != nil {
		fail(err)
		return
	}
	defer release()

	sess, err := r.stages.Capture.Open(ctx, r.captureInput(host, first, doc.HTML))
	if err != nil {
		fail(asRenderError(ctx, first, preview.ErrSurface, err))
		return
	}
	defer sess.Close()

	r.logger.Debug("Capturing %d states from one %s document", len(idxs), first.Kind)
	for i, idx := range idxs {
		key := keys[idx]
		if err := ctx.Err(); err != nil {
			results[idx].Err = preview.NewRenderError(preview.Classify(err, preview.ErrCancelled), key, err)
			continue
		}

		if i > 0 {
			ok, err := sess.Apply(ctx, pipeline.StateInput{Key: key, Timeout: r.cfg.StateTimeout})
			if err != nil || !ok {
				r.logger.Debug("State %s not verified (%v), falling back to a full render", key, err)
				results[idx].Bitmap, results[idx].Err = r.renderFallback(ctx, host, key)
				continue
			}
		}

		capture, err := sess.Capture(ctx, key)
		if err != nil {
			results[idx].Err = asRenderError(ctx, key, preview.ErrCapture, err)
			continue
		}
		results[idx].Bitmap, results[idx].Err = r.finish(ctx, key, capture)
	}
}

// renderFallback renders key with its own document on a host whose lane
// the caller already holds.
func (r *Renderer) renderFallback(ctx context.Context, host ports.Host, key preview.Key) (preview.Bitmap, error) {
	doc, err := r.stages.Document.Execute(ctx, pipeline.DocumentInput{Key: key, Title: r.cfg.ArticleTitle})
	if err != nil {
		return preview.Bitmap{}, asRenderError(ctx, key, preview.ErrDocumentBuild, err)
	}
	return r.renderOn(ctx, host, key, doc.HTML)
}

// renderSplit renders the light and dark previews and joins their halves.
func (r *Renderer) renderSplit(ctx context.Context, key preview.Key) (preview.Bitmap, error) {
	left, err := r.Render(ctx, key.WithTheme(preview.ThemeLight))
	if err != nil {
		return preview.Bitmap{}, retag(err, key)
	}
	right, err := r.Render(ctx, key.WithTheme(preview.ThemeDark))
	if err != nil {
		return preview.Bitmap{}, retag(err, key)
	}

	c := r.cfg.DividerColor
	result, err := r.stages.Split.Execute(ctx, pipeline.SplitInput{
		Left:         left,
		Right:        right,
		DividerColor: color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]},
		DividerWidth: 1,
	})
	if err != nil {
		return preview.Bitmap{}, asRenderError(ctx, key, preview.ErrCapture, fmt.Errorf("split: %w", err))
	}
	return result.Bitmap, nil
}

func (r *Renderer) renderOn(ctx context.Context, host ports.Host, key preview.Key, html string) (preview.Bitmap, error) {
	capture, err := r.stages.Capture.Execute(ctx, r.captureInput(host, key, html))
	if err != nil {
		return preview.Bitmap{}, asRenderError(ctx, key, preview.ErrCapture, err)
	}
	return r.finish(ctx, key, capture)
}

// finish crops and scales a capture to the key's target size.
func (r *Renderer) finish(ctx context.Context, key preview.Key, capture pipeline.CaptureResult) (preview.Bitmap, error) {
	target := r.cfg.Target(key.Kind)
	targetDim := pipeline.Dimension{Width: target.Width, Height: target.Height}
	bounds := capture.Image.Bounds()

	layout, err := r.stages.Layout.Execute(ctx, pipeline.LayoutInput{
		Source:  pipeline.Dimension{Width: bounds.Dx(), Height: bounds.Dy()},
		Target:  targetDim,
		TopBias: r.cfg.topBias(key.Kind),
	})
	if err != nil {
		return preview.Bitmap{}, asRenderError(ctx, key, preview.ErrCapture, fmt.Errorf("layout: %w", err))
	}

	cropped, err := r.stages.Crop.Execute(ctx, pipeline.CropInput{
		Key:     key,
		Image:   capture.Image,
		Crop:    layout.Crop,
		Target:  targetDim,
		Density: r.cfg.Density,
	})
	if err != nil {
		return preview.Bitmap{}, asRenderError(ctx, key, preview.ErrCapture, fmt.Errorf("crop: %w", err))
	}

	r.renders.Add(1)
	return cropped.Bitmap, nil
}

func (r *Renderer) captureInput(host ports.Host, key preview.Key, html string) pipeline.CaptureInput {
	return pipeline.CaptureInput{
		Key:          key,
		Host:         host,
		Document:     html,
		Viewport:     r.cfg.viewport(key.Kind),
		Density:      r.cfg.Density,
		SettleDelay:  r.cfg.SettleDelay,
		ReadyTimeout: r.cfg.ReadyTimeout,
		Timeout:      r.cfg.CaptureTimeout,
	}
}

// acquire waits for a host and takes its lane. The returned func releases
// the lane.
func (r *Renderer) acquire(ctx context.Context, key preview.Key) (ports.Host, func(), error) {
	hostCtx, cancel := context.WithTimeout(ctx, r.cfg.HostTimeout)
	host, err := r.hosts.Wait(hostCtx)
	cancel()
	if err != nil {
		kind := preview.ErrHostContextTimeout
		if ctx.Err() != nil {
			kind = preview.Classify(ctx.Err(), preview.ErrHostContextTimeout)
		}
		return nil, nil, preview.NewRenderError(kind, key, fmt.Errorf("wait for host: %w", err))
	}

	lane := r.lane(host.ID())
	select {
	case lane <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, preview.NewRenderError(preview.Classify(ctx.Err(), preview.ErrCancelled), key, ctx.Err())
	}
	return host, func() { <-lane }, nil
}

func (r *Renderer) lane(id string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lanes[id]
	if !ok {
		l = make(chan struct{}, 1)
		r.lanes[id] = l
	}
	return l
}

// asRenderError returns err unchanged if it already carries a kind, and
// otherwise wraps it with a kind derived from ctx or def.
func asRenderError(ctx context.Context, key preview.Key, def preview.ErrorKind, err error) error {
	var re *preview.RenderError
	if errors.As(err, &re) {
		return err
	}
	kind := preview.Classify(err, def)
	if ctx.Err() != nil {
		kind = preview.Classify(ctx.Err(), def)
	}
	return preview.NewRenderError(kind, key, err)
}

// retag reports a failure of a split half under the split key.
func retag(err error, key preview.Key) error {
	return preview.NewRenderError(preview.KindOf(err), key, err)
}
