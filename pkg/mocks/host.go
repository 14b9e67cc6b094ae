package mocks

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

var (
	themeAttr     = regexp.MustCompile(`data-theme="([^"]*)"`)
	collapsedAttr = regexp.MustCompile(`data-collapsed="(true|false)"`)
)

// ErrSurfaceClosed is returned by surface operations after Close.
var ErrSurfaceClosed = errors.New("mock surface closed")

// Host is a mock implementation of ports.Host.
// Surfaces it creates paint the palette of the loaded document's theme.
type Host struct {
	IDValue        string
	NewSurfaceFunc func(ctx context.Context, opts ports.SurfaceOptions) (ports.Surface, error)
	// Configure is applied to every surface created by default.
	Configure func(s *Surface)

	alive   atomic.Bool
	open    atomic.Int32
	maxOpen atomic.Int32

	mu       sync.Mutex
	surfaces []*Surface
}

// NewHost creates a live mock host.
func NewHost(id string) *Host {
	h := &Host{IDValue: id}
	h.alive.Store(true)
	return h
}

func (h *Host) ID() string {
	return h.IDValue
}

func (h *Host) Alive() bool {
	return h.alive.Load()
}

// Kill marks the host as no longer alive.
func (h *Host) Kill() {
	h.alive.Store(false)
}

func (h *Host) NewSurface(ctx context.Context, opts ports.SurfaceOptions) (ports.Surface, error) {
	if h.NewSurfaceFunc != nil {
		return h.NewSurfaceFunc(ctx, opts)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := NewSurface(opts)
	s.host = h
	if h.Configure != nil {
		h.Configure(s)
	}

	n := h.open.Add(1)
	for {
		m := h.maxOpen.Load()
		if n <= m || h.maxOpen.CompareAndSwap(m, n) {
			break
		}
	}

	h.mu.Lock()
	h.surfaces = append(h.surfaces, s)
	h.mu.Unlock()
	return s, nil
}

// Surfaces returns every surface created by default.
func (h *Host) Surfaces() []*Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Surface(nil), h.surfaces...)
}

// OpenSurfaces returns the number of surfaces not yet closed.
func (h *Host) OpenSurfaces() int {
	return int(h.open.Load())
}

// MaxOpenSurfaces returns the highest number of simultaneously open surfaces.
func (h *Host) MaxOpenSurfaces() int {
	return int(h.maxOpen.Load())
}

var _ ports.Host = (*Host)(nil)

// Surface is a mock implementation of ports.Surface.
type Surface struct {
	Options ports.SurfaceOptions

	LoadFunc                func(ctx context.Context, document string) error
	WaitLoadFinishedFunc    func(ctx context.Context) error
	WaitReadyForDisplayFunc func(ctx context.Context) error
	ContentSizeFunc         func(ctx context.Context) (ports.ContentSize, error)
	RasterizeFunc           func(ctx context.Context) (image.Image, error)
	ApplyStateFunc          func(ctx context.Context, theme string, collapsed bool) error
	WaitStateAppliedFunc    func(ctx context.Context) error
	VerifyStateFunc         func(ctx context.Context, theme string, collapsed bool) (bool, error)

	// RasterizeDelay simulates a slow rasterization.
	RasterizeDelay time.Duration

	host *Host

	mu         sync.Mutex
	document   string
	theme      string
	collapsed  bool
	closed     bool
	loads      int
	rasterizes int
	applies    int
}

// NewSurface creates a standalone mock surface.
func NewSurface(opts ports.SurfaceOptions) *Surface {
	return &Surface{Options: opts, theme: preview.ThemeLight}
}

func (s *Surface) Load(ctx context.Context, document string) error {
	if s.LoadFunc != nil {
		return s.LoadFunc(ctx, document)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	s.loads++
	s.document = document
	if m := themeAttr.FindStringSubmatch(document); m != nil {
		s.theme = m[1]
	}
	if m := collapsedAttr.FindStringSubmatch(document); m != nil {
		s.collapsed = m[1] == "true"
	}
	return nil
}

func (s *Surface) WaitLoadFinished(ctx context.Context) error {
	if s.WaitLoadFinishedFunc != nil {
		return s.WaitLoadFinishedFunc(ctx)
	}
	return ctx.Err()
}

func (s *Surface) WaitReadyForDisplay(ctx context.Context) error {
	if s.WaitReadyForDisplayFunc != nil {
		return s.WaitReadyForDisplayFunc(ctx)
	}
	return ctx.Err()
}

func (s *Surface) ContentSize(ctx context.Context) (ports.ContentSize, error) {
	if s.ContentSizeFunc != nil {
		return s.ContentSizeFunc(ctx)
	}
	return ports.ContentSize{Width: s.Options.Width, Height: s.Options.Height * 3}, nil
}

// Rasterize paints the viewport at the surface density. The fill is the
// theme background, or the theme's muted color when tables are collapsed.
func (s *Surface) Rasterize(ctx context.Context) (image.Image, error) {
	if s.RasterizeFunc != nil {
		return s.RasterizeFunc(ctx)
	}
	if s.RasterizeDelay > 0 {
		select {
		case <-time.After(s.RasterizeDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSurfaceClosed
	}
	s.rasterizes++

	density := s.Options.Density
	if density <= 0 {
		density = 1
	}
	w := int(math.Round(float64(s.Options.Width) * density))
	h := int(math.Round(float64(s.Options.Height) * density))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := StateColor(s.theme, s.collapsed)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}
	return img, nil
}

func (s *Surface) ApplyState(ctx context.Context, theme string, collapsed bool) error {
	if s.ApplyStateFunc != nil {
		return s.ApplyStateFunc(ctx, theme, collapsed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	s.applies++
	s.theme = theme
	s.collapsed = collapsed
	return nil
}

func (s *Surface) WaitStateApplied(ctx context.Context) error {
	if s.WaitStateAppliedFunc != nil {
		return s.WaitStateAppliedFunc(ctx)
	}
	return ctx.Err()
}

func (s *Surface) VerifyState(ctx context.Context, theme string, collapsed bool) (bool, error) {
	if s.VerifyStateFunc != nil {
		return s.VerifyStateFunc(ctx, theme, collapsed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme == theme && s.collapsed == collapsed, nil
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.host != nil {
		s.host.open.Add(-1)
	}
	return nil
}

// Closed reports whether Close was called.
func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Loads returns the number of Load calls.
func (s *Surface) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Rasterizes returns the number of successful Rasterize calls.
func (s *Surface) Rasterizes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rasterizes
}

// Applies returns the number of ApplyState calls.
func (s *Surface) Applies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applies
}

// Document returns the last loaded document.
func (s *Surface) Document() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

var _ ports.Surface = (*Surface)(nil)

// StateColor is the fill a default mock surface paints for a state.
func StateColor(theme string, collapsed bool) color.RGBA {
	p := preview.PaletteFor(theme)
	if collapsed {
		return p.Muted
	}
	return p.Background
}
