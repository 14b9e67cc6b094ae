package ports

import (
	"context"
	"image"
)

// Host is a live rendering context that can create surfaces, such as a
// browser process. Hosts are owned by their producer and may disappear at
// any time; Alive reports whether the host can still be used.
type Host interface {
	// ID returns a stable identifier, unique among live hosts.
	ID() string

	// Alive reports whether the host can still create surfaces.
	Alive() bool

	// NewSurface creates an off-screen surface sized to opts.
	NewSurface(ctx context.Context, opts SurfaceOptions) (Surface, error)
}

// SurfaceOptions configures an off-screen surface.
type SurfaceOptions struct {
	// Width and Height are the layout viewport in CSS pixels.
	Width  int
	Height int
	// Density is the device pixel ratio used when rasterizing.
	Density float64
}

// ContentSize is the laid-out size of a loaded document in CSS pixels.
type ContentSize struct {
	Width  int
	Height int
}

// Surface is a single rendering surface. A surface is used by one render
// at a time and must be closed when the render ends.
type Surface interface {
	// Load starts loading the document. Completion is observed through
	// WaitLoadFinished.
	Load(ctx context.Context, document string) error

	// WaitLoadFinished blocks until the document has finished loading.
	WaitLoadFinished(ctx context.Context) error

	// WaitReadyForDisplay blocks until fonts, images and the next frames
	// have been committed.
	WaitReadyForDisplay(ctx context.Context) error

	// ContentSize returns the laid-out content size.
	ContentSize(ctx context.Context) (ContentSize, error)

	// Rasterize draws the current surface contents into an image.
	Rasterize(ctx context.Context) (image.Image, error)

	// ApplyState switches the loaded document to another theme and
	// table-collapse state without reloading it.
	ApplyState(ctx context.Context, theme string, collapsed bool) error

	// WaitStateApplied blocks until the document reports that the last
	// ApplyState has been laid out and painted.
	WaitStateApplied(ctx context.Context) error

	// VerifyState reports whether the document currently shows theme and collapsed.
	VerifyState(ctx context.Context, theme string, collapsed bool) (bool, error)

	// Close releases the surface. It is safe to call more than once.
	Close() error
}
