package pipeline

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// Rectangle represents a rectangular area.
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Bounds converts the rectangle to an image.Rectangle.
func (r Rectangle) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// =============================================================================
// Document Stage Types
// =============================================================================

// DocumentInput selects the document to build for a key.
type DocumentInput struct {
	Key   preview.Key
	Title string // Article title (table previews)
}

// DocumentResult is the complete HTML handed to a surface.
type DocumentResult struct {
	HTML string
}

// =============================================================================
// Capture Stage Types
// =============================================================================

// CaptureInput contains parameters for loading and rasterizing a document.
type CaptureInput struct {
	Key          preview.Key // State the document was built for
	Host         ports.Host
	Document     string
	Viewport     Dimension // CSS pixels
	Density      float64
	SettleDelay  time.Duration // Wait after load before the ready check (default: 600ms)
	ReadyTimeout time.Duration // Upper bound of the ready-for-display wait
	Timeout      time.Duration // Whole capture (default: 20s)
}

// CaptureResult contains the rasterized surface.
type CaptureResult struct {
	Image   image.Image
	Content ports.ContentSize
	Timing  CaptureTiming
}

// CaptureTiming records how long each capture phase took.
type CaptureTiming struct {
	LoadMs      int
	ReadyMs     int
	RasterizeMs int
}

// StateInput selects the state a loaded session switches to.
type StateInput struct {
	Key     preview.Key   // Theme and collapse state to apply
	Timeout time.Duration // Authoritative bound on the state-applied wait (default: 1.5s)
}

// CaptureSession is a loaded surface that can be captured several times
// under different states.
type CaptureSession interface {
	// Capture rasterizes the current state, labelled as key.
	Capture(ctx context.Context, key preview.Key) (CaptureResult, error)

	// Apply switches to another state and reports whether it was verified.
	Apply(ctx context.Context, input StateInput) (bool, error)

	// Close releases the surface.
	Close() error
}

// =============================================================================
// Layout Stage Types
// =============================================================================

// LayoutInput contains parameters for the crop calculation.
type LayoutInput struct {
	Source  Dimension // Captured image size
	Target  Dimension // Preview size
	TopBias float64   // 0 keeps the top, 1 keeps the bottom
}

// LayoutResult is the region of the source that is scaled to the target.
type LayoutResult struct {
	Crop  Rectangle
	Scale float64
}

// =============================================================================
// Crop Stage Types
// =============================================================================

// CropInput contains the capture and the region to keep.
type CropInput struct {
	Key     preview.Key
	Image   image.Image
	Crop    Rectangle
	Target  Dimension
	Density float64
}

// CropResult contains the finished preview.
type CropResult struct {
	Bitmap preview.Bitmap
}

// =============================================================================
// Placeholder Stage Types
// =============================================================================

// PlaceholderInput contains parameters for a placeholder preview.
type PlaceholderInput struct {
	Target  Dimension
	Density float64
	Label   string
	Theme   PlaceholderTheme
}

// PlaceholderTheme defines placeholder styling.
type PlaceholderTheme struct {
	BackgroundColor color.Color
	TextColor       color.Color
}

// PlaceholderThemeFor returns the placeholder styling of a reading theme.
func PlaceholderThemeFor(theme string) PlaceholderTheme {
	p := preview.PaletteFor(theme)
	return PlaceholderTheme{
		BackgroundColor: p.Background,
		TextColor:       p.Muted,
	}
}

// PlaceholderResult contains the placeholder.
type PlaceholderResult struct {
	Bitmap preview.Bitmap
}

// =============================================================================
// Split Stage Types
// =============================================================================

// SplitInput contains the two halves of a split preview.
type SplitInput struct {
	Left         preview.Bitmap
	Right        preview.Bitmap
	DividerColor color.Color
	DividerWidth int // Pixels (default: 1)
}

// SplitResult contains the composed preview.
type SplitResult struct {
	Bitmap preview.Bitmap
}
