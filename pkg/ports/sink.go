package ports

import (
	"image"
)

// DebugSink receives intermediate results of a render for inspection.
// Names are key strings, so each render writes its own set of files.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveDocument saves the HTML document handed to the surface.
	SaveDocument(name string, html string) error

	// SaveCapture saves the raw rasterized surface before cropping.
	SaveCapture(name string, img image.Image) error

	// SavePreview saves the final cropped and scaled preview.
	SavePreview(name string, img image.Image) error

	// SaveSummary saves a generation run summary.
	SaveSummary(name string, data []byte) error
}
