// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/wikipreview/pkg/ports"
)

// Sink saves debug output to files under baseDir:
//
//	documents/<name>.html
//	captures/<name>.png
//	previews/<name>.png
//	summaries/<name>
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveDocument saves the HTML document handed to the surface.
func (s *Sink) SaveDocument(name string, html string) error {
	return s.fs.WriteFile(s.path("documents", name+".html"), []byte(html))
}

// SaveCapture saves the raw rasterized surface.
func (s *Sink) SaveCapture(name string, img image.Image) error {
	return s.savePNG("captures", name, img)
}

// SavePreview saves the final preview.
func (s *Sink) SavePreview(name string, img image.Image) error {
	return s.savePNG("previews", name, img)
}

// SaveSummary saves a generation run summary.
func (s *Sink) SaveSummary(name string, data []byte) error {
	return s.fs.WriteFile(s.path("summaries", name), data)
}

func (s *Sink) savePNG(dir, name string, img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", dir, name, err)
	}
	return s.fs.WriteFile(s.path(dir, name+".png"), data)
}

func (s *Sink) path(dir, name string) string {
	return filepath.Join(s.baseDir, dir, filepath.Base(name))
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
