// Package nullsink provides the debug sink used when debug output is off.
package nullsink

import (
	"image"

	"github.com/user/wikipreview/pkg/ports"
)

// Sink reports itself disabled, so the renderer skips building debug
// artifacts. Any Save call that still arrives is dropped.
type Sink struct{}

// New creates a new Sink.
func New() Sink {
	return Sink{}
}

func (Sink) Enabled() bool { return false }

func (Sink) SaveDocument(string, string) error { return nil }
func (Sink) SaveCapture(string, image.Image) error { return nil }
func (Sink) SavePreview(string, image.Image) error { return nil }
func (Sink) SaveSummary(string, []byte) error { return nil }

var _ ports.DebugSink = Sink{}
