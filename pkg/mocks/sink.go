package mocks

import (
	"image"
	"sync"

	"github.com/user/wikipreview/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Documents map[string]string
	Captures  map[string]image.Image
	Previews  map[string]image.Image
	Summaries map[string][]byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:   enabled,
		Documents: make(map[string]string),
		Captures:  make(map[string]image.Image),
		Previews:  make(map[string]image.Image),
		Summaries: make(map[string][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveDocument(name string, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Documents[name] = html
	return nil
}

func (m *DebugSink) SaveCapture(name string, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Captures[name] = img
	return nil
}

func (m *DebugSink) SavePreview(name string, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Previews[name] = img
	return nil
}

func (m *DebugSink) SaveSummary(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Summaries[name] = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                  { return false }
func (m *NullSink) SaveDocument(name string, html string) error    { return nil }
func (m *NullSink) SaveCapture(name string, img image.Image) error { return nil }
func (m *NullSink) SavePreview(name string, img image.Image) error { return nil }
func (m *NullSink) SaveSummary(name string, data []byte) error     { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
