package logger

import "github.com/user/wikipreview/pkg/ports"

// NoopLogger discards every message. The zero value is ready to use.
type NoopLogger struct{}

// Discard is the shared quiet logger handed to components when logging is
// off (quiet mode, library use without a logger, tests).
var Discard ports.Logger = NoopLogger{}

// NewNoop returns Discard.
func NewNoop() ports.Logger {
	return Discard
}

func (NoopLogger) Debug(string, ...interface{}) {}
func (NoopLogger) Info(string, ...interface{}) {}
func (NoopLogger) Warn(string, ...interface{}) {}
func (NoopLogger) Error(string, ...interface{}) {}

// WithComponent returns l; components of a quiet logger stay quiet.
func (l NoopLogger) WithComponent(string) ports.Logger {
	return l
}
