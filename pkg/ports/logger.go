// Package ports defines the interfaces the preview pipeline depends on:
// content loading, document building, render hosts and surfaces, image
// processing, file storage, debug output and logging.
package ports

import "strings"

// LogLevel is the severity of a log message. Levels are ordered; a logger
// prints messages at or above its level.
type LogLevel int

const (
	LevelDebug LogLevel = iota // Stage internals: surface load, capture, crop
	LevelInfo                  // Generation runs, cache maintenance
	LevelWarn                  // Recoverable: placeholder fallbacks, failed disk writes
	LevelError                 // A run or command failed
	LevelQuiet                 // Nothing is printed
)

var levelNames = [...]string{"debug", "info", "warn", "error", "quiet"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelQuiet {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel parses a level name, case-insensitively. "warning" is
// accepted for warn; anything unrecognized is LevelInfo.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Logger logs printf-style messages. The message is a translation key: it
// is looked up in the active lexicon before formatting.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that tags messages with component.
	WithComponent(component string) Logger
}
