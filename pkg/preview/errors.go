package preview

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies render failures.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrTimeout
	ErrContentLoad
	ErrDocumentBuild
	ErrSurface
	ErrCapture
	ErrHostContextTimeout
	ErrCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTimeout:
		return "timeout"
	case ErrContentLoad:
		return "content load failure"
	case ErrDocumentBuild:
		return "document build failure"
	case ErrSurface:
		return "surface error"
	case ErrCapture:
		return "capture failure"
	case ErrHostContextTimeout:
		return "host context timeout"
	case ErrCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RenderError is returned by every render path. It wraps the underlying cause.
type RenderError struct {
	Kind ErrorKind
	Key  Key
	Err  error
}

// NewRenderError builds a RenderError for key.
func NewRenderError(kind ErrorKind, key Key, err error) *RenderError {
	return &RenderError{Kind: kind, Key: key, Err: err}
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("render %s: %s", e.Key, e.Kind)
	}
	return fmt.Sprintf("render %s: %s: %v", e.Key, e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first RenderError in err's chain,
// or ErrUnknown when there is none.
func KindOf(err error) ErrorKind {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ErrUnknown
}

// IsCancellation reports whether err belongs to the cancellation class:
// context cancellation, a cancelled render, or a host context that did not
// become available in time.
func IsCancellation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch KindOf(err) {
	case ErrCancelled, ErrHostContextTimeout:
		return true
	}
	return false
}

// Classify maps a context error to the matching kind, falling back to def.
func Classify(err error, def ErrorKind) ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return ErrCancelled
	default:
		return def
	}
}
