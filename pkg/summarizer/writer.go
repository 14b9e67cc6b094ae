package summarizer

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/user/wikipreview/pkg/ports"
)

// Writer writes run summaries to files. Unless a formatter is set, the
// format follows the file extension (see ForPath).
type Writer struct {
	fs        ports.FileSystem
	formatter Formatter
}

// NewWriter creates a new Writer on fs.
func NewWriter(fs ports.FileSystem) *Writer {
	return &Writer{fs: fs}
}

// WithFormatter fixes the output format regardless of the file extension.
func (w *Writer) WithFormatter(f Formatter) *Writer {
	w.formatter = f
	return w
}

// Write formats summary and replaces path atomically, creating parent
// directories as needed.
func (w *Writer) Write(path string, summary *Summary) error {
	if summary == nil {
		return errors.New("write summary: no summary")
	}
	f := w.formatter
	if f == nil {
		f = ForPath(path)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := w.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("write summary: create directory: %w", err)
		}
	}
	if err := w.fs.WriteFileAtomic(path, []byte(f.Format(summary))); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
