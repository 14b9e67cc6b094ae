package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Formatter renders a Summary as text.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc adapts a function to Formatter.
type FormatFunc func(summary *Summary) string

// Format implements Formatter.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// ForPath picks the formatter of an output file: Markdown for .md and
// .markdown, plain text for anything else.
func ForPath(path string) Formatter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return NewMarkdownFormatter()
	}
	return NewTextFormatter()
}

// NewTextFormatter returns a Formatter with one line per preview key.
func NewTextFormatter() Formatter {
	return FormatFunc(formatText)
}

func formatText(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "run %s %s in %d ms (generated %d, skipped %d, failed %d)\n",
		s.RunID, orNA(string(s.Outcome)), s.Duration().Milliseconds(),
		s.Count(StatusGenerated), s.Count(StatusSkipped), s.Count(StatusFailed))
	for _, r := range s.Results {
		fmt.Fprintf(&b, "  %-40s %-9s %d", r.Key, r.Status, r.Attempts)
		if r.Error != "" {
			fmt.Fprintf(&b, "  %s", strings.ReplaceAll(r.Error, "\n", " "))
		}
		b.WriteByte('\n')
	}
	for _, c := range s.Caches {
		fmt.Fprintf(&b, "  %s cache: %d entries, %s of %s, %s renders\n",
			c.Kind, c.Entries, humanize.IBytes(uint64(c.Bytes)), humanize.IBytes(uint64(c.Budget)),
			humanize.Comma(c.Renders))
	}
	return b.String()
}
