package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// NewMarkdownFormatter returns a Formatter that renders a Summary as Markdown.
func NewMarkdownFormatter() Formatter {
	return FormatFunc(formatMarkdown)
}

func formatMarkdown(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Preview Generation Summary\n\n")
	fmt.Fprintf(&b, "Generated at %s\n\n", s.StartedAt.Format(time.RFC3339))

	b.WriteString("## Run\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	fmt.Fprintf(&b, "| Run ID | %s |\n", s.RunID)
	fmt.Fprintf(&b, "| Theme | %s |\n", orNA(s.Theme))
	fmt.Fprintf(&b, "| Version | %s |\n", orNA(s.Version))
	fmt.Fprintf(&b, "| Outcome | %s |\n", orNA(string(s.Outcome)))
	fmt.Fprintf(&b, "| Duration | %d ms |\n", s.Duration().Milliseconds())
	fmt.Fprintf(&b, "| Generated | %d |\n", s.Count(StatusGenerated))
	fmt.Fprintf(&b, "| Skipped | %d |\n", s.Count(StatusSkipped))
	fmt.Fprintf(&b, "| Failed | %d |\n", s.Count(StatusFailed))
	b.WriteString("\n")

	if len(s.Results) > 0 {
		b.WriteString("## Previews\n\n")
		b.WriteString("| Key | Status | Attempts | Duration | Error |\n")
		b.WriteString("|-----|--------|----------|----------|-------|\n")
		for _, r := range s.Results {
			fmt.Fprintf(&b, "| %s | %s | %d | %d ms | %s |\n",
				r.Key, r.Status, r.Attempts, r.DurationMs, escapeCell(r.Error))
		}
		b.WriteString("\n")
	}

	if len(s.Caches) > 0 {
		b.WriteString("## Caches\n\n")
		b.WriteString("| Kind | Entries | Memory | Budget | Memory Hits | Disk Hits | Renders | Evictions |\n")
		b.WriteString("|------|---------|--------|--------|-------------|-----------|---------|-----------|\n")
		for _, c := range s.Caches {
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s | %s |\n",
				c.Kind, c.Entries,
				humanize.IBytes(uint64(c.Bytes)), humanize.IBytes(uint64(c.Budget)),
				humanize.Comma(c.MemoryHits), humanize.Comma(c.DiskHits),
				humanize.Comma(c.Renders), humanize.Comma(c.Evictions))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
