// Package summarizer builds and formats summaries of preview generation runs.
package summarizer

import "time"

// Status is the outcome of one preview in a run.
type Status string

const (
	StatusGenerated Status = "generated"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome is the outcome of a whole run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed out"
	OutcomeCancelled Outcome = "cancelled"
)

// Summary contains the data collected during a generation run.
type Summary struct {
	RunID      string
	Theme      string
	Version    string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome

	Results []Result
	Caches  []CacheInfo
}

// Result is the outcome of one preview key.
type Result struct {
	Key        string
	Status     Status
	Attempts   int
	DurationMs int64
	Error      string
}

// CacheInfo is a cache snapshot taken at the end of a run.
type CacheInfo struct {
	Kind       string
	Entries    int
	Bytes      int64
	Budget     int64
	MemoryHits int64
	DiskHits   int64
	Renders    int64
	Evictions  int64
}

// NewSummary creates a new Summary started now.
func NewSummary(runID string) *Summary {
	return &Summary{
		RunID:     runID,
		StartedAt: time.Now(),
	}
}

// Duration returns the wall time of the run, or the time elapsed so far.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Count returns the number of results with status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder(runID string) *Builder {
	return &Builder{
		summary: NewSummary(runID),
	}
}

// WithTheme sets the theme the run generated for.
func (b *Builder) WithTheme(theme string) *Builder {
	b.summary.Theme = theme
	return b
}

// WithVersion sets the build version of the generated keys.
func (b *Builder) WithVersion(version string) *Builder {
	b.summary.Version = version
	return b
}

// AddResult appends the outcome of one key.
func (b *Builder) AddResult(r Result) *Builder {
	b.summary.Results = append(b.summary.Results, r)
	return b
}

// WithCaches sets the cache snapshots.
func (b *Builder) WithCaches(caches ...CacheInfo) *Builder {
	b.summary.Caches = caches
	return b
}

// Finish records the outcome and the finish time.
func (b *Builder) Finish(outcome Outcome) *Builder {
	b.summary.Outcome = outcome
	b.summary.FinishedAt = time.Now()
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
