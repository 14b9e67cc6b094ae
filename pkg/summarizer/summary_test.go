package summarizer

import (
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary("run-1")
	after := time.Now()

	if summary.RunID != "run-1" {
		t.Errorf("expected run ID 'run-1', got %q", summary.RunID)
	}
	if summary.StartedAt.Before(before) || summary.StartedAt.After(after) {
		t.Errorf("StartedAt should be between %v and %v, got %v", before, after, summary.StartedAt)
	}
}

func TestBuilder(t *testing.T) {
	summary := NewBuilder("run-2").
		WithTheme("dark").
		WithVersion("1.4.0").
		AddResult(Result{Key: "a", Status: StatusGenerated, Attempts: 1}).
		AddResult(Result{Key: "b", Status: StatusSkipped}).
		AddResult(Result{Key: "c", Status: StatusFailed, Attempts: 3, Error: "timeout"}).
		AddResult(Result{Key: "d", Status: StatusGenerated, Attempts: 2}).
		Finish(OutcomeCompleted).
		Build()

	if summary.Theme != "dark" || summary.Version != "1.4.0" {
		t.Errorf("unexpected theme/version %q/%q", summary.Theme, summary.Version)
	}
	if summary.Outcome != OutcomeCompleted {
		t.Errorf("expected outcome completed, got %q", summary.Outcome)
	}
	if summary.FinishedAt.IsZero() {
		t.Error("expected FinishedAt to be set")
	}
	if got := summary.Count(StatusGenerated); got != 2 {
		t.Errorf("expected 2 generated, got %d", got)
	}
	if got := summary.Count(StatusFailed); got != 1 {
		t.Errorf("expected 1 failed, got %d", got)
	}
}

func TestSummary_Duration(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	summary := &Summary{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}

	if got := summary.Duration(); got != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", got)
	}
}
