package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/wikipreview/pkg/ports"
)

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriter(ports.LevelInfo, &out, &errOut)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	l.Warn("warned")
	l.Error("failed")

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out.String(), "shown 2") {
		t.Errorf("expected info on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "warned") || !strings.Contains(errOut.String(), "failed") {
		t.Errorf("expected warn and error on stderr, got %q", errOut.String())
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var out bytes.Buffer
	l := NewWriter(ports.LevelDebug, &out, &out)

	l.WithComponent("cache").Debug("Memory hit: %s", "1.0_theme_dark")

	if got := out.String(); got != "[cache] Memory hit: 1.0_theme_dark\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out bytes.Buffer
	l := NewWriter(ports.LevelQuiet, &out, &out)

	l.Error("nothing")

	if out.Len() != 0 {
		t.Errorf("expected no output in quiet mode, got %q", out.String())
	}
}

func TestConsoleLogger_NestedComponent(t *testing.T) {
	var out bytes.Buffer
	l := NewWriter(ports.LevelDebug, &out, &out)

	l.WithComponent("service").WithComponent("cache").Info("Cache cleared")

	if got := out.String(); got != "[service/cache] Cache cleared\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want ports.LogLevel
	}{
		{"debug", ports.LevelDebug},
		{" INFO ", ports.LevelInfo},
		{"warning", ports.LevelWarn},
		{"warn", ports.LevelWarn},
		{"error", ports.LevelError},
		{"quiet", ports.LevelQuiet},
		{"verbose", ports.LevelInfo},
	}

	for _, tt := range tests {
		if got := ports.ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := ports.LogLevel(99).String(); got != "unknown" {
		t.Errorf("expected unknown, got %q", got)
	}
}

func TestNoop(t *testing.T) {
	l := NewNoop().WithComponent("renderer")
	l.Error("dropped %d", 1)
	if l != Discard {
		t.Error("expected components of the quiet logger to be Discard")
	}
}
