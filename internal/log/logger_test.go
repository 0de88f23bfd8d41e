package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: slog.LevelInfo, Output: &buf})

	WithComponent(root, ComponentSession).Info("ready")

	if !strings.Contains(buf.String(), "component=session") {
		t.Errorf("component attribute missing: %q", buf.String())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentWorker).
		WithOperation(OpSave).
		WithError(errors.New("disk full")).
		WithError(nil).
		WithVersion(3)

	if len(f) != 4 {
		t.Fatalf("fields = %v, want 4 entries", f)
	}
	if f[FieldError] != "disk full" {
		t.Errorf("error field = %v", f[FieldError])
	}
	if got := len(f.ToSlice()); got != 8 {
		t.Errorf("ToSlice() len = %d, want 8", got)
	}
}
