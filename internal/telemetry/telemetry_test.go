package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecorder_DisabledFlushIsNoop(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "snapshot", false)
	_ = r.Phase("connect", func() error { return nil })

	path, err := r.Flush(true, nil)
	if err != nil || path != "" {
		t.Fatalf("expected no-op flush, got path=%q err=%v", path, err)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, ".xtraq", "telemetry"))
	if len(entries) != 0 {
		t.Fatalf("expected no telemetry directory contents, got %d entries", len(entries))
	}
}

func TestRecorder_EnabledWritesReport(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "build", true)
	_ = r.Phase("generate", func() error { return nil })

	path, err := r.Flush(false, nil)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("expected report file at %s: %v", path, statErr)
	}
}
