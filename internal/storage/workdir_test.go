package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWorkDir_WriteClip(t *testing.T) {
	wd, err := NewWorkDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkDir: %v", err)
	}

	path, err := wd.WriteClip(7, []byte("RIFF"))
	if err != nil {
		t.Fatalf("WriteClip: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "chunk_") || !strings.HasSuffix(base, "_7.wav") {
		t.Errorf("unexpected clip name %q", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "RIFF" {
		t.Errorf("unexpected clip contents %q", data)
	}

	if err := wd.Remove(path); err != nil {
		t.Errorf("Remove: %v", err)
	}
	if err := wd.Remove(path); err != nil {
		t.Errorf("Remove of missing file should not error, got %v", err)
	}
}

func TestWorkDir_Sweep(t *testing.T) {
	wd, err := NewWorkDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkDir: %v", err)
	}

	oldPath, err := wd.WriteClip(1, []byte("old"))
	if err != nil {
		t.Fatalf("WriteClip: %v", err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldPath, stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	freshPath, err := wd.WriteClip(2, []byte("fresh"))
	if err != nil {
		t.Fatalf("WriteClip: %v", err)
	}

	if got := wd.Sweep(time.Hour); got != 1 {
		t.Errorf("Sweep deleted %d files, want 1", got)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("expected stale clip deleted")
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Errorf("expected fresh clip kept, got %v", err)
	}
}
