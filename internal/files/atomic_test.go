package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAtomicWrite_ReplacesContent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.pgn")

	if err := AtomicWrite(path, []byte("1. e4 {first} *"), 0644); err != nil {
		t.Fatalf("initial AtomicWrite failed: %v", err)
	}
	if err := AtomicWrite(path, []byte("1. e4 {second} *"), 0644); err != nil {
		t.Fatalf("second AtomicWrite failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "1. e4 {second} *" {
		t.Fatalf("unexpected content: %q", string(data))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("leaked temp file: %s", entry.Name())
		}
	}
}

func TestAtomicWrite_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.pgn")
	if err := AtomicWrite(path, []byte("x"), 0644); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestAtomicWriteExclusive_NeverOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "session.json")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	written, err := AtomicWriteExclusive(path, []byte("new"), 0600)
	if err != nil {
		t.Fatalf("AtomicWriteExclusive failed: %v", err)
	}
	if want := filepath.Join(tmpDir, "session_1.json"); written != want {
		t.Fatalf("written = %q, want %q", written, want)
	}
	old, _ := os.ReadFile(path)
	if string(old) != "old" {
		t.Fatalf("existing file modified: %q", string(old))
	}
}
