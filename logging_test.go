package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDailyFileWriterCreatesAndAppends(t *testing.T) {
	dir := t.TempDir()
	w, err := newDailyFileWriter(dir, 7)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("first line\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("second line\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	name := "logshack-" + time.Now().UTC().Format(logFileDateLayout) + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if string(data) != "first line\nsecond line\n" {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestDailyFileWriterCleanupRemovesOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, time.January, 22, 12, 0, 0, 0, time.UTC)
	files := []string{
		"logshack-10-Jan-2026.log",
		"logshack-21-Jan-2026.log",
		"logshack-22-Jan-2026.log",
		"notes.txt",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	w := &dailyFileWriter{dir: dir, retentionDays: 2}
	w.cleanup(now)

	if _, err := os.Stat(filepath.Join(dir, "logshack-10-Jan-2026.log")); !os.IsNotExist(err) {
		t.Fatalf("expected stale log to be removed, stat err = %v", err)
	}
	for _, name := range []string{"logshack-21-Jan-2026.log", "logshack-22-Jan-2026.log", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to remain: %v", name, err)
		}
	}
}

func TestNewDailyFileWriterRejectsEmptyDir(t *testing.T) {
	if _, err := newDailyFileWriter("  ", 7); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}
