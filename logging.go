package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"logshack/config"
)

const logFileDateLayout = "02-Jan-2006"

// dailyFileWriter appends to logshack-<date>.log, rotating when the UTC date
// changes and pruning files past the retention window.
type dailyFileWriter struct {
	dir           string
	retentionDays int

	mu          sync.Mutex
	currentDate string
	file        *os.File
}

func newDailyFileWriter(dir string, retentionDays int) (*dailyFileWriter, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("log directory is empty")
	}
	if retentionDays <= 0 {
		retentionDays = 7
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", trimmed, err)
	}
	w := &dailyFileWriter{dir: trimmed, retentionDays: retentionDays}
	w.cleanup(time.Now().UTC())
	return w, nil
}

func (w *dailyFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now().UTC()
	date := now.Format(logFileDateLayout)
	if w.file == nil || date != w.currentDate {
		if w.file != nil {
			_ = w.file.Close()
		}
		path := filepath.Join(w.dir, "logshack-"+date+".log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		w.file = file
		w.currentDate = date
		w.cleanup(now)
	}
	return w.file.Write(p)
}

func (w *dailyFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *dailyFileWriter) cleanup(now time.Time) {
	cutoff := now.AddDate(0, 0, -w.retentionDays)
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "logshack-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		dateText := strings.TrimSuffix(strings.TrimPrefix(name, "logshack-"), ".log")
		date, err := time.Parse(logFileDateLayout, dateText)
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			_ = os.Remove(filepath.Join(w.dir, name))
		}
	}
}

// setupLogging routes the standard logger to stdout, plus a daily file when
// configured. Returns a closer for shutdown.
func setupLogging(cfg config.LoggingConfig) (func(), error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		log.SetOutput(os.Stdout)
		return func() {}, nil
	}
	fileWriter, err := newDailyFileWriter(cfg.Dir, cfg.RetentionDays)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
	return func() {
		log.SetOutput(os.Stdout)
		_ = fileWriter.Close()
	}, nil
}
