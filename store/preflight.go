package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// PreflightResult reports the outcome of the startup database check.
type PreflightResult struct {
	Healthy         bool
	Quarantined     bool
	QuarantinePath  string
	Elapsed         time.Duration
	CheckpointError error
	CheckError      error
}

// Preflight runs a bounded WAL checkpoint plus quick_check before the main
// open path. A corrupt or stalled database is renamed to a timestamped
// quarantine path so startup can continue with a fresh file instead of
// hanging on a damaged one.
func Preflight(path string, timeout time.Duration, logf func(string, ...any)) (PreflightResult, error) {
	if logf == nil {
		logf = log.Printf
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	res := PreflightResult{}
	if strings.TrimSpace(path) == "" {
		return res, errors.New("store: preflight: empty path")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		res.Healthy = true
		return res, nil
	}

	start := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return res, fmt.Errorf("store: preflight open: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, fmt.Sprintf("pragma busy_timeout=%d", timeout.Milliseconds())); err != nil {
		return res, fmt.Errorf("store: preflight busy_timeout: %w", err)
	}

	_, res.CheckpointError = db.ExecContext(ctx, "pragma wal_checkpoint(TRUNCATE)")
	res.CheckError = quickCheck(ctx, db)
	res.Elapsed = time.Since(start)

	if res.CheckpointError == nil && res.CheckError == nil {
		res.Healthy = true
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("store: preflight timed out after %s", timeout)
	}

	_ = db.Close()
	quarantinePath, err := quarantine(path)
	if err != nil {
		return res, fmt.Errorf("store: preflight quarantine: %w (checkpoint=%v, quick_check=%v)", err, res.CheckpointError, res.CheckError)
	}
	res.Quarantined = true
	res.QuarantinePath = quarantinePath
	logf("store preflight: database failed check (checkpoint=%v, quick_check=%v); quarantined to %s", res.CheckpointError, res.CheckError, quarantinePath)
	return res, nil
}

func quickCheck(ctx context.Context, db *sql.DB) error {
	var result string
	if err := db.QueryRowContext(ctx, "pragma quick_check(1)").Scan(&result); err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(result), "ok") {
		return fmt.Errorf("quick_check reported %q", result)
	}
	return nil
}

// quarantine renames the database and its WAL/SHM sidecars out of the way.
func quarantine(path string) (string, error) {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	target := fmt.Sprintf("%s.quarantine-%s", path, stamp)
	if err := os.Rename(path, target); err != nil {
		return "", err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		sidecar := path + suffix
		if _, err := os.Stat(sidecar); err == nil {
			_ = os.Rename(sidecar, target+suffix)
		}
	}
	return target, nil
}
