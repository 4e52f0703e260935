// Package ingest runs the upload pipeline: parse raw ADIF text, fingerprint
// each record, deduplicate per owner against the store, and tally a batch
// summary. A single bad record never aborts the batch.
package ingest

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"logshack/adif"
	"logshack/callstore"
	"logshack/store"
)

// Summary tallies one ingest batch. Skipped counts chunks that never became
// a record (missing required fields); those are distinct from Error, which
// counts persistence faults on structurally valid records.
type Summary struct {
	Total     int
	New       int
	Duplicate int
	Error     int
	Skipped   int
	Suspects  []Suspect
}

// Options tunes pipeline behavior.
type Options struct {
	Scan   adif.ScanOptions
	Review bool // flag likely-busted callsigns after the batch
}

// Pipeline ingests batches for the surrounding application. The call store
// is optional; when present, new records feed per-callsign aggregates.
type Pipeline struct {
	store *store.Store
	calls *callstore.Store
	opts  Options
}

// New builds a pipeline over the given stores.
func New(st *store.Store, calls *callstore.Store, opts Options) *Pipeline {
	return &Pipeline{store: st, calls: calls, opts: opts}
}

// Ingest parses the uploaded text and persists each new record for the
// owner. Duplicates within the batch and against the store both count as
// Duplicate; the (owner, fingerprint) constraint in the store is the final
// arbiter, so an insert losing a concurrent race is reclassified as a
// duplicate rather than an error. Returns the summary and the newly
// persisted records.
func (p *Pipeline) Ingest(owner string, data []byte) (Summary, []store.StoredRecord) {
	text := adif.Decode(data)
	_, body := adif.SplitBody(text)

	var summary Summary
	var records []adif.Record
	for _, chunk := range adif.SplitRecords(body, p.opts.Scan) {
		rec, ok := adif.ParseChunk(chunk)
		if !ok {
			summary.Skipped++
			continue
		}
		records = append(records, rec)
	}
	summary.Total = len(records)

	seen := make(map[uint64]struct{}, len(records))
	var stored []store.StoredRecord
	for _, rec := range records {
		key := xxh3.HashString(owner + "|" + rec.Fingerprint)
		if _, dup := seen[key]; dup {
			summary.Duplicate++
			continue
		}
		seen[key] = struct{}{}

		id, err := p.persistRecord(owner, rec)
		if errors.Is(err, store.ErrDuplicate) {
			summary.Duplicate++
			continue
		}
		if err != nil {
			summary.Error++
			log.Printf("Ingest: record %s/%s failed: %v", owner, rec.Call(), err)
			continue
		}
		summary.New++
		stored = append(stored, store.StoredRecord{ID: id, Owner: owner, Record: rec})
	}

	p.observeCalls(stored)
	if p.opts.Review {
		summary.Suspects = Review(records)
	}
	return summary, stored
}

// IngestFile reads and ingests a log file, then writes the upload audit row.
func (p *Pipeline) IngestFile(owner, path string) (Summary, []store.StoredRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, nil, fmt.Errorf("ingest: read %s: %w", path, err)
	}
	summary, stored := p.Ingest(owner, data)
	if err := p.store.RecordUpload(owner, filepath.Base(path), summary.Total, summary.New, summary.Duplicate, summary.Error); err != nil {
		return summary, stored, err
	}
	return summary, stored, nil
}

// persistRecord contains a single record's store write. A panic inside the
// write path is recovered and reported as that record's error so the batch
// keeps going.
func (p *Pipeline) persistRecord(owner string, rec adif.Record) (id int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ingest: record panic: %v", r)
		}
	}()
	return p.store.InsertRecord(owner, rec)
}

// observeCalls feeds newly persisted contacts into the call store.
// Best-effort: aggregate maintenance never fails an ingest.
func (p *Pipeline) observeCalls(stored []store.StoredRecord) {
	if p.calls == nil || len(stored) == 0 {
		return
	}
	obs := make([]callstore.Observation, 0, len(stored))
	for _, s := range stored {
		obs = append(obs, callstore.Observation{
			Call:    s.Record.Call(),
			QSODate: s.Record.QSODate(),
			Grid:    s.Record.Get("gridsquare"),
		})
	}
	if err := p.calls.ObserveBatch(obs); err != nil {
		log.Printf("Ingest: call store update failed: %v", err)
	}
}
