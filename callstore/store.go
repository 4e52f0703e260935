// Package callstore persists per-callsign contact aggregates in a Pebble
// key/value store: how often a call was worked, the first and last QSO date,
// and the most recent grid square. The stats command reads it; the ingest
// pipeline feeds it with newly persisted records.
package callstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

const (
	valueVersion = 1
	callPrefix   = "c|"
	metaCountKey = "m|count"
)

var (
	errClosed       = errors.New("callstore: store is closed")
	errInvalidValue = errors.New("callstore: invalid value encoding")
)

const (
	defaultCacheSizeBytes  = int64(8 << 20)
	defaultBloomFilterBits = 10
)

// Options controls Pebble tuning. Zero fields get defaults.
type Options struct {
	CacheSizeBytes        int64
	BloomFilterBitsPerKey int
}

// Record is one callsign's aggregate.
type Record struct {
	Call         string
	Observations int
	FirstDate    string // earliest qso_date (YYYYMMDD)
	LastDate     string // latest qso_date
	Grid         string // most recently reported grid square
}

// Observation is one new contact with a callsign.
type Observation struct {
	Call    string
	QSODate string
	Grid    string
}

// Store manages the Pebble database holding callsign aggregates. Writes are
// serialized under a mutex; the ingest pipeline batches them per upload so
// contention stays low.
type Store struct {
	db    *pebble.DB
	cache *pebble.Cache

	mu     sync.Mutex
	closed bool
	count  int64
}

// Open opens or creates the call store at path.
func Open(path string, opts Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("callstore: database path is empty")
	}
	if opts.CacheSizeBytes <= 0 {
		opts.CacheSizeBytes = defaultCacheSizeBytes
	}
	if opts.BloomFilterBitsPerKey <= 0 {
		opts.BloomFilterBitsPerKey = defaultBloomFilterBits
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("callstore: ensure directory: %w", err)
	}

	filter := bloom.FilterPolicy(opts.BloomFilterBitsPerKey)
	level := pebble.LevelOptions{FilterPolicy: filter, FilterType: pebble.TableFilter}
	pebbleOpts := &pebble.Options{
		Cache:  pebble.NewCache(opts.CacheSizeBytes),
		Levels: make([]pebble.LevelOptions, 7),
	}
	for i := range pebbleOpts.Levels {
		pebbleOpts.Levels[i] = level
	}

	db, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		pebbleOpts.Cache.Unref()
		return nil, fmt.Errorf("callstore: open: %w", err)
	}
	store := &Store{db: db, cache: pebbleOpts.Cache}
	store.count, err = loadCount(db)
	if err != nil {
		_ = db.Close()
		pebbleOpts.Cache.Unref()
		return nil, err
	}
	return store, nil
}

// Close flushes and releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.db.Close()
	if s.cache != nil {
		s.cache.Unref()
		s.cache = nil
	}
	return err
}

// Observe merges one contact into the aggregates.
func (s *Store) Observe(obs Observation) error {
	return s.ObserveBatch([]Observation{obs})
}

// ObserveBatch merges contacts into the aggregates and commits a single
// synced Pebble batch.
func (s *Store) ObserveBatch(observations []Observation) error {
	if len(observations) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	count := s.count
	for _, obs := range observations {
		call := strings.ToUpper(strings.TrimSpace(obs.Call))
		if call == "" {
			continue
		}
		existing, found, err := s.getLocked(call)
		if err != nil {
			return err
		}
		merged := merge(existing, found, obs)
		merged.Call = call
		if err := batch.Set(callKey(call), encode(merged), nil); err != nil {
			return fmt.Errorf("callstore: batch set %s: %w", call, err)
		}
		if !found {
			count++
		}
	}
	if count != s.count {
		if err := batch.Set([]byte(metaCountKey), encodeCount(count), nil); err != nil {
			return fmt.Errorf("callstore: batch set count: %w", err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("callstore: batch commit: %w", err)
	}
	s.count = count
	return nil
}

// Get fetches one callsign's aggregate; (nil, nil) when unknown.
func (s *Store) Get(call string) (*Record, error) {
	call = strings.ToUpper(strings.TrimSpace(call))
	if call == "" {
		return nil, errors.New("callstore: call is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}
	rec, found, err := s.getLocked(call)
	if err != nil || !found {
		return nil, err
	}
	rec.Call = call
	return &rec, nil
}

// Count returns the number of distinct callsigns stored.
func (s *Store) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Entries returns every stored aggregate, ordered by callsign.
func (s *Store) Entries() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(callPrefix),
		UpperBound: []byte(callPrefix + "\xff"),
	})
	if err != nil {
		return nil, fmt.Errorf("callstore: entries iterator: %w", err)
	}
	defer iter.Close()

	var list []Record
	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decode(iter.Value())
		if err != nil {
			return nil, err
		}
		rec.Call = string(iter.Key()[len(callPrefix):])
		list = append(list, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("callstore: iterate entries: %w", err)
	}
	return list, nil
}

func (s *Store) getLocked(call string) (Record, bool, error) {
	value, closer, err := s.db.Get(callKey(call))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("callstore: get %s: %w", call, err)
	}
	defer closer.Close()
	rec, err := decode(value)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func merge(existing Record, found bool, obs Observation) Record {
	merged := existing
	merged.Observations++
	date := strings.TrimSpace(obs.QSODate)
	if date != "" {
		if !found || merged.FirstDate == "" || date < merged.FirstDate {
			merged.FirstDate = date
		}
		if merged.LastDate == "" || date > merged.LastDate {
			merged.LastDate = date
		}
	}
	if grid := strings.ToUpper(strings.TrimSpace(obs.Grid)); grid != "" {
		merged.Grid = grid
	}
	return merged
}

// Value layout: version byte, u32 observations, then length-prefixed
// first date, last date, and grid strings.
func encode(rec Record) []byte {
	first := rec.FirstDate
	last := rec.LastDate
	grid := rec.Grid
	buf := make([]byte, 0, 8+len(first)+len(last)+len(grid))
	buf = append(buf, valueVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(rec.Observations))
	for _, field := range []string{first, last, grid} {
		buf = append(buf, byte(len(field)))
		buf = append(buf, field...)
	}
	return buf
}

func decode(raw []byte) (Record, error) {
	if len(raw) < 5 || raw[0] != valueVersion {
		return Record{}, errInvalidValue
	}
	rec := Record{Observations: int(binary.BigEndian.Uint32(raw[1:5]))}
	offset := 5
	fields := make([]string, 3)
	for i := range fields {
		if offset >= len(raw) {
			return Record{}, errInvalidValue
		}
		n := int(raw[offset])
		offset++
		if offset+n > len(raw) {
			return Record{}, errInvalidValue
		}
		fields[i] = string(raw[offset : offset+n])
		offset += n
	}
	rec.FirstDate, rec.LastDate, rec.Grid = fields[0], fields[1], fields[2]
	return rec, nil
}

func encodeCount(count int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(count))
	return buf
}

func loadCount(db *pebble.DB) (int64, error) {
	value, closer, err := db.Get([]byte(metaCountKey))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("callstore: read count: %w", err)
	}
	defer closer.Close()
	if len(value) != 8 {
		return 0, errInvalidValue
	}
	return int64(binary.BigEndian.Uint64(value)), nil
}

func callKey(call string) []byte {
	return append([]byte(callPrefix), call...)
}
