package store

import (
	"database/sql"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"logshack/adif"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StoredRecord is a persisted log record with its row identity.
type StoredRecord struct {
	ID         int64
	Owner      string
	Record     adif.Record
	UploadedAt time.Time
}

// recordColumns lists the core-field columns in insert/select order. The
// additional_fields JSON column holds the extension map.
var recordColumns = []string{
	"qso_date", "time_on", "call", "band", "mode", "freq",
	"rst_sent", "rst_rcvd", "qso_date_off", "time_off",
	"station_callsign", "my_gridsquare", "gridsquare",
	"name", "qth", "comment",
}

// InsertRecord persists a record for an owner. When a row with the same
// (owner, fingerprint) already exists, including one written concurrently,
// it returns ErrDuplicate. The uniqueness constraint, not the caller's prior
// lookup, decides who wins.
func (s *Store) InsertRecord(owner string, rec adif.Record) (int64, error) {
	extJSON := "{}"
	if len(rec.ExtensionFields) > 0 {
		encoded, err := json.MarshalToString(rec.ExtensionFields)
		if err != nil {
			return 0, fmt.Errorf("store: encode extension fields: %w", err)
		}
		extJSON = encoded
	}

	args := make([]any, 0, len(recordColumns)+4)
	args = append(args, owner)
	for _, col := range recordColumns {
		args = append(args, rec.Fields[col])
	}
	args = append(args, extJSON, rec.Fingerprint, time.Now().UTC().Format(time.RFC3339))

	res, err := s.db.Exec(`insert into log_entries
		(owner, qso_date, time_on, call, band, mode, freq,
		 rst_sent, rst_rcvd, qso_date_off, time_off,
		 station_callsign, my_gridsquare, gridsquare,
		 name, qth, comment, additional_fields, fingerprint, uploaded_at)
		values (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		on conflict(owner, fingerprint) do nothing`, args...)
	if err != nil {
		return 0, fmt.Errorf("store: insert record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: insert record result: %w", err)
	}
	if affected == 0 {
		return 0, ErrDuplicate
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert record id: %w", err)
	}
	return id, nil
}

// HasFingerprint reports whether the owner already has a record with the
// given fingerprint.
func (s *Store) HasFingerprint(owner, fingerprint string) (bool, error) {
	var one int
	err := s.db.QueryRow(`select 1 from log_entries where owner = ? and fingerprint = ?`,
		owner, fingerprint).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: fingerprint lookup: %w", err)
	}
	return true, nil
}

// RecordFilter narrows RecordsByOwner results. Call matches as a substring;
// Band and Mode match exactly. Empty fields match everything.
type RecordFilter struct {
	Call string
	Band string
	Mode string
}

// RecordsByOwner returns an owner's records ordered by date and time.
func (s *Store) RecordsByOwner(owner string, f RecordFilter) ([]StoredRecord, error) {
	query := `select ` + selectColumns() + ` from log_entries where owner = ?`
	args := []any{owner}
	if f.Call != "" {
		query += ` and call like ?`
		args = append(args, "%"+f.Call+"%")
	}
	if f.Band != "" {
		query += ` and band = ?`
		args = append(args, f.Band)
	}
	if f.Mode != "" {
		query += ` and mode = ?`
		args = append(args, f.Mode)
	}
	query += ` order by qso_date, time_on`
	return s.queryRecords(query, args...)
}

// RecordsBetween returns every owner's records with qso_date inside the
// inclusive [startDate, endDate] bounds (YYYYMMDD). This is the candidate
// pool for contest population.
func (s *Store) RecordsBetween(startDate, endDate string) ([]StoredRecord, error) {
	query := `select ` + selectColumns() + ` from log_entries
		where qso_date >= ? and qso_date <= ? order by qso_date, time_on`
	return s.queryRecords(query, startDate, endDate)
}

// CountByOwner returns the number of persisted records for an owner.
func (s *Store) CountByOwner(owner string) (int64, error) {
	var count int64
	if err := s.db.QueryRow(`select count(*) from log_entries where owner = ?`, owner).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: count records: %w", err)
	}
	return count, nil
}

// RecordUpload appends an audit row for one ingest run.
func (s *Store) RecordUpload(owner, filename string, total, newCount, duplicates, errorCount int) error {
	_, err := s.db.Exec(`insert into uploads
		(owner, filename, total_records, new_records, duplicate_records, error_records, uploaded_at)
		values (?,?,?,?,?,?,?)`,
		owner, filename, total, newCount, duplicates, errorCount,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: record upload: %w", err)
	}
	return nil
}

func selectColumns() string {
	cols := "id, owner"
	for _, c := range recordColumns {
		cols += ", " + c
	}
	return cols + ", additional_fields, fingerprint, uploaded_at"
}

func (s *Store) queryRecords(query string, args ...any) ([]StoredRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query records: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate records: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (StoredRecord, error) {
	var stored StoredRecord
	coreValues := make([]sql.NullString, len(recordColumns))
	var extJSON, fingerprint, uploadedAt string

	dest := make([]any, 0, len(recordColumns)+5)
	dest = append(dest, &stored.ID, &stored.Owner)
	for i := range coreValues {
		dest = append(dest, &coreValues[i])
	}
	dest = append(dest, &extJSON, &fingerprint, &uploadedAt)
	if err := rows.Scan(dest...); err != nil {
		return StoredRecord{}, fmt.Errorf("store: scan record: %w", err)
	}

	rec := adif.Record{Fields: make(map[string]string), Fingerprint: fingerprint}
	for i, col := range recordColumns {
		if coreValues[i].Valid && coreValues[i].String != "" {
			rec.Fields[col] = coreValues[i].String
		}
	}
	if extJSON != "" && extJSON != "{}" {
		ext := make(map[string]string)
		if err := json.UnmarshalFromString(extJSON, &ext); err != nil {
			return StoredRecord{}, fmt.Errorf("store: decode extension fields: %w", err)
		}
		if len(ext) > 0 {
			rec.ExtensionFields = ext
		}
	}
	stored.Record = rec
	if ts, err := time.Parse(time.RFC3339, uploadedAt); err == nil {
		stored.UploadedAt = ts
	}
	return stored, nil
}
