package store

import (
	"database/sql"
	"fmt"
	"time"

	"logshack/contest"
)

// CreateContest validates and persists a contest, filling in its ID and
// timestamps. Invalid definitions are rejected before any row is written.
func (s *Store) CreateContest(c *contest.Contest) error {
	if err := c.Validate(); err != nil {
		return err
	}
	rulesJSON, err := json.MarshalToString(c.Rules)
	if err != nil {
		return fmt.Errorf("store: encode rules: %w", err)
	}
	scoringJSON, err := json.MarshalToString(c.Scoring)
	if err != nil {
		return fmt.Errorf("store: encode scoring: %w", err)
	}
	now := time.Now().UTC()
	res, err := s.db.Exec(`insert into contests
		(name, description, start_date, end_date, rules, scoring, is_active, created_at, updated_at)
		values (?,?,?,?,?,?,?,?,?)`,
		c.Name, c.Description,
		c.StartDate.UTC().Format(time.RFC3339), c.EndDate.UTC().Format(time.RFC3339),
		rulesJSON, scoringJSON, boolToInt(c.IsActive),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: insert contest: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: insert contest id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// UpdateContest overwrites a contest's mutable fields. Entries already
// linked keep their frozen points; rule or scoring changes only affect
// future population runs.
func (s *Store) UpdateContest(c contest.Contest) error {
	if err := c.Validate(); err != nil {
		return err
	}
	rulesJSON, err := json.MarshalToString(c.Rules)
	if err != nil {
		return fmt.Errorf("store: encode rules: %w", err)
	}
	scoringJSON, err := json.MarshalToString(c.Scoring)
	if err != nil {
		return fmt.Errorf("store: encode scoring: %w", err)
	}
	res, err := s.db.Exec(`update contests set
		name = ?, description = ?, start_date = ?, end_date = ?,
		rules = ?, scoring = ?, is_active = ?, updated_at = ?
		where id = ?`,
		c.Name, c.Description,
		c.StartDate.UTC().Format(time.RFC3339), c.EndDate.UTC().Format(time.RFC3339),
		rulesJSON, scoringJSON, boolToInt(c.IsActive),
		time.Now().UTC().Format(time.RFC3339), c.ID)
	if err != nil {
		return fmt.Errorf("store: update contest: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update contest result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContest removes a contest and cascades to its entries.
func (s *Store) DeleteContest(id int64) error {
	res, err := s.db.Exec(`delete from contests where id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete contest: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete contest result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetContest loads a contest by id.
func (s *Store) GetContest(id int64) (contest.Contest, error) {
	row := s.db.QueryRow(`select id, name, description, start_date, end_date,
		rules, scoring, is_active, created_at, updated_at from contests where id = ?`, id)
	c, err := scanContest(row)
	if err == sql.ErrNoRows {
		return contest.Contest{}, ErrNotFound
	}
	if err != nil {
		return contest.Contest{}, err
	}
	return c, nil
}

// ListContests returns all contests, newest start date first.
func (s *Store) ListContests() ([]contest.Contest, error) {
	rows, err := s.db.Query(`select id, name, description, start_date, end_date,
		rules, scoring, is_active, created_at, updated_at from contests
		order by start_date desc`)
	if err != nil {
		return nil, fmt.Errorf("store: list contests: %w", err)
	}
	defer rows.Close()

	var contests []contest.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		contests = append(contests, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate contests: %w", err)
	}
	return contests, nil
}

// PopulateSummary reports one population run.
type PopulateSummary struct {
	NewEntries   int64
	TotalEntries int64
}

// PopulateContest links every eligible, not-yet-linked record to the contest
// with its point value frozen at link time. Reruns over an unchanged record
// pool add nothing: already-linked records are skipped up front, and an
// insert losing a concurrent race lands on the uniqueness constraint and is
// ignored rather than recounted.
func (s *Store) PopulateContest(id int64) (PopulateSummary, error) {
	c, err := s.GetContest(id)
	if err != nil {
		return PopulateSummary{}, err
	}
	candidates, err := s.RecordsBetween(c.StartDateString(), c.EndDateString())
	if err != nil {
		return PopulateSummary{}, err
	}
	linked, err := s.linkedEntryIDs(id)
	if err != nil {
		return PopulateSummary{}, err
	}

	summary := PopulateSummary{}
	for _, candidate := range candidates {
		if _, ok := linked[candidate.ID]; ok {
			continue
		}
		if !contest.Eligible(c, candidate.Record) {
			continue
		}
		points := contest.Score(c, candidate.Record)
		err := s.insertEntry(id, candidate.Owner, candidate.ID, points)
		if err == ErrDuplicate {
			continue
		}
		if err != nil {
			return summary, err
		}
		summary.NewEntries++
	}
	summary.TotalEntries, err = s.EntryCount(id)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

// EntryCount returns the number of entries linked to a contest.
func (s *Store) EntryCount(id int64) (int64, error) {
	var count int64
	if err := s.db.QueryRow(`select count(*) from contest_entries where contest_id = ?`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: entry count: %w", err)
	}
	return count, nil
}

// Leaderboard aggregates the contest's valid entries into ranked standings.
func (s *Store) Leaderboard(id int64) ([]contest.Standing, error) {
	if _, err := s.GetContest(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`select owner, points from contest_entries
		where contest_id = ? and is_valid = 1 order by id`, id)
	if err != nil {
		return nil, fmt.Errorf("store: leaderboard query: %w", err)
	}
	defer rows.Close()

	var entries []contest.ScoredEntry
	for rows.Next() {
		var entry contest.ScoredEntry
		if err := rows.Scan(&entry.Owner, &entry.Points); err != nil {
			return nil, fmt.Errorf("store: scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate entries: %w", err)
	}
	return contest.Rank(entries), nil
}

// OwnerEntry is one contact on a participant's contest detail view.
type OwnerEntry struct {
	QSODate string  `json:"qso_date"`
	TimeOn  string  `json:"time_on"`
	Call    string  `json:"call"`
	Band    string  `json:"band"`
	Mode    string  `json:"mode"`
	Points  float64 `json:"points"`
}

// EntriesForOwner returns a participant's valid contest entries with their
// contact details, ordered by date and time.
func (s *Store) EntriesForOwner(contestID int64, owner string) ([]OwnerEntry, error) {
	rows, err := s.db.Query(`select l.qso_date, l.time_on, l.call,
		coalesce(l.band, ''), coalesce(l.mode, ''), e.points
		from contest_entries e join log_entries l on l.id = e.log_entry_id
		where e.contest_id = ? and e.owner = ? and e.is_valid = 1
		order by l.qso_date, l.time_on`, contestID, owner)
	if err != nil {
		return nil, fmt.Errorf("store: owner entries: %w", err)
	}
	defer rows.Close()

	var entries []OwnerEntry
	for rows.Next() {
		var entry OwnerEntry
		if err := rows.Scan(&entry.QSODate, &entry.TimeOn, &entry.Call, &entry.Band, &entry.Mode, &entry.Points); err != nil {
			return nil, fmt.Errorf("store: scan owner entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate owner entries: %w", err)
	}
	return entries, nil
}

func (s *Store) linkedEntryIDs(contestID int64) (map[int64]struct{}, error) {
	rows, err := s.db.Query(`select log_entry_id from contest_entries where contest_id = ?`, contestID)
	if err != nil {
		return nil, fmt.Errorf("store: linked entries: %w", err)
	}
	defer rows.Close()

	linked := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan linked entry: %w", err)
		}
		linked[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate linked entries: %w", err)
	}
	return linked, nil
}

func (s *Store) insertEntry(contestID int64, owner string, logEntryID int64, points float64) error {
	res, err := s.db.Exec(`insert into contest_entries
		(contest_id, owner, log_entry_id, points, is_valid)
		values (?,?,?,?,1)
		on conflict(contest_id, log_entry_id) do nothing`,
		contestID, owner, logEntryID, points)
	if err != nil {
		return fmt.Errorf("store: insert entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: insert entry result: %w", err)
	}
	if affected == 0 {
		return ErrDuplicate
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContest(row rowScanner) (contest.Contest, error) {
	var c contest.Contest
	var start, end, rulesJSON, scoringJSON, createdAt, updatedAt string
	var active int
	err := row.Scan(&c.ID, &c.Name, &c.Description, &start, &end,
		&rulesJSON, &scoringJSON, &active, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return contest.Contest{}, err
	}
	if err != nil {
		return contest.Contest{}, fmt.Errorf("store: scan contest: %w", err)
	}
	c.IsActive = active != 0
	if c.StartDate, err = time.Parse(time.RFC3339, start); err != nil {
		return contest.Contest{}, fmt.Errorf("store: parse start date: %w", err)
	}
	if c.EndDate, err = time.Parse(time.RFC3339, end); err != nil {
		return contest.Contest{}, fmt.Errorf("store: parse end date: %w", err)
	}
	if err := json.UnmarshalFromString(rulesJSON, &c.Rules); err != nil {
		return contest.Contest{}, fmt.Errorf("store: decode rules: %w", err)
	}
	if err := json.UnmarshalFromString(scoringJSON, &c.Scoring); err != nil {
		return contest.Contest{}, fmt.Errorf("store: decode scoring: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		c.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		c.UpdatedAt = ts
	}
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
