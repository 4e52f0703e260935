// Package contest implements the contest rule engine: eligibility filtering,
// point calculation, and leaderboard ranking. Everything here is a pure
// function over explicit inputs; persistence stays in the store.
package contest

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidWindow is returned when a contest's end date is not after its
// start date. Invalid definitions are rejected at the boundary before any
// entry is created.
var ErrInvalidWindow = errors.New("contest: end date must be after start date")

// Rules restricts which records qualify. An empty list on a dimension
// accepts all values on that dimension.
type Rules struct {
	Bands []string `json:"bands,omitempty"`
	Modes []string `json:"modes,omitempty"`
}

// Scoring defines how points are computed for an eligible record. An absent
// BasePoints defaults to 1; an explicit 0 is honored, so a contest can count
// QSOs without awarding points.
type Scoring struct {
	BasePoints     *float64           `json:"qso_points,omitempty"`
	BandMultiplier map[string]float64 `json:"band_multiplier,omitempty"`
	ModeBonus      map[string]float64 `json:"mode_bonus,omitempty"`
}

// Contest is a time-windowed, rule-filtered scoring competition over
// previously ingested records.
type Contest struct {
	ID          int64
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Rules       Rules
	Scoring     Scoring
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the contest definition. It must pass before the contest is
// persisted or populated.
func (c Contest) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("contest: name is required")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return errors.New("contest: start and end dates are required")
	}
	if !c.EndDate.After(c.StartDate) {
		return ErrInvalidWindow
	}
	return nil
}

// StartDateString returns the inclusive lower date bound as YYYYMMDD.
func (c Contest) StartDateString() string { return c.StartDate.UTC().Format("20060102") }

// EndDateString returns the inclusive upper date bound as YYYYMMDD.
func (c Contest) EndDateString() string { return c.EndDate.UTC().Format("20060102") }
