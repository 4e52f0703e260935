package store

import (
	"errors"
	"testing"
	"time"

	"logshack/contest"
)

func winterSprint() contest.Contest {
	base := 1.0
	return contest.Contest{
		Name:      "Winter Sprint",
		StartDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
		Rules:     contest.Rules{Bands: []string{"20m"}},
		Scoring: contest.Scoring{
			BasePoints:     &base,
			BandMultiplier: map[string]float64{"20m": 2},
			ModeBonus:      map[string]float64{"CW": 1},
		},
	}
}

func TestCreateContestValidates(t *testing.T) {
	s := newTestStore(t)
	c := winterSprint()
	c.EndDate = c.StartDate
	if err := s.CreateContest(&c); !errors.Is(err, contest.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestContestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	c := winterSprint()
	if err := s.CreateContest(&c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	got, err := s.GetContest(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != c.Name || !got.IsActive {
		t.Fatalf("unexpected contest %+v", got)
	}
	if len(got.Rules.Bands) != 1 || got.Rules.Bands[0] != "20m" {
		t.Fatalf("rules lost through storage: %+v", got.Rules)
	}
	if got.Scoring.BandMultiplier["20m"] != 2 || got.Scoring.ModeBonus["CW"] != 1 {
		t.Fatalf("scoring lost through storage: %+v", got.Scoring)
	}
	if got.Scoring.BasePoints == nil || *got.Scoring.BasePoints != 1 {
		t.Fatalf("base points lost through storage: %+v", got.Scoring.BasePoints)
	}
	if !got.StartDate.Equal(c.StartDate) || !got.EndDate.Equal(c.EndDate) {
		t.Fatalf("window changed: %v..%v", got.StartDate, got.EndDate)
	}

	got.Description = "January CW sprint"
	if err := s.UpdateContest(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = s.GetContest(c.ID)
	if err != nil || got.Description != "January CW sprint" {
		t.Fatalf("update not persisted: %+v, %v", got, err)
	}

	list, err := s.ListContests()
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v (%d contests)", err, len(list))
	}
}

func TestGetContestNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetContest(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteContest(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing: expected ErrNotFound, got %v", err)
	}
}

func TestPopulateContestScoresAndIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	c := winterSprint()
	if err := s.CreateContest(&c); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Two eligible contacts, one outside the window, one on a band the
	// rules reject.
	if _, err := s.InsertRecord("W1AW", testRecord("K1ABC", "20240115", "1200")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertRecord("G4XYZ", testRecord("K1ABD", "20240116", "0900")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertRecord("W1AW", testRecord("K1ABE", "20240201", "1200")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	offBand := testRecord("K1ABF", "20240117", "1000")
	offBand.Fields["band"] = "40m"
	if _, err := s.InsertRecord("W1AW", offBand); err != nil {
		t.Fatalf("insert: %v", err)
	}

	summary, err := s.PopulateContest(c.ID)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if summary.NewEntries != 2 || summary.TotalEntries != 2 {
		t.Fatalf("first run summary %+v, want 2 new / 2 total", summary)
	}

	summary, err = s.PopulateContest(c.ID)
	if err != nil {
		t.Fatalf("second populate: %v", err)
	}
	if summary.NewEntries != 0 || summary.TotalEntries != 2 {
		t.Fatalf("rerun summary %+v, want 0 new / 2 total", summary)
	}

	// 20m CW in a 2x band with a +1 mode bonus is worth 3 points.
	entries, err := s.EntriesForOwner(c.ID, "W1AW")
	if err != nil || len(entries) != 1 {
		t.Fatalf("owner entries: %v (%d entries)", err, len(entries))
	}
	if entries[0].Points != 3 || entries[0].Call != "K1ABC" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestLeaderboardRanks(t *testing.T) {
	s := newTestStore(t)
	c := winterSprint()
	if err := s.CreateContest(&c); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, ins := range []struct {
		owner, call, time string
	}{
		{"W1AW", "K1ABC", "1200"},
		{"W1AW", "K1ABD", "1300"},
		{"G4XYZ", "K1ABC", "1400"},
	} {
		if _, err := s.InsertRecord(ins.owner, testRecord(ins.call, "20240115", ins.time)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if _, err := s.PopulateContest(c.ID); err != nil {
		t.Fatalf("populate: %v", err)
	}

	standings, err := s.Leaderboard(c.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(standings) != 2 {
		t.Fatalf("expected 2 standings, got %+v", standings)
	}
	if standings[0].Callsign != "W1AW" || standings[0].Rank != 1 ||
		standings[0].QSOCount != 2 || standings[0].TotalPoints != 6 {
		t.Fatalf("unexpected leader %+v", standings[0])
	}
	if standings[1].Callsign != "G4XYZ" || standings[1].TotalPoints != 3 {
		t.Fatalf("unexpected runner-up %+v", standings[1])
	}
}

func TestDeleteContestCascades(t *testing.T) {
	s := newTestStore(t)
	c := winterSprint()
	if err := s.CreateContest(&c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.InsertRecord("W1AW", testRecord("K1ABC", "20240115", "1200")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.PopulateContest(c.ID); err != nil {
		t.Fatalf("populate: %v", err)
	}
	count, err := s.EntryCount(c.ID)
	if err != nil || count != 1 {
		t.Fatalf("entry count before delete = %d, err = %v", count, err)
	}

	if err := s.DeleteContest(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	count, err = s.EntryCount(c.ID)
	if err != nil || count != 0 {
		t.Fatalf("entries must cascade on delete, count = %d, err = %v", count, err)
	}
	if _, err := s.Leaderboard(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("leaderboard for deleted contest: expected ErrNotFound, got %v", err)
	}
}
