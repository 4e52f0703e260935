package contest

import "sort"

// ScoredEntry is one valid contest entry as read back from storage.
type ScoredEntry struct {
	Owner  string
	Points float64
}

// Standing is one leaderboard row.
type Standing struct {
	Rank        int     `json:"rank"`
	Callsign    string  `json:"callsign"`
	QSOCount    int     `json:"qso_count"`
	TotalPoints float64 `json:"total_points"`
}

// Rank groups valid entries by owner, sums points, and returns rows sorted
// by total points descending. Rank is assigned sequentially from 1; tied
// totals still get distinct consecutive ranks, matching the legacy
// leaderboard. Owners with no entries do not appear. Equal totals keep the
// owners' first-appearance order so reruns over the same entry sequence are
// stable.
func Rank(entries []ScoredEntry) []Standing {
	totals := make(map[string]*Standing)
	var order []string
	for _, entry := range entries {
		row, ok := totals[entry.Owner]
		if !ok {
			row = &Standing{Callsign: entry.Owner}
			totals[entry.Owner] = row
			order = append(order, entry.Owner)
		}
		row.QSOCount++
		row.TotalPoints += entry.Points
	}

	standings := make([]Standing, 0, len(order))
	for _, owner := range order {
		standings = append(standings, *totals[owner])
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].TotalPoints > standings[j].TotalPoints
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
