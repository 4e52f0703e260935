package ingest

import (
	"sort"
	"strings"

	lev "github.com/agnivade/levenshtein"

	"logshack/adif"
)

// Suspect flags a pair of callsigns in the same batch that were logged at
// the same date, time, and band but differ by a single character. One of the
// two is usually a busted call from a copying error; the uploader decides
// which.
type Suspect struct {
	Call    string
	Similar string
	QSODate string
	TimeOn  string
	Band    string
}

// maxSuspectDistance is the edit distance that still looks like a miscopied
// callsign rather than two distinct stations.
const maxSuspectDistance = 1

// Review scans a batch for likely-busted callsigns. Records are grouped by
// date/time/band; within a group, callsign pairs within the edit distance
// threshold are reported once, lexicographically ordered.
func Review(records []adif.Record) []Suspect {
	groups := make(map[string][]adif.Record)
	for _, rec := range records {
		key := rec.QSODate() + "|" + rec.TimeOn() + "|" + rec.Band()
		groups[key] = append(groups[key], rec)
	}

	var suspects []Suspect
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a := strings.ToUpper(group[i].Call())
				b := strings.ToUpper(group[j].Call())
				if a == b {
					continue
				}
				if lev.ComputeDistance(a, b) > maxSuspectDistance {
					continue
				}
				if a > b {
					a, b = b, a
				}
				suspects = append(suspects, Suspect{
					Call:    a,
					Similar: b,
					QSODate: group[i].QSODate(),
					TimeOn:  group[i].TimeOn(),
					Band:    group[i].Band(),
				})
			}
		}
	}
	sort.Slice(suspects, func(i, j int) bool {
		if suspects[i].QSODate != suspects[j].QSODate {
			return suspects[i].QSODate < suspects[j].QSODate
		}
		if suspects[i].TimeOn != suspects[j].TimeOn {
			return suspects[i].TimeOn < suspects[j].TimeOn
		}
		return suspects[i].Call < suspects[j].Call
	})
	return suspects
}
