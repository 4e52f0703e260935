package adif

import "sort"

// DateRange is the earliest and latest QSO date in a record set (YYYYMMDD).
type DateRange struct {
	Earliest string
	Latest   string
}

// Stats summarizes a record set for reporting: totals, per-band and per-mode
// counts, and the covered date range.
type Stats struct {
	Total     int
	Bands     map[string]int
	Modes     map[string]int
	DateRange *DateRange
}

// Statistics aggregates band/mode/date statistics over records. Records
// without a band or mode are counted under "Unknown".
func Statistics(records []Record) Stats {
	stats := Stats{
		Total: len(records),
		Bands: make(map[string]int),
		Modes: make(map[string]int),
	}
	var dates []string
	for _, rec := range records {
		band := rec.Band()
		if band == "" {
			band = "Unknown"
		}
		stats.Bands[band]++

		mode := rec.Mode()
		if mode == "" {
			mode = "Unknown"
		}
		stats.Modes[mode]++

		if d := rec.QSODate(); d != "" {
			dates = append(dates, d)
		}
	}
	if len(dates) > 0 {
		sort.Strings(dates)
		stats.DateRange = &DateRange{Earliest: dates[0], Latest: dates[len(dates)-1]}
	}
	return stats
}
