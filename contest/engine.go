package contest

import "logshack/adif"

// Eligible reports whether a record qualifies for the contest. The date
// bounds are inclusive; the comparison is string-lexicographic, which is
// correct because qso_date is fixed-width zero-padded YYYYMMDD. Empty
// allowlists accept every band or mode.
func Eligible(c Contest, rec adif.Record) bool {
	date := rec.QSODate()
	if date < c.StartDateString() || date > c.EndDateString() {
		return false
	}
	if len(c.Rules.Bands) > 0 && !contains(c.Rules.Bands, rec.Band()) {
		return false
	}
	if len(c.Rules.Modes) > 0 && !contains(c.Rules.Modes, rec.Mode()) {
		return false
	}
	return true
}

// Score computes the point value for an eligible record: base points, times
// the band multiplier when the band is mapped, plus the mode bonus when the
// mode is mapped. The multiplier applies before the bonus. Base points
// default to 1 only when unset; an explicit 0 scores 0.
func Score(c Contest, rec adif.Record) float64 {
	points := 1.0
	if c.Scoring.BasePoints != nil {
		points = *c.Scoring.BasePoints
	}
	if mult, ok := c.Scoring.BandMultiplier[rec.Band()]; ok {
		points *= mult
	}
	if bonus, ok := c.Scoring.ModeBonus[rec.Mode()]; ok {
		points += bonus
	}
	return points
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
