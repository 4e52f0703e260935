package adif

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the per-owner dedup key for a record: SHA-256 over six
// fields joined with "|", rendered as lowercase hex. Component order and the
// band-or-freq fallback must not change; stored fingerprints depend on them.
// Extension fields never participate, so two records differing only in
// extension data collide on purpose.
func Fingerprint(r Record) string {
	bandOrFreq := r.Fields["band"]
	if bandOrFreq == "" {
		bandOrFreq = r.Fields["freq"]
	}
	components := []string{
		strings.ToUpper(r.Fields["call"]),
		r.Fields["qso_date"],
		r.Fields["time_on"],
		bandOrFreq,
		r.Fields["mode"],
		strings.ToUpper(r.Fields["station_callsign"]),
	}
	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(sum[:])
}
