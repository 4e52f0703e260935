// Package adif parses and renders Amateur Data Interchange Format (ADIF 3.1.6)
// log files: tag scanning, record assembly with band/mode normalization,
// core/extension field partitioning, and the dedup fingerprint.
package adif

import "strings"

// Core field names promoted to dedicated storage columns. Everything else a
// log carries lands in ExtensionFields. The set is fixed per format revision
// and never grows based on input data.
var coreFields = map[string]struct{}{
	"qso_date":         {},
	"time_on":          {},
	"call":             {},
	"band":             {},
	"mode":             {},
	"freq":             {},
	"rst_sent":         {},
	"rst_rcvd":         {},
	"qso_date_off":     {},
	"time_off":         {},
	"station_callsign": {},
	"my_gridsquare":    {},
	"gridsquare":       {},
	"name":             {},
	"qth":              {},
	"comment":          {},
}

// IsCoreField reports whether the lowercase field name belongs to the closed
// core set.
func IsCoreField(name string) bool {
	_, ok := coreFields[name]
	return ok
}

// Record is one logged contact. Fields holds the core fields (lowercase
// names); ExtensionFields holds everything else the log carried. Fingerprint
// is computed once at parse time and never changes.
type Record struct {
	Fields          map[string]string
	ExtensionFields map[string]string
	Fingerprint     string
}

// Get returns the value of a core field, or "" when absent.
func (r Record) Get(name string) string {
	return r.Fields[name]
}

// QSODate returns the contact date as a YYYYMMDD string.
func (r Record) QSODate() string { return r.Fields["qso_date"] }

// TimeOn returns the contact start time (HHMM or HHMMSS).
func (r Record) TimeOn() string { return r.Fields["time_on"] }

// Call returns the contacted station's callsign.
func (r Record) Call() string { return r.Fields["call"] }

// Band returns the normalized band, e.g. "20m".
func (r Record) Band() string { return r.Fields["band"] }

// Mode returns the normalized mode, e.g. "CW" or "SSB".
func (r Record) Mode() string { return r.Fields["mode"] }

// Valid reports whether the record carries the minimum field set required
// for persistence: qso_date, time_on and call.
func (r Record) Valid() bool {
	return r.Fields["qso_date"] != "" && r.Fields["time_on"] != "" && r.Fields["call"] != ""
}

// buildRecord assembles a Record from scanned tokens. Later duplicates of a
// field name overwrite earlier ones; empty-after-trim values are dropped
// entirely. Returns ok=false when the tokens yield no fields at all.
func buildRecord(tokens []Token) (Record, bool) {
	rec := Record{Fields: make(map[string]string)}
	for _, tok := range tokens {
		value := tok.Value
		if value == "" {
			continue
		}
		switch tok.Name {
		case "band", "band_rx":
			value = NormalizeBand(value)
		case "mode", "submode":
			value = NormalizeMode(value)
		}
		if IsCoreField(tok.Name) {
			rec.Fields[tok.Name] = value
			continue
		}
		if rec.ExtensionFields == nil {
			rec.ExtensionFields = make(map[string]string)
		}
		rec.ExtensionFields[tok.Name] = value
	}
	if len(rec.Fields) == 0 && len(rec.ExtensionFields) == 0 {
		return Record{}, false
	}
	rec.Fingerprint = Fingerprint(rec)
	return rec, true
}

func normalizeFieldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
