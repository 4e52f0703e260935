package adif

import "strings"

// bandAliases collapses the band spellings seen in real uploads: bare numeric
// shorthand and redundant unit suffixes. Anything else is lowercased and
// passed through unchanged; parse-time normalization never rejects a band.
var bandAliases = map[string]string{
	"20M":  "20m",
	"20":   "20m",
	"40M":  "40m",
	"40":   "40m",
	"80M":  "80m",
	"80":   "80m",
	"2M":   "2m",
	"2":    "2m",
	"70CM": "70cm",
	"70":   "70cm",
}

// NormalizeBand returns the canonical lowercase band identifier for a band
// field value.
func NormalizeBand(band string) string {
	upper := strings.ToUpper(strings.TrimSpace(band))
	if canonical, ok := bandAliases[upper]; ok {
		return canonical
	}
	return strings.ToLower(upper)
}

// NormalizeMode uppercases a mode value and folds the two sideband voice
// variants into SSB. Other modes pass through uppercase.
func NormalizeMode(mode string) string {
	upper := strings.ToUpper(strings.TrimSpace(mode))
	if upper == "USB" || upper == "LSB" {
		return "SSB"
	}
	return upper
}

// BandValues is the ADIF 3.1.6 band enumeration. Used for reporting and
// statistics only, never to reject input.
var BandValues = map[string]struct{}{
	"2190m": {}, "630m": {}, "560m": {}, "160m": {}, "80m": {}, "60m": {},
	"40m": {}, "30m": {}, "20m": {}, "17m": {}, "15m": {}, "12m": {},
	"10m": {}, "8m": {}, "6m": {}, "5m": {}, "4m": {}, "2m": {},
	"1.25m": {}, "70cm": {}, "33cm": {}, "23cm": {}, "13cm": {}, "9cm": {},
	"6cm": {}, "3cm": {}, "1.25cm": {}, "6mm": {}, "4mm": {}, "2.5mm": {},
	"2mm": {}, "1mm": {}, "submm": {},
}

// ModeValues is the ADIF 3.1.6 mode enumeration, reporting only.
var ModeValues = map[string]struct{}{
	"AM": {}, "ARDOP": {}, "ATV": {}, "C4FM": {}, "CHIP": {}, "CLO": {},
	"CONTESTI": {}, "CW": {}, "DIGITALVOICE": {}, "DOMINO": {}, "DSTAR": {},
	"FAX": {}, "FM": {}, "FSK441": {}, "FT8": {}, "FT4": {}, "HELL": {},
	"ISCAT": {}, "JT4": {}, "JT6M": {}, "JT9": {}, "JT44": {}, "JT65": {},
	"MFSK": {}, "MSK144": {}, "MT63": {}, "OLIVIA": {}, "OPERA": {},
	"PAC": {}, "PAX": {}, "PKT": {}, "PSK": {}, "PSK2K": {}, "Q15": {},
	"QRA64": {}, "ROS": {}, "RTTY": {}, "RTTYM": {}, "SSB": {}, "SSTV": {},
	"T10": {}, "THOR": {}, "THRB": {}, "TOR": {}, "V4": {}, "VOI": {},
	"WINMOR": {}, "WSPR": {}, "JS8": {},
}

// IsKnownBand reports whether band is in the ADIF enumeration.
func IsKnownBand(band string) bool {
	_, ok := BandValues[band]
	return ok
}

// IsKnownMode reports whether mode is in the ADIF enumeration.
func IsKnownMode(mode string) bool {
	_, ok := ModeValues[mode]
	return ok
}
