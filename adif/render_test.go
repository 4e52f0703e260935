package adif

import (
	"strings"
	"testing"
)

func TestRenderFieldFormat(t *testing.T) {
	rec := Record{Fields: map[string]string{
		"call": "K1ABC", "qso_date": "20240101", "time_on": "1200",
		"band": "20m", "mode": "CW",
	}}
	out := Render([]Record{rec}, ExportHeader{ProgramID: "logshack", ProgramVersion: "1.0.0"})
	for _, want := range []string{
		"<CALL:5>K1ABC",
		"<QSO_DATE:8>20240101",
		"<TIME_ON:4>1200",
		"<BAND:3>20m",
		"<MODE:2>CW",
		"<EOR>\n",
		"<EOH>",
		"<PROGRAMID:8>logshack",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCoreFieldOrder(t *testing.T) {
	rec := Record{Fields: map[string]string{
		"call": "K1ABC", "qso_date": "20240101", "time_on": "1200",
		"station_callsign": "W1AW", "comment": "hi",
	}}
	out := Render([]Record{rec}, ExportHeader{})
	stationIdx := strings.Index(out, "<STATION_CALLSIGN:")
	callIdx := strings.Index(out, "<CALL:")
	commentIdx := strings.Index(out, "<COMMENT:")
	if stationIdx < 0 || callIdx < 0 || commentIdx < 0 {
		t.Fatalf("missing fields in output:\n%s", out)
	}
	if !(stationIdx < callIdx && callIdx < commentIdx) {
		t.Fatalf("core fields out of order:\n%s", out)
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	records := Parse(sampleLog)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	rendered := Render(records, ExportHeader{ProgramID: "logshack"})
	reparsed := Parse(rendered)
	if len(reparsed) != len(records) {
		t.Fatalf("round trip lost records: %d vs %d", len(reparsed), len(records))
	}
	for i := range records {
		for name, value := range records[i].Fields {
			if reparsed[i].Fields[name] != value {
				t.Fatalf("core field %s: %q != %q", name, reparsed[i].Fields[name], value)
			}
		}
		if len(reparsed[i].ExtensionFields) != len(records[i].ExtensionFields) {
			t.Fatalf("extension field count mismatch on record %d", i)
		}
		for name, value := range records[i].ExtensionFields {
			if reparsed[i].ExtensionFields[name] != value {
				t.Fatalf("extension field %s: %q != %q", name, reparsed[i].ExtensionFields[name], value)
			}
		}
		if reparsed[i].Fingerprint != records[i].Fingerprint {
			t.Fatalf("fingerprint changed across round trip on record %d", i)
		}
	}
}

func TestRenderCountsCharactersNotBytes(t *testing.T) {
	rec := Record{Fields: map[string]string{
		"call": "K1ABC", "qso_date": "20240101", "time_on": "1200",
		"name": "Jürgen",
	}}
	out := Render([]Record{rec}, ExportHeader{})
	if !strings.Contains(out, "<NAME:6>Jürgen") {
		t.Fatalf("expected character-counted length, got:\n%s", out)
	}
	reparsed := Parse(out)
	if len(reparsed) != 1 || reparsed[0].Fields["name"] != "Jürgen" {
		t.Fatalf("multibyte value did not round trip: %+v", reparsed)
	}
}
