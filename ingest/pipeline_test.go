package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"logshack/store"
)

const sampleBatch = `Generated by test
<ADIF_VER:5>3.1.4
<EOH>
<CALL:5>K1ABC <QSO_DATE:8>20240115 <TIME_ON:4>1200 <BAND:3>20M <MODE:2>CW <EOR>
<CALL:5>G4XYZ <QSO_DATE:8>20240115 <TIME_ON:4>1230 <BAND:3>40M <MODE:3>SSB <EOR>
`

func newTestPipeline(t *testing.T, opts Options) (*Pipeline, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(st, nil, opts), st
}

func TestIngestCountsNewAndDuplicate(t *testing.T) {
	p, st := newTestPipeline(t, Options{})

	summary, stored := p.Ingest("W1AW", []byte(sampleBatch))
	if summary.Total != 2 || summary.New != 2 || summary.Duplicate != 0 || summary.Error != 0 {
		t.Fatalf("first batch summary %+v", summary)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored records, got %d", len(stored))
	}
	for _, rec := range stored {
		if rec.ID == 0 {
			t.Fatalf("stored record without id: %+v", rec)
		}
	}

	summary, stored = p.Ingest("W1AW", []byte(sampleBatch))
	if summary.Total != 2 || summary.New != 0 || summary.Duplicate != 2 {
		t.Fatalf("re-upload summary %+v", summary)
	}
	if len(stored) != 0 {
		t.Fatalf("re-upload must persist nothing, got %d records", len(stored))
	}

	count, err := st.CountByOwner("W1AW")
	if err != nil || count != 2 {
		t.Fatalf("count = %d, err = %v", count, err)
	}
}

func TestIngestOwnersAreIndependent(t *testing.T) {
	p, st := newTestPipeline(t, Options{})

	if summary, _ := p.Ingest("W1AW", []byte(sampleBatch)); summary.New != 2 {
		t.Fatalf("first owner summary %+v", summary)
	}
	if summary, _ := p.Ingest("G4XYZ", []byte(sampleBatch)); summary.New != 2 || summary.Duplicate != 0 {
		t.Fatalf("second owner summary %+v", summary)
	}

	for _, owner := range []string{"W1AW", "G4XYZ"} {
		count, err := st.CountByOwner(owner)
		if err != nil || count != 2 {
			t.Fatalf("%s count = %d, err = %v", owner, count, err)
		}
	}
}

func TestIngestDuplicateWithinBatch(t *testing.T) {
	p, _ := newTestPipeline(t, Options{})
	batch := `<EOH>
<CALL:5>K1ABC <QSO_DATE:8>20240115 <TIME_ON:4>1200 <BAND:3>20M <MODE:2>CW <EOR>
<CALL:5>K1ABC <QSO_DATE:8>20240115 <TIME_ON:4>1200 <BAND:3>20M <MODE:2>CW <EOR>
`
	summary, _ := p.Ingest("W1AW", []byte(batch))
	if summary.Total != 2 || summary.New != 1 || summary.Duplicate != 1 {
		t.Fatalf("in-batch duplicate summary %+v", summary)
	}
}

func TestIngestSkipsChunksWithoutRequiredFields(t *testing.T) {
	p, _ := newTestPipeline(t, Options{})
	batch := `<EOH>
<CALL:5>K1ABC <QSO_DATE:8>20240115 <TIME_ON:4>1200 <EOR>
<CALL:5>G4XYZ <TIME_ON:4>1230 <EOR>
junk between records <EOR>
`
	summary, _ := p.Ingest("W1AW", []byte(batch))
	if summary.Total != 1 || summary.New != 1 {
		t.Fatalf("summary %+v, want 1 valid record", summary)
	}
	if summary.Skipped != 2 {
		t.Fatalf("Skipped = %d, want 2", summary.Skipped)
	}
}

func TestIngestFileWritesAudit(t *testing.T) {
	p, _ := newTestPipeline(t, Options{})
	path := filepath.Join(t.TempDir(), "log.adi")
	if err := os.WriteFile(path, []byte(sampleBatch), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	summary, stored, err := p.IngestFile("W1AW", path)
	if err != nil {
		t.Fatalf("ingest file: %v", err)
	}
	if summary.New != 2 || len(stored) != 2 {
		t.Fatalf("unexpected summary %+v (%d stored)", summary, len(stored))
	}
}

func TestIngestReviewFlagsSuspects(t *testing.T) {
	p, _ := newTestPipeline(t, Options{Review: true})
	batch := `<EOH>
<CALL:5>K1ABC <QSO_DATE:8>20240115 <TIME_ON:4>1200 <BAND:3>20M <MODE:2>CW <EOR>
<CALL:5>K1ABD <QSO_DATE:8>20240115 <TIME_ON:4>1200 <BAND:3>20M <MODE:2>CW <EOR>
`
	summary, _ := p.Ingest("W1AW", []byte(batch))
	if len(summary.Suspects) != 1 {
		t.Fatalf("expected one suspect pair, got %+v", summary.Suspects)
	}
	if summary.Suspects[0].Call != "K1ABC" || summary.Suspects[0].Similar != "K1ABD" {
		t.Fatalf("unexpected suspect %+v", summary.Suspects[0])
	}
}
