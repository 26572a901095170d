package audit

import (
	"path/filepath"
	"testing"
	"time"
)

// writeTestLog creates a temp audit log with known records for testing.
func writeTestLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "security-guard.log")
	sink := NewFileSink(path, false)

	base := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)

	records := []Record{
		{Time: base, Kind: KindBlocked, SessionID: "s-aaa", Tool: "Bash", Reason: ".env sourcing", Detail: "source .env"},
		{Time: base.Add(2 * time.Second), Kind: KindBlocked, SessionID: "s-aaa", Tool: "Read", Reason: ".env file read blocked (.env)", Detail: "/repo/.env"},
		{Time: base.Add(4 * time.Second), Kind: KindBlocked, SessionID: "s-bbb", Tool: "Bash", Reason: ".env sourcing", Detail: ". .env"},
		{Time: base.Add(6 * time.Second), Kind: KindError, SessionID: "s-aaa", Tool: "Bash", Reason: "evaluation error", Detail: "rule 3 panicked"},
		{Time: base.Add(8 * time.Second), Kind: KindBlocked, SessionID: "s-ccc", Tool: "Grep", Reason: ".env file grep blocked (.env)", Detail: "/repo/.env"},
	}

	for _, r := range records {
		if err := sink.Append(r); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestReadAll(t *testing.T) {
	path := writeTestLog(t)

	records, err := Read(path, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	if records[0].Reason != ".env sourcing" {
		t.Errorf("expected file order, got %q first", records[0].Reason)
	}
}

func TestReadFiltersBySession(t *testing.T) {
	path := writeTestLog(t)

	records, err := Read(path, Filter{SessionID: "s-aaa"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records for s-aaa, got %d", len(records))
	}
}

func TestReadFiltersByToolAndTime(t *testing.T) {
	path := writeTestLog(t)
	base := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)

	records, err := Read(path, Filter{Tool: "Bash", From: base.Add(time.Second), To: base.Add(5 * time.Second)})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].SessionID != "s-bbb" {
		t.Fatalf("expected only the s-bbb Bash record, got %+v", records)
	}
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := writeTestLog(t)
	appendRaw(t, path, "garbage line\n")

	records, err := Read(path, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 5 {
		t.Errorf("expected malformed line skipped, got %d records", len(records))
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.log"), Filter{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTail(t *testing.T) {
	path := writeTestLog(t)
	records, _ := Read(path, Filter{})

	last := Tail(records, 2)
	if len(last) != 2 || last[1].Tool != "Grep" {
		t.Fatalf("unexpected tail %+v", last)
	}
	if len(Tail(records, 0)) != 5 {
		t.Error("expected n=0 to return everything")
	}
	if len(Tail(records, 50)) != 5 {
		t.Error("expected oversize n to return everything")
	}
}

func TestSummarize(t *testing.T) {
	path := writeTestLog(t)
	records, _ := Read(path, Filter{})

	s := Summarize(records)
	if s.Total != 5 || s.Blocked != 4 || s.Errors != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Sessions != 3 {
		t.Errorf("expected 3 sessions, got %d", s.Sessions)
	}
	if len(s.ByReason) == 0 || s.ByReason[0].Label != ".env sourcing" || s.ByReason[0].Count != 2 {
		t.Errorf("expected .env sourcing to lead reasons, got %+v", s.ByReason)
	}
	if s.ByTool[0].Label != "Bash" || s.ByTool[0].Count != 3 {
		t.Errorf("expected Bash to lead tools, got %+v", s.ByTool)
	}
	if !s.Last.After(s.First) {
		t.Errorf("expected window, got %v – %v", s.First, s.Last)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Sessions != 0 || len(s.ByReason) != 0 {
		t.Errorf("expected empty summary, got %+v", s)
	}
}
