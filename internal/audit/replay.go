package audit

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"time"
)

// Filter selects records for inspection. Zero values match everything.
type Filter struct {
	SessionID string
	Tool      string
	From      time.Time
	To        time.Time
}

func (f Filter) match(r Record) bool {
	if f.SessionID != "" && r.SessionID != f.SessionID {
		return false
	}
	if f.Tool != "" && r.Tool != f.Tool {
		return false
	}
	if !f.From.IsZero() && r.Time.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Time.After(f.To) {
		return false
	}
	return true
}

// Count is a label with its number of occurrences.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary aggregates a set of records.
type Summary struct {
	Total    int       `json:"total"`
	Blocked  int       `json:"blocked"`
	Errors   int       `json:"errors"`
	Sessions int       `json:"sessions"`
	First    time.Time `json:"first,omitempty"`
	Last     time.Time `json:"last,omitempty"`
	ByReason []Count   `json:"by_reason"`
	ByTool   []Count   `json:"by_tool"`
}

// Read loads the records of an audit log matching the filter, in file order.
// Lines that do not parse are skipped.
func Read(path string, filter Filter) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		rec, err := ParseLine(scanner.Text())
		if err != nil {
			continue // skip malformed lines
		}
		if filter.match(rec) {
			records = append(records, rec)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return records, nil
}

// Tail returns the last n records (all of them when n <= 0).
func Tail(records []Record, n int) []Record {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}

// Summarize counts records by kind, reason and tool.
func Summarize(records []Record) Summary {
	var s Summary
	reasons := make(map[string]int)
	tools := make(map[string]int)
	sessions := make(map[string]bool)

	for _, r := range records {
		s.Total++
		switch r.Kind {
		case KindError:
			s.Errors++
		default:
			s.Blocked++
		}
		reasons[r.Reason]++
		tools[r.Tool]++
		sessions[r.SessionID] = true

		if s.First.IsZero() || r.Time.Before(s.First) {
			s.First = r.Time
		}
		if r.Time.After(s.Last) {
			s.Last = r.Time
		}
	}

	s.Sessions = len(sessions)
	s.ByReason = sortedCounts(reasons)
	s.ByTool = sortedCounts(tools)
	return s
}

// sortedCounts orders by count descending, then label ascending.
func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
