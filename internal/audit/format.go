package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatRecords renders records as a fixed-width table.
func FormatRecords(records []Record) string {
	if len(records) == 0 {
		return "No audit records found.\n"
	}

	var b strings.Builder
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%-19s %-7s %-10s %-6s %-36s %s\n",
			r.Time.Format("2006-01-02 15:04:05"),
			r.Kind,
			truncateDisplay(r.SessionID, 10),
			truncateDisplay(r.Tool, 6),
			truncateDisplay(r.Reason, 36),
			truncateDisplay(r.Detail, 60)))
	}
	return b.String()
}

// FormatSummary renders a Summary as text.
func FormatSummary(s Summary) string {
	if s.Total == 0 {
		return "No audit records found.\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Records: %d (%d blocked, %d errors) across %d sessions\n",
		s.Total, s.Blocked, s.Errors, s.Sessions))
	b.WriteString(fmt.Sprintf("Window:  %s – %s\n",
		s.First.Format("2006-01-02 15:04:05"), s.Last.Format("2006-01-02 15:04:05")))
	b.WriteString(separator + "\n")
	b.WriteString("By reason:\n")
	for _, c := range s.ByReason {
		b.WriteString(fmt.Sprintf("  %5d  %s\n", c.Count, c.Label))
	}
	b.WriteString("By tool:\n")
	for _, c := range s.ByTool {
		b.WriteString(fmt.Sprintf("  %5d  %s\n", c.Count, c.Label))
	}
	return b.String()
}

// FormatJSON renders any audit view as indented JSON.
func FormatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal audit view: %w", err)
	}
	return string(data), nil
}

func truncateDisplay(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
