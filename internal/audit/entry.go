package audit

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TimestampFormat is ISO-8601 with a numeric UTC offset, e.g. 2025-01-15T14:00:00+0100.
const TimestampFormat = "2006-01-02T15:04:05-0700"

// MaxDetailLen is the number of runes of detail kept per record.
const MaxDetailLen = 200

const fieldSep = " | "

// Kind labels what a record documents.
type Kind string

const (
	KindBlocked Kind = "BLOCKED"
	KindError   Kind = "ERROR"
)

// Record is one audit line. Records are only ever appended.
type Record struct {
	Time      time.Time `json:"ts"`
	Kind      Kind      `json:"kind"`
	SessionID string    `json:"session"`
	Tool      string    `json:"tool"`
	Reason    string    `json:"reason"`
	Detail    string    `json:"detail"`
}

// Line renders the record in the log format, newline included:
//
//	[<ts>] BLOCKED | session=<id> | tool=<tool> | reason=<reason> | detail=<detail>
//
// Newlines in any field are escaped so that a record is always one line.
func (r Record) Line() string {
	kind := r.Kind
	if kind == "" {
		kind = KindBlocked
	}
	session := r.SessionID
	if session == "" {
		session = "unknown"
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(r.Time.Format(TimestampFormat))
	b.WriteString("] ")
	b.WriteString(string(kind))
	b.WriteString(fieldSep + "session=" + field(session))
	b.WriteString(fieldSep + "tool=" + field(r.Tool))
	b.WriteString(fieldSep + "reason=" + field(r.Reason))
	b.WriteString(fieldSep + "detail=" + truncate(escapeNewlines(r.Detail), MaxDetailLen))
	b.WriteString("\n")
	return b.String()
}

// ParseLine parses one line produced by Record.Line.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "[") {
		return Record{}, fmt.Errorf("missing timestamp")
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return Record{}, fmt.Errorf("unterminated timestamp")
	}

	ts, err := time.Parse(TimestampFormat, line[1:end])
	if err != nil {
		return Record{}, fmt.Errorf("parse timestamp: %w", err)
	}

	// detail is last and may itself contain the separator
	parts := strings.SplitN(line[end+2:], fieldSep, 5)
	if len(parts) != 5 {
		return Record{}, fmt.Errorf("expected 5 fields, got %d", len(parts))
	}

	rec := Record{Time: ts, Kind: Kind(parts[0])}
	values := make([]string, 4)
	for i, key := range []string{"session=", "tool=", "reason=", "detail="} {
		v, ok := strings.CutPrefix(parts[i+1], key)
		if !ok {
			return Record{}, fmt.Errorf("missing %s field", strings.TrimSuffix(key, "="))
		}
		values[i] = v
	}
	rec.SessionID, rec.Tool, rec.Reason, rec.Detail = values[0], values[1], values[2], values[3]
	return rec, nil
}

// field sanitizes a non-final field so it cannot break line or field framing.
func field(s string) string {
	return strings.ReplaceAll(escapeNewlines(s), "|", "/")
}

func escapeNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r", `\r`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
