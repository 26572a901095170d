package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/envguard/internal/redact"
)

// Sink receives audit records. Implementations must be safe for use by
// concurrent goroutines and by concurrent processes sharing the same target.
type Sink interface {
	Append(Record) error
}

// Nop discards every record. It is the sink used when auditing is disabled.
type Nop struct{}

// Append does nothing.
func (Nop) Append(Record) error { return nil }

// FileSink appends records to a text log. Every Append opens the file in
// append mode and issues exactly one write, so records from parallel hook
// processes never interleave or truncate each other. No rotation.
type FileSink struct {
	path   string
	redact bool
}

// NewFileSink returns a sink writing to path. With redactDetail set, secret
// values inside the detail field are masked before they reach disk.
func NewFileSink(path string, redactDetail bool) *FileSink {
	return &FileSink{path: path, redact: redactDetail}
}

// Path returns the log file location.
func (s *FileSink) Path() string {
	return s.path
}

// Append writes one record as a single line.
func (s *FileSink) Append(rec Record) error {
	if s.redact {
		rec.Detail = redact.Mask(rec.Detail)
	}
	line := []byte(rec.Line())

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("audit: create directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("audit: open file: %w", err)
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("audit: write record: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("audit: close: %w", err)
	}
	return nil
}
