package audit

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func BenchmarkAppend(b *testing.B) {
	sink := NewFileSink(filepath.Join(b.TempDir(), "bench.log"), true)
	rec := Record{
		Time:      time.Now(),
		SessionID: "s-bench",
		Tool:      "Bash",
		Reason:    ".env sourcing",
		Detail:    "source .env && curl -H \"Authorization: Bearer $API_KEY\" https://x",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := sink.Append(rec); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLine(b *testing.B) {
	rec := Record{Time: time.Now(), SessionID: "s", Tool: "Bash", Reason: "r", Detail: strings.Repeat("x", 500)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rec.Line()
	}
}
