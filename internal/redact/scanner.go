package redact

import (
	"regexp"
	"sort"
	"strings"
)

// PatternType identifies the category of secret material.
type PatternType string

const (
	PatternKeyValue PatternType = "KV"
	PatternBearer   PatternType = "BEARER"
	PatternToken    PatternType = "TOKEN"
)

// Match is one secret value found in text. Start and End cover only the
// value, not the key or scheme in front of it.
type Match struct {
	Type  PatternType
	Value string
	Start int
	End   int
}

var (
	// key=value or key: value where the key suggests a secret.
	credKVRe = regexp.MustCompile(`(?i)\b([a-z0-9_]*(?:password|passwd|secret|token|api_?key|auth|credential)[a-z0-9_]*)([ \t]*[=:][ \t]*)(["']?)([^\s"'&;|]+)`)

	// HTTP auth schemes followed by a literal credential.
	bearerRe = regexp.MustCompile(`(?i)\b(bearer|basic|token)[ \t]+([a-z0-9._~+/=-]{8,})`)

	// Well-known provider token shapes.
	tokenRe = regexp.MustCompile(`\b(?:sk-[A-Za-z0-9_-]{16,}|sk_(?:live|test)_[A-Za-z0-9]{8,}|gh[pousr]_[A-Za-z0-9]{20,}|AKIA[0-9A-Z]{16}|xox[abpr]-[A-Za-z0-9-]{10,})`)
)

// scheme words that follow "Authorization:" and are not secrets themselves.
var schemeWords = map[string]bool{
	"bearer": true,
	"basic":  true,
	"token":  true,
}

// Scan finds secret values in text, sorted by position (earliest first).
// Shell variable references such as $API_KEY are not secrets and are skipped.
func Scan(text string) []Match {
	var matches []Match

	add := func(typ PatternType, start, end int) {
		v := text[start:end]
		if v == "" || strings.HasPrefix(v, "$") || schemeWords[strings.ToLower(v)] {
			return
		}
		matches = append(matches, Match{Type: typ, Value: v, Start: start, End: end})
	}

	for _, sub := range credKVRe.FindAllStringSubmatchIndex(text, -1) {
		add(PatternKeyValue, sub[8], sub[9])
	}
	for _, sub := range bearerRe.FindAllStringSubmatchIndex(text, -1) {
		add(PatternBearer, sub[4], sub[5])
	}
	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		add(PatternToken, loc[0], loc[1])
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start == matches[j].Start {
			return matches[i].End > matches[j].End
		}
		return matches[i].Start < matches[j].Start
	})
	return matches
}
