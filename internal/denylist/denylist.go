package denylist

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Match modes for RuleSpec.Match.
const (
	MatchRegex     = "regex"
	MatchSubstring = "substring"
)

// RuleSpec is the configuration form of a command rule.
type RuleSpec struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern" json:"pattern"`
	Reason  string `yaml:"reason" mapstructure:"reason" json:"reason"`
	Match   string `yaml:"match,omitempty" mapstructure:"match" json:"match,omitempty"`
}

// CredentialFiles describes which basenames count as credential files.
type CredentialFiles struct {
	Names         []string `yaml:"names" mapstructure:"names" json:"names"`
	Prefixes      []string `yaml:"prefixes" mapstructure:"prefixes" json:"prefixes"`
	AllowSuffixes []string `yaml:"allow_suffixes" mapstructure:"allow_suffixes" json:"allow_suffixes"`
}

// Patterns holds the raw rule configuration.
type Patterns struct {
	// ReplaceDefaults drops DefaultPatterns.Commands instead of prepending them.
	ReplaceDefaults bool            `yaml:"replace_defaults,omitempty" mapstructure:"replace_defaults" json:"replace_defaults,omitempty"`
	Commands        []RuleSpec      `yaml:"commands,omitempty" mapstructure:"commands" json:"commands,omitempty"`
	Custom          []RuleSpec      `yaml:"custom,omitempty" mapstructure:"custom" json:"custom,omitempty"`
	CredentialFiles CredentialFiles `yaml:"credential_files" mapstructure:"credential_files" json:"credential_files"`
}

// Matcher is a text predicate. On a match it returns the matched fragment.
type Matcher interface {
	Match(s string) (string, bool)
}

// MatchFunc adapts a function to the Matcher interface.
type MatchFunc func(s string) (string, bool)

// Match calls f(s).
func (f MatchFunc) Match(s string) (string, bool) { return f(s) }

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) Match(s string) (string, bool) {
	loc := m.re.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	return s[loc[0]:loc[1]], true
}

type substringMatcher struct {
	needle string
}

func (m substringMatcher) Match(s string) (string, bool) {
	lower := strings.ToLower(s)
	i := strings.Index(lower, m.needle)
	if i < 0 || m.needle == "" {
		return "", false
	}
	return lower[i : i+len(m.needle)], true
}

// Rule is a compiled (predicate, reason) pair.
type Rule struct {
	Matcher Matcher
	Reason  string
	// Pattern is the source text, kept for listing and diagnostics.
	Pattern string
}

// Fault records a configured rule that could not be compiled.
type Fault struct {
	Index   int    `json:"index"`
	Pattern string `json:"pattern"`
	Err     string `json:"error"`
}

func (f Fault) Error() string {
	return fmt.Sprintf("rule %d (%q): %s", f.Index, f.Pattern, f.Err)
}

// Denylist holds the ordered command rules and the credential-file naming rule.
// It is built once and must not be modified after it is shared.
type Denylist struct {
	commands []Rule
	files    CredentialFiles
	faults   []Fault
	raw      Patterns
}

// New compiles raw patterns. Default command rules come first unless
// ReplaceDefaults is set, then p.Commands, then p.Custom. Rules that fail to
// compile are skipped and reported by Faults; the rest still load.
func New(p Patterns) *Denylist {
	d := &Denylist{raw: p}

	var specs []RuleSpec
	if !p.ReplaceDefaults {
		specs = append(specs, DefaultPatterns.Commands...)
	}
	specs = append(specs, p.Commands...)
	specs = append(specs, p.Custom...)

	for i, spec := range specs {
		rule, err := Compile(spec)
		if err != nil {
			d.faults = append(d.faults, Fault{Index: i, Pattern: spec.Pattern, Err: err.Error()})
			continue
		}
		d.commands = append(d.commands, rule)
	}

	d.files = withFileDefaults(p.CredentialFiles)
	return d
}

// NewDefault creates a Denylist with the built-in patterns only.
func NewDefault() *Denylist {
	return New(Patterns{})
}

// Compile turns a RuleSpec into a Rule. Regex rules are case-insensitive.
func Compile(spec RuleSpec) (Rule, error) {
	if strings.TrimSpace(spec.Pattern) == "" {
		return Rule{}, fmt.Errorf("empty pattern")
	}
	reason := spec.Reason
	if reason == "" {
		reason = "custom pattern: " + spec.Pattern
	}

	switch strings.ToLower(spec.Match) {
	case "", MatchRegex:
		re, err := regexp.Compile("(?i)" + spec.Pattern)
		if err != nil {
			return Rule{}, fmt.Errorf("compile pattern: %w", err)
		}
		return Rule{Matcher: regexMatcher{re: re}, Reason: reason, Pattern: spec.Pattern}, nil
	case MatchSubstring:
		return Rule{
			Matcher: substringMatcher{needle: strings.ToLower(spec.Pattern)},
			Reason:  reason,
			Pattern: spec.Pattern,
		}, nil
	default:
		return Rule{}, fmt.Errorf("unknown match mode %q", spec.Match)
	}
}

// AddRule appends a programmatic rule after all configured rules.
// Call it only while building the Denylist.
func (d *Denylist) AddRule(r Rule) {
	d.commands = append(d.commands, r)
}

// AddPattern compiles spec and appends it as a custom rule.
func (d *Denylist) AddPattern(spec RuleSpec) error {
	rule, err := Compile(spec)
	if err != nil {
		return err
	}
	d.raw.Custom = append(d.raw.Custom, spec)
	d.commands = append(d.commands, rule)
	return nil
}

// Commands returns the ordered command rules.
func (d *Denylist) Commands() []Rule {
	out := make([]Rule, len(d.commands))
	copy(out, d.commands)
	return out
}

// Faults returns the rules that failed to compile.
func (d *Denylist) Faults() []Fault {
	out := make([]Fault, len(d.faults))
	copy(out, d.faults)
	return out
}

// CredentialFiles returns the effective naming rule.
func (d *Denylist) CredentialFiles() CredentialFiles {
	return d.files
}

// Raw returns the patterns the Denylist was built from.
func (d *Denylist) Raw() Patterns {
	return d.raw
}

// IsCredentialFile reports whether a basename names a credential file.
// Matching is case-sensitive.
func (d *Denylist) IsCredentialFile(name string) bool {
	if name == "" {
		return false
	}
	for _, n := range d.files.Names {
		if name == n {
			return true
		}
	}
	for _, prefix := range d.files.Prefixes {
		if strings.HasPrefix(name, prefix) && !d.allowed(name) {
			return true
		}
	}
	return false
}

// CredentialPath checks the final component of p. Directory depth is
// irrelevant so nested paths are treated like top-level ones.
func (d *Denylist) CredentialPath(p string) (string, bool) {
	name := Basename(p)
	return name, d.IsCredentialFile(name)
}

// CredentialGlob reports whether a search glob explicitly targets credential
// files. Only the final segment is inspected, and only patterns that start
// with "." count: search tools skip hidden files unless asked for them.
func (d *Denylist) CredentialGlob(glob string) (string, bool) {
	last := Basename(glob)
	for _, alt := range expandBraces(last) {
		if !strings.HasPrefix(alt, ".") {
			continue
		}
		if d.IsCredentialFile(alt) {
			return alt, true
		}
		for _, probe := range d.probeNames() {
			if ok, err := path.Match(alt, probe); err == nil && ok {
				return alt, true
			}
		}
	}
	return "", false
}

// Basename returns the last path component, accepting both / and \ separators.
func Basename(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

func (d *Denylist) allowed(name string) bool {
	for _, suffix := range d.files.AllowSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// probeNames are representative credential names that a glob is tested against.
func (d *Denylist) probeNames() []string {
	probes := append([]string{}, d.files.Names...)
	for _, prefix := range d.files.Prefixes {
		probes = append(probes, prefix+"local")
	}
	return probes
}

func withFileDefaults(cf CredentialFiles) CredentialFiles {
	def := DefaultPatterns.CredentialFiles
	if len(cf.Names) == 0 {
		cf.Names = def.Names
	}
	if len(cf.Prefixes) == 0 {
		cf.Prefixes = def.Prefixes
	}
	if len(cf.AllowSuffixes) == 0 {
		cf.AllowSuffixes = def.AllowSuffixes
	}
	return cf
}

// expandBraces expands a single, non-nested {a,b} group.
func expandBraces(s string) []string {
	open := strings.Index(s, "{")
	if open < 0 {
		return []string{s}
	}
	end := strings.Index(s[open:], "}")
	if end < 0 {
		return []string{s}
	}
	end += open
	prefix, suffix := s[:open], s[end+1:]
	var out []string
	for _, alt := range strings.Split(s[open+1:end], ",") {
		out = append(out, prefix+alt+suffix)
	}
	return out
}
