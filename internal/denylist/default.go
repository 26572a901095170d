package denylist

// DefaultPatterns contains the built-in credential exposure rules.
// Command rules are evaluated in declaration order; the first match wins,
// so narrow .env access rules precede the broad pipe rule at the end.
var DefaultPatterns = Patterns{
	Commands: []RuleSpec{
		// Direct .env file access
		{Pattern: `(?:source|\.)\s+.*\.env\b`, Reason: ".env sourcing"},
		{Pattern: `\bcat\b.*\.env\b`, Reason: ".env read via cat"},
		{Pattern: `\bgrep\b.*\.env\b`, Reason: ".env read via grep"},
		{Pattern: `\bhead\b.*\.env\b`, Reason: ".env read via head"},
		{Pattern: `\btail\b.*\.env\b`, Reason: ".env read via tail"},
		{Pattern: `\bless\b.*\.env\b`, Reason: ".env read via less"},
		{Pattern: `\bmore\b.*\.env\b`, Reason: ".env read via more"},
		{Pattern: `\bawk\b.*\.env\b`, Reason: ".env read via awk"},
		{Pattern: `\bsed\b.*\.env\b`, Reason: ".env read via sed"},

		// Credential variables in network calls
		{Pattern: `\bcurl\b.*(?:_SECRET|_TOKEN|_KEY)\s*=`, Reason: "credential in curl argument"},
		{Pattern: `\bcurl\b.*(?:client_secret|refresh_token|api_key)\s*=`, Reason: "credential in curl argument"},
		{Pattern: `\b(?:curl|wget)\b.*(?:-H|--header)\s*["']?Authorization.*\$`, Reason: "auth header with variable expansion"},

		// Echo/export of credential variables
		{Pattern: `\becho\b.*\$\{?(?:.*(?:SECRET|TOKEN|API_KEY))`, Reason: "credential echo"},
		{Pattern: `\bexport\b.*(?:SECRET|TOKEN|API_KEY)\s*=`, Reason: "credential export"},

		{Pattern: `\.env\b.*\|`, Reason: ".env piped to command"},
	},
	CredentialFiles: CredentialFiles{
		Names:         []string{".env"},
		Prefixes:      []string{".env."},
		AllowSuffixes: []string{".example", ".template", ".sample"},
	},
}
