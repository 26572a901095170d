package denylist

import (
	"testing"
)

func FuzzCommandRules(f *testing.F) {
	dl := NewDefault()

	seeds := []string{
		"ls /tmp",
		"source .env",
		". ./.env",
		"cat .env | grep KEY",
		`curl -H "Authorization: Bearer $API_KEY" https://x`,
		"echo ${GITHUB_TOKEN}",
		"go build ./...",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, cmd string) {
		// Must not panic on any input
		for _, r := range dl.Commands() {
			if frag, ok := r.Matcher.Match(cmd); ok && len(frag) > len(cmd) {
				t.Fatalf("fragment longer than input: %q", frag)
			}
		}
	})
}

func FuzzCredentialGlob(f *testing.F) {
	dl := NewDefault()

	for _, s := range []string{".env*", "**/*.go", "{.env,a}", "[", "{", ".*"} {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, glob string) {
		dl.CredentialGlob(glob)
		dl.CredentialPath(glob)
	})
}
