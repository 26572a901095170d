package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/envguard/internal/model"
)

// Classifier is the dry-run decision surface used by scenarios.
type Classifier interface {
	Classify(model.ToolRequest) model.Decision
}

// Run evaluates all cases without writing audit records. Cases are independent.
func Run(s *Scenario, c Classifier) *RunResult {
	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, tc := range s.Cases {
		req := model.ToolRequest{
			ToolName:  tc.Tool,
			Input:     normalize(tc.Input),
			SessionID: fmt.Sprintf("scenario-%d", i+1),
		}
		d := c.Classify(req)

		cr := CaseResult{
			Index:    i + 1,
			Tool:     tc.Tool,
			Target:   target(req),
			Expected: strings.ToLower(strings.TrimSpace(tc.Expect)),
			Actual:   string(d.Outcome),
			Reason:   d.Reason,
		}

		expected, ok := model.ParseOutcome(tc.Expect)
		switch {
		case !ok:
			cr.Problem = fmt.Sprintf("unknown expectation %q", tc.Expect)
		case expected != d.Outcome:
			// plain mismatch, shown as expected/got
		case tc.Reason != "" && !strings.Contains(strings.ToLower(d.Reason), strings.ToLower(tc.Reason)):
			cr.Problem = fmt.Sprintf("reason %q does not contain %q", d.Reason, tc.Reason)
		default:
			cr.Passed = true
		}

		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result
}

// Load parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return &s, nil
}

// LoadAndRun loads a scenario file and runs it against c.
func LoadAndRun(path string, c Classifier) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	result := Run(s, c)
	result.File = path
	return result, nil
}

// target picks the parameter a human would recognize the case by.
func target(req model.ToolRequest) string {
	for _, key := range []string{"command", "file_path", "path", "glob"} {
		if v := req.Param(key); v != "" {
			return v
		}
	}
	return ""
}

// normalize converts nested map[any]any values so scenario input matches
// what the hook decoder produces.
func normalize(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalize(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeValue(val)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	default:
		return v
	}
}
