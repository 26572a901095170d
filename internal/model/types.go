package model

import "strings"

// Tool names the gate classifies. Every other tool name passes through.
const (
	ToolBash = "Bash"
	ToolRead = "Read"
	ToolGrep = "Grep"
)

// Outcome is the enforcement result for one tool call.
type Outcome string

const (
	Allow Outcome = "allow"
	Block Outcome = "block"
)

// ParseOutcome maps user-facing spellings ("ALLOW", "deny", ...) to an Outcome.
func ParseOutcome(s string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow", "allowed", "pass":
		return Allow, true
	case "block", "blocked", "deny", "denied":
		return Block, true
	default:
		return "", false
	}
}

// ToolRequest is one pending tool invocation as described by the host runtime.
type ToolRequest struct {
	ToolName  string         `json:"tool_name"`
	Input     map[string]any `json:"tool_input"`
	SessionID string         `json:"session_id,omitempty"`
}

// RequestFromMap builds a ToolRequest from a decoded JSON document with
// defensive coercion: wrong-typed fields are treated as absent.
func RequestFromMap(m map[string]any) ToolRequest {
	var req ToolRequest
	if m == nil {
		return req
	}

	req.ToolName = firstString(m, "tool_name", "toolName")
	req.SessionID = firstString(m, "session_id", "sessionId")

	for _, key := range []string{"tool_input", "toolInput"} {
		if in, ok := m[key].(map[string]any); ok && len(in) > 0 {
			req.Input = in
			break
		}
	}
	return req
}

// Param returns the named input parameter as a string.
// Missing or non-string parameters yield "".
func (r ToolRequest) Param(name string) string {
	if r.Input == nil {
		return ""
	}
	s, _ := r.Input[name].(string)
	return s
}

// Decision is the gate's verdict for a single ToolRequest.
type Decision struct {
	Outcome Outcome `json:"decision"`
	Reason  string  `json:"reason,omitempty"`
	Detail  string  `json:"detail,omitempty"`
}

// AllowDecision is the zero-rule pass-through verdict.
func AllowDecision() Decision {
	return Decision{Outcome: Allow}
}

// BlockDecision returns a BLOCK verdict with the matched reason and the
// offending fragment kept for audit.
func BlockDecision(reason, detail string) Decision {
	return Decision{Outcome: Block, Reason: reason, Detail: detail}
}

// Blocked reports whether the decision vetoes the tool call.
func (d Decision) Blocked() bool {
	return d.Outcome == Block
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
