// Package hook implements the PreToolUse hook protocol: one JSON document in
// on stdin, one decision out via exit status and message.
package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ppiankov/envguard/internal/model"
)

// Exit statuses understood by the host runtime.
const (
	ExitAllow = 0
	ExitBlock = 2
)

// EnvSessionID is consulted when the payload carries no session id.
const EnvSessionID = "CLAUDE_SESSION_ID"

// UnknownSession labels requests without any session id.
const UnknownSession = "unknown"

// maxPayload bounds how much of stdin is read.
const maxPayload = 8 << 20

// ErrEmptyPayload is returned by Decode when stdin carries no document.
var ErrEmptyPayload = errors.New("empty hook payload")

// Output is the JSON decision document for hosts that read stdout.
type Output struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

// SpecificOutput carries the permission decision.
type SpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
}

// Decode reads one hook payload. Unknown fields are ignored; fields of the
// wrong type are treated as absent.
func Decode(r io.Reader) (model.ToolRequest, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayload))
	if err != nil {
		return model.ToolRequest{}, fmt.Errorf("read payload: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return model.ToolRequest{}, ErrEmptyPayload
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return model.ToolRequest{}, fmt.Errorf("decode payload: %w", err)
	}
	return model.RequestFromMap(m), nil
}

// ResolveSession fills in the session id from the environment, falling back
// to UnknownSession.
func ResolveSession(req model.ToolRequest, getenv func(string) string) model.ToolRequest {
	if req.SessionID != "" {
		return req
	}
	if getenv != nil {
		req.SessionID = getenv(EnvSessionID)
	}
	if req.SessionID == "" {
		req.SessionID = UnknownSession
	}
	return req
}

// BlockMessage is the fixed instruction shown to the agent on every block.
// The matched value itself is never included.
func BlockMessage(reason string) string {
	return "SECURITY BLOCKED: " + reason + "\n" +
		"Use credential-isolated wrapper scripts for API access.\n" +
		"If you need to modify .env, ask the user to do it manually.\n"
}

// DenyOutput builds the JSON form of a block.
func DenyOutput(reason string) Output {
	return Output{HookSpecificOutput: SpecificOutput{
		HookEventName:            "PreToolUse",
		PermissionDecision:       "deny",
		PermissionDecisionReason: BlockMessage(reason),
	}}
}
