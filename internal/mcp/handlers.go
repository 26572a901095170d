package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/envguard/internal/denylist"
	"github.com/ppiankov/envguard/internal/hook"
	"github.com/ppiankov/envguard/internal/model"
)

// --- Input/Output types ---

// CheckInput defines parameters for the envguard_check tool.
type CheckInput struct {
	ToolName  string         `json:"tool_name" jsonschema:"tool being invoked (Bash, Read, Grep, ...)"`
	ToolInput map[string]any `json:"tool_input,omitempty" jsonschema:"tool parameters, e.g. command, file_path, path, glob"`
}

// CheckOutput contains the decision.
type CheckOutput struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
}

// RulesInput is empty.
type RulesInput struct{}

// RuleItem describes one command rule.
type RuleItem struct {
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// RulesOutput lists the active rule set.
type RulesOutput struct {
	Commands        []RuleItem               `json:"commands"`
	CredentialFiles denylist.CredentialFiles `json:"credential_files"`
	Faults          []denylist.Fault         `json:"faults,omitempty"`
	FailMode        string                   `json:"fail_mode"`
}

// --- Handlers ---

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	d := s.ic.Classify(model.ToolRequest{
		ToolName: input.ToolName,
		Input:    input.ToolInput,
	})

	out := CheckOutput{
		Decision: string(d.Outcome),
		Reason:   d.Reason,
	}
	if d.Blocked() {
		out.Message = hook.BlockMessage(d.Reason)
	}
	return nil, out, nil
}

func (s *Server) handleRules(ctx context.Context, req *mcpsdk.CallToolRequest, input RulesInput) (*mcpsdk.CallToolResult, RulesOutput, error) {
	dl := s.ic.Rules()

	out := RulesOutput{
		CredentialFiles: dl.CredentialFiles(),
		Faults:          dl.Faults(),
		FailMode:        string(s.ic.FailMode()),
	}
	for _, r := range dl.Commands() {
		out.Commands = append(out.Commands, RuleItem{Pattern: r.Pattern, Reason: r.Reason})
	}
	return nil, out, nil
}
