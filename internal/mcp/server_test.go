package mcp

import (
	"context"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/envguard/internal/audit"
	"github.com/ppiankov/envguard/internal/denylist"
	"github.com/ppiankov/envguard/internal/intercept"
)

type countingSink struct{ n int }

func (s *countingSink) Append(audit.Record) error {
	s.n++
	return nil
}

func newTestServer(t *testing.T) (*Server, *countingSink) {
	t.Helper()
	sink := &countingSink{}
	return New(Config{Interceptor: intercept.New(intercept.Config{Sink: sink})}), sink
}

func TestCheckBlocked(t *testing.T) {
	s, sink := newTestServer(t)

	result, out, err := s.handleCheck(context.Background(), &mcpsdk.CallToolRequest{}, CheckInput{
		ToolName:  "Bash",
		ToolInput: map[string]any{"command": "cat .env"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("dry run should not be an error result")
	}
	if out.Decision != "block" || out.Reason != ".env read via cat" {
		t.Fatalf("unexpected output %+v", out)
	}
	if !strings.HasPrefix(out.Message, "SECURITY BLOCKED: .env read via cat") {
		t.Errorf("unexpected message %q", out.Message)
	}
	if sink.n != 0 {
		t.Errorf("dry run must not audit, got %d records", sink.n)
	}
}

func TestCheckAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleCheck(context.Background(), &mcpsdk.CallToolRequest{}, CheckInput{
		ToolName:  "Read",
		ToolInput: map[string]any{"file_path": "/repo/.env.example"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Decision != "allow" || out.Message != "" {
		t.Errorf("expected allow, got %+v", out)
	}
}

func TestCheckMissingInput(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleCheck(context.Background(), &mcpsdk.CallToolRequest{}, CheckInput{ToolName: "Grep"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Decision != "allow" {
		t.Errorf("expected allow for missing input, got %+v", out)
	}
}

func TestRulesListing(t *testing.T) {
	dl := denylist.New(denylist.Patterns{Custom: []denylist.RuleSpec{
		{Pattern: "vault read", Reason: "vault", Match: denylist.MatchSubstring},
		{Pattern: "(", Reason: "broken"},
	}})
	s := New(Config{Interceptor: intercept.New(intercept.Config{Rules: dl, FailMode: intercept.FailClosed})})

	_, out, err := s.handleRules(context.Background(), &mcpsdk.CallToolRequest{}, RulesInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Commands) != len(denylist.DefaultPatterns.Commands)+1 {
		t.Errorf("unexpected rule count %d", len(out.Commands))
	}
	if out.Commands[len(out.Commands)-1].Reason != "vault" {
		t.Errorf("expected custom rule last, got %+v", out.Commands[len(out.Commands)-1])
	}
	if len(out.Faults) != 1 {
		t.Errorf("expected 1 fault, got %d", len(out.Faults))
	}
	if out.FailMode != "closed" {
		t.Errorf("expected closed, got %q", out.FailMode)
	}
	if len(out.CredentialFiles.Names) == 0 {
		t.Error("expected credential file names")
	}
}

func TestNewDefaults(t *testing.T) {
	s := New(Config{})
	if s.ic == nil || s.mcpServer == nil {
		t.Fatal("expected defaults to be filled in")
	}
}
