package client

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/envguard/internal/intercept"
	"github.com/ppiankov/envguard/internal/model"
	"github.com/ppiankov/envguard/internal/server"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

// startTestServer creates a server + returns its address.
func startTestServer(t *testing.T) (string, func()) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ENVGUARD_CONFIG", "")

	logPath := filepath.Join(t.TempDir(), "guard.log")
	cfgPath := writeTempFile(t, "config.yaml", "audit:\n  path: "+logPath+"\n")

	srv, err := server.New(server.Config{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go srv.ServeOn(lis)

	return lis.Addr().String(), srv.GracefulStop
}

// unusedAddr returns an address nothing is listening on.
func unusedAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := lis.Addr().String()
	lis.Close()
	return addr
}

func TestClientEvaluateAllowed(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	c, err := New(addr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	d, msg, err := c.Evaluate(context.Background(), model.ToolRequest{ToolName: "Bash", Input: map[string]any{"command": "go test ./..."}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Blocked() || msg != "" {
		t.Errorf("expected allow, got %+v %q", d, msg)
	}
}

func TestClientEvaluateBlocked(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	c, err := New(addr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	d, msg, err := c.Evaluate(context.Background(), model.ToolRequest{ToolName: "Bash", Input: map[string]any{"command": "source .env"}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !d.Blocked() || d.Reason != ".env sourcing" {
		t.Errorf("expected block, got %+v", d)
	}
	if !strings.Contains(msg, "Use credential-isolated wrapper scripts") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestClientUnreachable(t *testing.T) {
	c, err := New(unusedAddr(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	c.SetTimeout(300 * time.Millisecond)

	if _, _, err := c.Evaluate(context.Background(), model.ToolRequest{ToolName: "Bash"}); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}

func TestRemoteFailModes(t *testing.T) {
	c, err := New(unusedAddr(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	c.SetTimeout(300 * time.Millisecond)

	req := model.ToolRequest{ToolName: "Read", Input: map[string]any{"file_path": "main.go"}}

	var errs int
	open := Remote{Client: c, FailMode: intercept.FailOpen, OnError: func(error) { errs++ }}
	if d := open.Evaluate(req); d.Blocked() {
		t.Errorf("expected fail-open allow, got %+v", d)
	}
	if errs != 1 {
		t.Errorf("expected OnError to be called once, got %d", errs)
	}

	closed := Remote{Client: c, FailMode: intercept.FailClosed}
	d := closed.Evaluate(req)
	if !d.Blocked() || d.Reason != ReasonUnreachable {
		t.Errorf("expected fail-closed block, got %+v", d)
	}
}

func TestRemoteUsesServerDecision(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	c, err := New(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	r := Remote{Client: c, FailMode: intercept.FailClosed}
	if d := r.Evaluate(model.ToolRequest{ToolName: "Grep", Input: map[string]any{"path": ".env.local"}}); !d.Blocked() {
		t.Errorf("expected block, got %+v", d)
	}
	if d := r.Evaluate(model.ToolRequest{ToolName: "Grep", Input: map[string]any{"path": ".env.sample"}}); d.Blocked() {
		t.Errorf("expected allow, got %+v", d)
	}
}
