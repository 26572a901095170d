package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/envguard/internal/intercept"
)

// Config holds MCP server configuration.
type Config struct {
	Interceptor *intercept.Interceptor
	Version     string
}

// Server exposes envguard decisions to MCP clients. All tools are dry runs:
// nothing is executed and nothing is written to the audit log.
type Server struct {
	mcpServer *mcpsdk.Server
	ic        *intercept.Interceptor
}

// New creates an MCP server around an Interceptor.
func New(cfg Config) *Server {
	ic := cfg.Interceptor
	if ic == nil {
		ic = intercept.New(intercept.Config{})
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{ic: ic}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "envguard",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all envguard tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "envguard_check",
		Description: "Check whether a tool call (Bash, Read, Grep) would be blocked for exposing credentials, without running it.",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "envguard_rules",
		Description: "List the active command rules and credential file naming rule.",
	}, s.handleRules)
}
