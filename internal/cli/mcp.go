package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	guardmcp "github.com/ppiankov/envguard/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs envguard as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes dry-run tools: envguard_check, envguard_rules.",
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the protocol; diagnostics go to the log file or nowhere.
	logger, closeLog, err := newLogger(cfg, logLevel, true)
	if err != nil {
		return err
	}
	defer closeLog()

	srv := guardmcp.New(guardmcp.Config{
		Interceptor: cfg.Interceptor(logger),
		Version:     version,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	return srv.Run(ctx)
}
