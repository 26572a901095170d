package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/envguard/internal/config"
)

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default $ENVGUARD_CONFIG or ~/.envguard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug|info|warn|error)")
}

var rootCmd = &cobra.Command{
	Use:   "envguard",
	Short: "Credential exposure gate for AI agent tool calls",
	Long: "Inspects Bash, Read and Grep tool calls before they run and blocks the ones\n" +
		"that would put .env contents, API keys or tokens into the agent's context.\n" +
		"Runs as a PreToolUse hook, a gRPC decision service, or an MCP server.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
