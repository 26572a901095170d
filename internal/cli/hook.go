package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/envguard/internal/client"
	"github.com/ppiankov/envguard/internal/config"
	"github.com/ppiankov/envguard/internal/hook"
	"github.com/ppiankov/envguard/internal/intercept"
)

var (
	hookOutput string
	hookStdout bool
	hookRemote string
)

func init() {
	rootCmd.AddCommand(hookCmd)
	hookCmd.Flags().StringVarP(&hookOutput, "output", "o", hook.OutputText, "Decision format: text (exit 2 + stderr message) or json (exit 0 + hookSpecificOutput)")
	hookCmd.Flags().BoolVar(&hookStdout, "stdout", false, "Also write the block message to stdout")
	hookCmd.Flags().StringVar(&hookRemote, "remote", "", "Ask a running 'envguard serve' at host:port instead of evaluating locally")
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Evaluate one PreToolUse payload from stdin",
	Long: "Reads a single hook payload ({tool_name, tool_input, session_id}) from stdin.\n\n" +
		"Exit 0 allows the tool call. Exit 2 blocks it and prints the reason on stderr.\n" +
		"Unreadable input is always allowed: the gate never halts tool use by failing.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		code := runHook(os.Stdin, os.Stdout, os.Stderr)
		if code != hook.ExitAllow {
			os.Exit(code)
		}
	},
}

// runHook never fails. A broken config falls back to the built-in rules.
func runHook(in io.Reader, stdout, stderr io.Writer) int {
	cfg, cfgErr := loadConfig()
	if cfgErr != nil {
		cfg = config.Default()
	}

	logger, closeLog, err := newLogger(cfg, logLevel, true)
	if err != nil {
		logger = slog.New(slog.DiscardHandler)
	}
	defer closeLog()
	if cfgErr != nil {
		logger.Warn("config unusable, using built-in rules", "error", cfgErr)
	}

	var ev hook.Evaluator = cfg.Interceptor(logger)
	if hookRemote != "" {
		c, err := client.New(hookRemote)
		if err != nil {
			logger.Warn("remote unavailable, evaluating locally", "addr", hookRemote, "error", err)
		} else {
			defer c.Close()
			ev = client.Remote{
				Client:   c,
				FailMode: intercept.FailMode(cfg.FailMode),
				OnError: func(err error) {
					logger.Warn("remote evaluation failed", "addr", hookRemote, "error", err)
				},
			}
		}
	}

	return hook.Run(in, stdout, stderr, ev, hook.Options{
		Output: hookOutput,
		Stdout: hookStdout,
		Getenv: os.Getenv,
		Logger: logger,
	})
}
