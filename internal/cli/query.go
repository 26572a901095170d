package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/envguard/internal/client"
)

var (
	queryAddr    string
	queryTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryAddr, "addr", "localhost:50051", "Decision service address")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", client.DefaultTimeout, "RPC timeout")
	queryCmd.Flags().StringVar(&evalTool, "tool", "", "Tool name (Bash, Read, Grep)")
	queryCmd.Flags().StringVar(&evalCommand, "command", "", "Bash command line")
	queryCmd.Flags().StringVar(&evalFilePath, "file-path", "", "Read file path")
	queryCmd.Flags().StringVar(&evalPath, "path", "", "Grep search path")
	queryCmd.Flags().StringVar(&evalGlob, "glob", "", "Grep file glob")
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Ask a running decision service about a tool call",
	Long: "Sends one tool call to 'envguard serve' and prints the decision as JSON.\n" +
		"The call is evaluated and audited by the service like a hook request.\n" +
		"Takes the same flags as eval, or a hook payload on stdin.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(os.Stdin, cmd.OutOrStdout())
	},
}

func runQuery(in io.Reader, out io.Writer) error {
	req, err := evalRequest(in)
	if err != nil {
		return err
	}

	c, err := client.New(queryAddr)
	if err != nil {
		return err
	}
	defer c.Close()
	c.SetTimeout(queryTimeout)

	d, msg, err := c.Evaluate(context.Background(), req)
	if err != nil {
		return fmt.Errorf("query %s: %w", queryAddr, err)
	}

	data, err := json.MarshalIndent(struct {
		Decision string `json:"decision"`
		Reason   string `json:"reason,omitempty"`
		Detail   string `json:"detail,omitempty"`
		Message  string `json:"message,omitempty"`
	}{string(d.Outcome), d.Reason, d.Detail, msg}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}
