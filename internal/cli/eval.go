package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/envguard/internal/hook"
	"github.com/ppiankov/envguard/internal/model"
)

var (
	evalTool     string
	evalCommand  string
	evalFilePath string
	evalPath     string
	evalGlob     string
	evalJSON     bool
	evalAudit    bool
)

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalTool, "tool", "", "Tool name (Bash, Read, Grep); inferred from the other flags when omitted")
	evalCmd.Flags().StringVar(&evalCommand, "command", "", "Bash command line")
	evalCmd.Flags().StringVar(&evalFilePath, "file-path", "", "Read file path")
	evalCmd.Flags().StringVar(&evalPath, "path", "", "Grep search path")
	evalCmd.Flags().StringVar(&evalGlob, "glob", "", "Grep file glob")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "Print the decision as JSON")
	evalCmd.Flags().BoolVar(&evalAudit, "audit", false, "Write an audit record on block, as the hook would")
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Show the decision for a tool call without blocking anything",
	Long: "Evaluates a tool call given by flags, or a hook payload read from stdin\n" +
		"when no flags are set, and prints the decision. Always exits 0.\n\n" +
		"  envguard eval --command 'source .env'\n" +
		"  envguard eval --file-path /repo/.env.example\n" +
		"  echo '{\"tool_name\":\"Grep\",\"tool_input\":{\"glob\":\".env*\"}}' | envguard eval",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEval(os.Stdin, cmd.OutOrStdout())
	},
}

func runEval(in io.Reader, out io.Writer) error {
	req, err := evalRequest(in)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, logLevel, true)
	if err != nil {
		return err
	}
	defer closeLog()

	ic := cfg.Interceptor(logger)
	var d model.Decision
	if evalAudit {
		d = ic.Evaluate(req)
	} else {
		d = ic.Classify(req)
	}

	if evalJSON {
		data, err := json.MarshalIndent(struct {
			Tool string `json:"tool"`
			model.Decision
		}{req.ToolName, d}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if d.Blocked() {
		fmt.Fprintf(out, "BLOCK  %s\n", d.Reason)
		fmt.Fprint(out, hook.BlockMessage(d.Reason))
		return nil
	}
	fmt.Fprintln(out, "ALLOW")
	return nil
}

// evalRequest builds the request from flags, or decodes stdin when none are set.
func evalRequest(in io.Reader) (model.ToolRequest, error) {
	input := map[string]any{}
	tool := evalTool

	switch {
	case evalCommand != "":
		input["command"] = evalCommand
		if tool == "" {
			tool = model.ToolBash
		}
	case evalFilePath != "":
		input["file_path"] = evalFilePath
		if tool == "" {
			tool = model.ToolRead
		}
	case evalPath != "" || evalGlob != "":
		if evalPath != "" {
			input["path"] = evalPath
		}
		if evalGlob != "" {
			input["glob"] = evalGlob
		}
		if tool == "" {
			tool = model.ToolGrep
		}
	}

	if tool == "" {
		req, err := hook.Decode(in)
		if err != nil {
			return model.ToolRequest{}, fmt.Errorf("no tool call given: %w", err)
		}
		return hook.ResolveSession(req, os.Getenv), nil
	}
	return hook.ResolveSession(model.ToolRequest{ToolName: tool, Input: input}, os.Getenv), nil
}
