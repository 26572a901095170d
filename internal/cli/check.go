package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/envguard/internal/scenario"
)

var (
	checkScenario string
	checkFormat   string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkScenario, "scenario", "", "Glob pattern for scenario YAML files (required)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
	checkCmd.MarkFlagRequired("scenario")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run rule assertions from scenario files",
	Long: "Loads scenario YAML files matching a glob pattern, classifies each\n" +
		"case with the configured rules, and reports pass/fail.\n\n" +
		"Exit code 0 if all cases pass, 1 if any fail.\n" +
		"Use in CI to gate changes to custom rules.",
	RunE: func(cmd *cobra.Command, args []string) error {
		failed, err := runCheck(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if failed {
			os.Exit(1)
		}
		return nil
	},
}

func runCheck(out io.Writer) (bool, error) {
	matches, err := filepath.Glob(checkScenario)
	if err != nil {
		return false, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return false, fmt.Errorf("no scenario files match pattern: %s", checkScenario)
	}

	cfg, err := loadConfig()
	if err != nil {
		return false, err
	}
	ic := cfg.Interceptor(nil)

	var results []*scenario.RunResult
	for _, path := range matches {
		r, err := scenario.LoadAndRun(path, ic)
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, r)
	}

	switch checkFormat {
	case "json":
		s, err := scenario.FormatJSON(results)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, s)
	default:
		fmt.Fprint(out, scenario.FormatText(results))
	}

	for _, r := range results {
		if r.Failed > 0 {
			return true, nil
		}
	}
	return false, nil
}
