package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/envguard/internal/denylist"
)

var rulesYAML bool

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().BoolVar(&rulesYAML, "yaml", false, "Print the effective rules as config YAML")
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active rules in evaluation order",
	Long: "Prints the Bash command rules in the order they are tried (first match\n" +
		"wins), the credential file naming rule, and any configured rule that\n" +
		"failed to compile and was skipped.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRules(cmd.OutOrStdout())
	},
}

func runRules(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dl := cfg.Denylist()

	if rulesYAML {
		effective := denylist.Patterns{
			ReplaceDefaults: true,
			Commands:        effectiveSpecs(dl),
			CredentialFiles: dl.CredentialFiles(),
		}
		data, err := yaml.Marshal(map[string]any{"rules": effective})
		if err != nil {
			return fmt.Errorf("marshal rules: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	source := cfg.Source
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(out, "Config:    %s\n", source)
	fmt.Fprintf(out, "Fail mode: %s\n\n", cfg.FailMode)

	fmt.Fprintln(out, "Bash rules (first match wins):")
	for i, r := range dl.Commands() {
		fmt.Fprintf(out, "  %2d  %-38s %s\n", i+1, r.Reason, r.Pattern)
	}

	cf := dl.CredentialFiles()
	fmt.Fprintln(out, "\nCredential files (Read file_path, Grep path/glob):")
	fmt.Fprintf(out, "  names:          %s\n", strings.Join(cf.Names, " "))
	fmt.Fprintf(out, "  prefixes:       %s\n", strings.Join(cf.Prefixes, " "))
	fmt.Fprintf(out, "  allow suffixes: %s\n", strings.Join(cf.AllowSuffixes, " "))

	if faults := dl.Faults(); len(faults) > 0 {
		fmt.Fprintln(out, "\nSkipped (failed to compile):")
		for _, f := range faults {
			fmt.Fprintf(out, "  %s\n", f.Error())
		}
	}
	return nil
}

// effectiveSpecs lists the command rules in evaluation order, leaving out the
// ones that failed to compile.
func effectiveSpecs(dl *denylist.Denylist) []denylist.RuleSpec {
	raw := dl.Raw()
	var specs []denylist.RuleSpec
	if !raw.ReplaceDefaults {
		specs = append(specs, denylist.DefaultPatterns.Commands...)
	}
	specs = append(specs, raw.Commands...)
	specs = append(specs, raw.Custom...)

	skip := make(map[int]bool)
	for _, f := range dl.Faults() {
		skip[f.Index] = true
	}
	out := make([]denylist.RuleSpec, 0, len(specs))
	for i, spec := range specs {
		if !skip[i] {
			out = append(out, spec)
		}
	}
	return out
}
