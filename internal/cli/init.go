package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/envguard/internal/config"
)

var (
	initPath  string
	initForce bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initPath, "path", "", "Where to write the config (default ~/.envguard/config.yaml)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file with the built-in rules",
	Long: "Creates ~/.envguard/config.yaml holding the default fail mode, audit\n" +
		"settings and credential file names. Built-in command rules stay active;\n" +
		"add your own under rules.custom.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.OutOrStdout())
	},
}

func runInit(out io.Writer) error {
	path := initPath
	if path == "" {
		path = config.DefaultPath()
	}
	path = config.ExpandHome(path)

	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Fprintf(out, "  exists   %s (use --force to overwrite)\n", path)
		return nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(out, "  created  %s\n", path)
	fmt.Fprintln(out, "\nNext: envguard install   (register the PreToolUse hook)")
	return nil
}
