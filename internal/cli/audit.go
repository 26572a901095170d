package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/envguard/internal/audit"
)

var (
	auditPath    string
	auditSession string
	auditTool    string
	auditJSON    bool
	auditLimit   int
	auditSince   time.Duration
)

func init() {
	auditCmd.PersistentFlags().StringVar(&auditPath, "path", "", "Audit log to read (default from config)")
	auditCmd.PersistentFlags().StringVar(&auditSession, "session", "", "Only records for this session ID")
	auditCmd.PersistentFlags().StringVar(&auditTool, "tool", "", "Only records for this tool (Bash, Read, Grep)")
	auditCmd.PersistentFlags().DurationVar(&auditSince, "since", 0, "Only records newer than this (e.g. 24h)")
	auditCmd.PersistentFlags().BoolVar(&auditJSON, "json", false, "Output as JSON")
	auditTailCmd.Flags().IntVarP(&auditLimit, "lines", "n", 20, "Number of records to show (0 for all)")

	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditStatsCmd)
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the block log",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the most recent block and error records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuditTail(cmd.OutOrStdout(), time.Now())
	},
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize blocks by reason, tool and session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuditStats(cmd.OutOrStdout(), time.Now())
	},
}

func auditRecords(now time.Time) ([]audit.Record, error) {
	path := auditPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Audit.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no audit log configured (set audit.path or pass --path)")
	}

	filter := audit.Filter{SessionID: auditSession, Tool: auditTool}
	if auditSince > 0 {
		filter.From = now.Add(-auditSince)
	}
	return audit.Read(path, filter)
}

func runAuditTail(out io.Writer, now time.Time) error {
	records, err := auditRecords(now)
	if err != nil {
		return err
	}
	records = audit.Tail(records, auditLimit)

	if auditJSON {
		s, err := audit.FormatJSON(records)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
		return nil
	}
	fmt.Fprint(out, audit.FormatRecords(records))
	return nil
}

func runAuditStats(out io.Writer, now time.Time) error {
	records, err := auditRecords(now)
	if err != nil {
		return err
	}
	summary := audit.Summarize(records)

	if auditJSON {
		s, err := audit.FormatJSON(summary)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
		return nil
	}
	fmt.Fprint(out, audit.FormatSummary(summary))
	return nil
}
