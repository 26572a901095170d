package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// HookMatcher selects the tool calls routed through the gate.
const HookMatcher = "Bash|Read|Grep"

const preToolUse = "PreToolUse"

var (
	installSettings string
	installCommand  string
	installDryRun   bool
	installRemove   bool
)

// HookEntry is a single hook command in Claude settings.
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup is a matcher with its hook commands.
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().StringVar(&installSettings, "settings", "", "Settings file to edit (default ~/.claude/settings.json)")
	installCmd.Flags().StringVar(&installCommand, "command", "envguard hook", "Hook command to register")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Print the resulting settings without writing")
	installCmd.Flags().BoolVar(&installRemove, "remove", false, "Remove the envguard hook instead of installing it")
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register envguard as a PreToolUse hook in Claude settings",
	Long: "Adds a PreToolUse hook group matching " + HookMatcher + " to the Claude\n" +
		"settings file. Other hooks and settings are preserved; a previous envguard\n" +
		"group is replaced. The original file is backed up next to it first.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := installSettings
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("get home directory: %w", err)
			}
			path = filepath.Join(home, ".claude", "settings.json")
		}
		return runInstall(cmd.OutOrStdout(), path, time.Now())
	},
}

func runInstall(out io.Writer, settingsPath string, now time.Time) error {
	settings, err := readSettings(settingsPath)
	if err != nil {
		return err
	}

	var group *HookGroup
	if !installRemove {
		group = &HookGroup{
			Matcher: HookMatcher,
			Hooks:   []HookEntry{{Type: "command", Command: installCommand}},
		}
	}
	mergePreToolUse(settings, group)

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')

	if installDryRun {
		_, err := out.Write(data)
		return err
	}

	backup, err := backupSettings(settingsPath, now)
	if err != nil {
		return err
	}
	if backup != "" {
		fmt.Fprintf(out, "Backed up existing settings to %s\n", backup)
	}

	if err := os.MkdirAll(filepath.Dir(settingsPath), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(settingsPath, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	if installRemove {
		fmt.Fprintf(out, "Removed envguard hook from %s\n", settingsPath)
	} else {
		fmt.Fprintf(out, "Installed PreToolUse hook (%s -> %s) in %s\n", HookMatcher, installCommand, settingsPath)
	}
	return nil
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return map[string]any{}, nil
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

// mergePreToolUse drops envguard-managed PreToolUse groups and appends group
// when it is non-nil. Empty hook maps are removed.
func mergePreToolUse(settings map[string]any, group *HookGroup) {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		hooksMap = map[string]any{}
	}

	groups := make([]any, 0)
	if existing, ok := hooksMap[preToolUse].([]any); ok {
		for _, g := range existing {
			if gm, ok := g.(map[string]any); ok && groupIsManaged(gm) {
				continue
			}
			groups = append(groups, g)
		}
	}
	if group != nil {
		groups = append(groups, hookGroupToMap(*group))
	}

	if len(groups) == 0 {
		delete(hooksMap, preToolUse)
	} else {
		hooksMap[preToolUse] = groups
	}
	if len(hooksMap) == 0 {
		delete(settings, "hooks")
		return
	}
	settings["hooks"] = hooksMap
}

func hookGroupToMap(g HookGroup) map[string]any {
	hooks := make([]any, 0, len(g.Hooks))
	for _, h := range g.Hooks {
		entry := map[string]any{"type": h.Type, "command": h.Command}
		if h.Timeout > 0 {
			entry["timeout"] = h.Timeout
		}
		hooks = append(hooks, entry)
	}
	m := map[string]any{"hooks": hooks}
	if g.Matcher != "" {
		m["matcher"] = g.Matcher
	}
	return m
}

func groupIsManaged(group map[string]any) bool {
	hooks, ok := group["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		entry, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := entry["command"].(string); ok && isManagedCommand(cmd) {
			return true
		}
	}
	return false
}

func isManagedCommand(cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) < 2 {
		return false
	}
	return filepath.Base(fields[0]) == "envguard" && fields[1] == "hook"
}

// backupSettings copies an existing settings file aside. It returns the
// backup path, or "" when there was nothing to back up.
func backupSettings(settingsPath string, now time.Time) (string, error) {
	data, err := os.ReadFile(settingsPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read settings: %w", err)
	}
	backupPath := fmt.Sprintf("%s.backup.%s", settingsPath, now.Format("20060102-150405"))
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	return backupPath, nil
}
