// Package config loads envguard settings from YAML, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/envguard/internal/audit"
	"github.com/ppiankov/envguard/internal/denylist"
	"github.com/ppiankov/envguard/internal/intercept"
)

// EnvPrefix namespaces environment overrides: ENVGUARD_FAIL_MODE,
// ENVGUARD_AUDIT_PATH, ENVGUARD_LOG_LEVEL and so on.
const EnvPrefix = "ENVGUARD"

// EnvConfigPath names an alternate config file.
const EnvConfigPath = "ENVGUARD_CONFIG"

// ErrInvalidFailMode is returned when fail_mode is neither open nor closed.
var ErrInvalidFailMode = errors.New("invalid fail_mode")

// Config is the root configuration.
type Config struct {
	FailMode string            `mapstructure:"fail_mode" yaml:"fail_mode"`
	Audit    AuditConfig       `mapstructure:"audit" yaml:"audit"`
	Rules    denylist.Patterns `mapstructure:"rules" yaml:"rules"`
	Log      LogConfig         `mapstructure:"log" yaml:"log"`

	// Source is the file the config was read from, empty for defaults only.
	Source string `mapstructure:"-" yaml:"-"`
}

// AuditConfig controls the block log.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
	Redact  bool   `mapstructure:"redact" yaml:"redact"`
}

// LogConfig controls diagnostic logging. An empty level keeps the hook silent.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FailMode: string(intercept.FailOpen),
		Audit: AuditConfig{
			Enabled: true,
			Path:    DefaultAuditPath(),
			Redact:  true,
		},
		Rules: denylist.Patterns{
			CredentialFiles: denylist.DefaultPatterns.CredentialFiles,
		},
	}
}

// Dir returns the envguard config directory.
func Dir() string {
	return filepath.Join(homeDir(), ".envguard")
}

// DefaultPath returns the config file consulted when none is named.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultAuditPath returns the standard block log location.
func DefaultAuditPath() string {
	return filepath.Join(homeDir(), ".claude-security", "security-guard.log")
}

// Resolve picks the config file: explicit path, then $ENVGUARD_CONFIG, then
// DefaultPath if it exists. It returns "" when only defaults apply.
func Resolve(path string) string {
	if path != "" {
		return ExpandHome(path)
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return ExpandHome(env)
	}
	if _, err := os.Stat(DefaultPath()); err == nil {
		return DefaultPath()
	}
	return ""
}

// Load reads configuration. An explicitly named file that does not exist is
// an error; a missing default file is not.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	source := Resolve(path)
	if source != "" {
		v.SetConfigFile(source)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", source, err)
		}
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		)
		dc.MatchName = func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		}
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Source = source

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fail_mode", cfg.FailMode)
	v.SetDefault("audit.enabled", cfg.Audit.Enabled)
	v.SetDefault("audit.path", cfg.Audit.Path)
	v.SetDefault("audit.redact", cfg.Audit.Redact)
	v.SetDefault("rules.replace_defaults", false)
	v.SetDefault("rules.commands", []denylist.RuleSpec{})
	v.SetDefault("rules.custom", []denylist.RuleSpec{})
	v.SetDefault("rules.credential_files.names", cfg.Rules.CredentialFiles.Names)
	v.SetDefault("rules.credential_files.prefixes", cfg.Rules.CredentialFiles.Prefixes)
	v.SetDefault("rules.credential_files.allow_suffixes", cfg.Rules.CredentialFiles.AllowSuffixes)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

func normalizeKey(input string) string {
	input = strings.ReplaceAll(input, "_", "")
	input = strings.ReplaceAll(input, "-", "")
	return strings.ToLower(input)
}

// Validate normalizes values and rejects unknown modes and levels.
func (c *Config) Validate() error {
	mode := strings.ToLower(strings.TrimSpace(c.FailMode))
	if mode == "" {
		mode = string(intercept.FailOpen)
	}
	if !intercept.FailMode(mode).Valid() {
		return fmt.Errorf("%w: %q (want open or closed)", ErrInvalidFailMode, c.FailMode)
	}
	c.FailMode = mode

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "", "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	c.Audit.Path = ExpandHome(strings.TrimSpace(c.Audit.Path))
	c.Log.File = ExpandHome(strings.TrimSpace(c.Log.File))
	return nil
}

// AuditEnabled reports whether blocks are logged.
func (c *Config) AuditEnabled() bool {
	return c.Audit.Enabled && c.Audit.Path != ""
}

// Denylist compiles the configured rules.
func (c *Config) Denylist() *denylist.Denylist {
	return denylist.New(c.Rules)
}

// Sink returns the audit sink, or a no-op sink when auditing is disabled.
func (c *Config) Sink() audit.Sink {
	if !c.AuditEnabled() {
		return audit.Nop{}
	}
	return audit.NewFileSink(c.Audit.Path, c.Audit.Redact)
}

// Interceptor builds an Interceptor from the configuration.
func (c *Config) Interceptor(logger *slog.Logger) *intercept.Interceptor {
	return intercept.New(intercept.Config{
		Rules:    c.Denylist(),
		Sink:     c.Sink(),
		FailMode: intercept.FailMode(c.FailMode),
		Logger:   logger,
	})
}

// Render serializes cfg as a commented YAML document.
func Render(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	header := "# envguard configuration\n" +
		"# fail_mode: open allows the tool call when evaluation breaks, closed blocks it.\n" +
		"# rules.custom entries are appended after the built-in command rules.\n"
	return append([]byte(header), data...), nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := Render(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
