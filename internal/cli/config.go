package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/reclist/pkg/fs"
	"github.com/calvinalkan/reclist/pkg/jsontree"
)

// Config holds all configuration options.
type Config struct {
	// Format is the default output template of show, load, dir and db get.
	Format string `json:"format,omitempty"`

	// Indent is the default indent of the json command.
	Indent string `json:"indent,omitempty"`

	// History is the shell history file, relative to the work dir.
	History string `json:"history,omitempty"`

	// Store is the bbolt database of the db command, relative to the work dir.
	Store string `json:"store,omitempty"`

	// Shell runs ":command" sources.
	Shell string `json:"shell,omitempty"`

	// LockTimeout bounds the wait for another recl editing the same file,
	// as a duration string.
	LockTimeout string `json:"lock_timeout,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".recl.json"

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Indent:  jsontree.DefaultIndent,
		History: ".recl_history",
		Store:   ".recl.db",
		Shell:   "sh",

		LockTimeout: "10s",
	}
}

// globalConfigPath returns $XDG_CONFIG_HOME/recl/config.json, falling back
// to $HOME/.config/recl/config.json. Empty when neither is set.
func globalConfigPath(env map[string]string) string {
	if dir := env["XDG_CONFIG_HOME"]; dir != "" {
		return filepath.Join(dir, "recl", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "recl", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/recl/config.json)
// 3. Project config file (.recl.json in workDir, if it exists)
// 4. Explicit config file via configPath (replaces 3, must exist).
func LoadConfig(fsys fs.FS, workDir, configPath string, env map[string]string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	if path := globalConfigPath(env); path != "" {
		globalCfg, loaded, err := loadConfigFile(fsys, path, false)
		if err != nil {
			return Config{}, ConfigSources{}, err
		}

		if loaded {
			sources.Global = path
			cfg = mergeConfig(cfg, globalCfg)
		}
	}

	path, mustExist := filepath.Join(workDir, ConfigFileName), false

	if configPath != "" {
		path, mustExist = configPath, true
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
	}

	projectCfg, loaded, err := loadConfigFile(fsys, path, mustExist)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	if loaded {
		sources.Project = path
		cfg = mergeConfig(cfg, projectCfg)
	}

	err = validateConfig(cfg)
	if err != nil {
		return Config{}, ConfigSources{}, fmt.Errorf("%w: %w", errConfigInvalid, err)
	}

	return cfg, sources, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return a zero config and loaded=false.
func loadConfigFile(fsys fs.FS, path string, mustExist bool) (Config, bool, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist) && !mustExist:
			return Config{}, false, nil
		case errors.Is(err, os.ErrNotExist):
			return Config{}, false, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		default:
			return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigFileRead, path, err)
		}
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Format != "" {
		base.Format = overlay.Format
	}

	if overlay.Indent != "" {
		base.Indent = overlay.Indent
	}

	if overlay.History != "" {
		base.History = overlay.History
	}

	if overlay.Store != "" {
		base.Store = overlay.Store
	}

	if overlay.Shell != "" {
		base.Shell = overlay.Shell
	}

	if overlay.LockTimeout != "" {
		base.LockTimeout = overlay.LockTimeout
	}

	return base
}

func validateConfig(cfg Config) error {
	if strings.Trim(cfg.Indent, " \t") != "" {
		return fmt.Errorf("%w: %q", errIndentInvalid, cfg.Indent)
	}

	d, err := time.ParseDuration(cfg.LockTimeout)
	if err != nil || d <= 0 {
		return fmt.Errorf("%w: %q", errLockTimeoutInvalid, cfg.LockTimeout)
	}

	return nil
}

// FormatConfig returns the config as formatted JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
