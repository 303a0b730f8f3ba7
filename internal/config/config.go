// Package config loads settings shared by the cdb-* command-line tools:
// where new databases are created by default, and what capacity/interval
// they get when a command doesn't specify one explicitly.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// Config holds settings shared across the cdb-* tools.
type Config struct {
	DataDir           string `json:"data_dir"`    //nolint:tagliatelle // snake_case for config file
	DefaultMaxRecords uint64 `json:"max_records"` //nolint:tagliatelle // snake_case for config file
	DefaultInterval   int32  `json:"interval"`
}

// ConfigFileName is the project-local config file name.
const ConfigFileName = ".cdb.json"

var (
	errConfigFileNotFound = errors.New("config: file not found")
	errConfigFileRead     = errors.New("config: could not read file")
	errConfigInvalid      = errors.New("config: invalid")
	errDataDirEmpty       = errors.New("config: data_dir must not be empty")
)

// Default returns the built-in defaults used when no config file is found.
func Default() Config {
	return Config{
		DataDir:           ".",
		DefaultMaxRecords: 105120,
		DefaultInterval:   300,
	}
}

// Sources records which config files contributed to a loaded Config, for
// diagnostics (e.g. a "cdb-shell config" subcommand).
type Sources struct {
	Global  string
	Project string
}

// Load loads configuration with the following precedence (highest wins):
//  1. Default()
//  2. Global user config (~/.config/cdb/config.json, or
//     $XDG_CONFIG_HOME/cdb/config.json if set)
//  3. Project config file at workDir/.cdb.json, or an explicit configPath
//  4. CLI overrides (dataDirOverride, applied only if hasDataDirOverride)
func Load(workDir, configPath, dataDirOverride string, hasDataDirOverride bool, env []string) (Config, Sources, error) {
	cfg := Default()

	var sources Sources

	globalCfg, globalPath, err := loadGlobalConfig(env)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	if hasDataDirOverride {
		cfg.DataDir = dataDirOverride
	}

	if cfg.DataDir == "" {
		return Config{}, Sources{}, errDataDirEmpty
	}

	return cfg, sources, nil
}

// WriteGlobal writes cfg as the global user config file
// (XDG_CONFIG_HOME/cdb/config.json, falling back to ~/.config/cdb/config.json),
// creating its parent directory if needed. The write is atomic: a concurrent
// reader (another cdb-* invocation calling Load) never observes a partially
// written file, and a process killed mid-write leaves the previous config (or
// none) intact rather than a truncated one.
func WriteGlobal(env []string, cfg Config) (string, error) {
	path := globalConfigPath(env)
	if path == "" {
		return "", errDataDirEmpty
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:mnd // standard dir perms
		return "", fmt.Errorf("config: create dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("config: marshal: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("config: atomic write %s: %w", path, err)
	}

	return path, nil
}

func globalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "cdb", "config.json")
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cdb", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "cdb", "config.json")
	}

	return ""
}

func loadGlobalConfig(env []string) (Config, string, error) {
	path := globalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadConfigFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var path string

	var mustExist bool

	if configPath != "" {
		path = configPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		mustExist = true

		if _, err := os.Stat(path); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		path = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	cfg, loaded, err := loadConfigFile(path, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", errConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func merge(base, overlay Config) Config {
	if overlay.DataDir != "" {
		base.DataDir = overlay.DataDir
	}

	if overlay.DefaultMaxRecords != 0 {
		base.DefaultMaxRecords = overlay.DefaultMaxRecords
	}

	if overlay.DefaultInterval != 0 {
		base.DefaultInterval = overlay.DefaultInterval
	}

	return base
}
