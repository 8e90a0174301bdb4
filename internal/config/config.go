// Package config builds the immutable run configuration from the environment,
// an optional settings file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "datesync"

	// SettingsFile is the optional settings filename inside the config directory.
	SettingsFile = "config.yaml"

	// DefaultBaseURL is the Asana REST API root.
	DefaultBaseURL = "https://app.asana.com/api/1.0"

	// DefaultTimeout bounds each API call.
	DefaultTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvToken     = "ASANA_PAT"
	EnvProjectID = "PROJECT_GID"
	EnvBaseURL   = "ASANA_BASE_URL"
)

// Config holds everything a run needs. Build it once with Load and pass it
// down; nothing reads the environment after that.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Token is the personal access token sent as a bearer token.
	Token string

	// ProjectID is the project whose parent tasks are scanned.
	ProjectID string

	// BaseURL is the API root, without trailing slash.
	BaseURL string

	// Timeout bounds each API call.
	Timeout time.Duration

	// DryRun computes updates without writing them.
	DryRun bool

	// FailFast aborts the run on the first failed task.
	FailFast bool

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// Settings is the on-disk shape of config.yaml. Credentials and the project
// are read from the environment only.
type Settings struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	DryRun   bool          `yaml:"dry_run"`
	FailFast bool          `yaml:"fail_fast"`
}

// MissingEnvError reports required environment variables that are unset or empty.
type MissingEnvError struct {
	Vars []string
}

func (e *MissingEnvError) Error() string {
	return "missing required environment variable(s): " + strings.Join(e.Vars, ", ")
}

// SettingsError wraps a failure to read or parse the settings file.
type SettingsError struct {
	Path string
	Err  error
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("settings file %s: %v", e.Path, e.Err)
}

func (e *SettingsError) Unwrap() error { return e.Err }

// Load creates a Config from the given config directory and environment lookup.
// If configDir is empty, uses XDG_CONFIG_HOME/datesync or $HOME/.config/datesync.
// Precedence is defaults, then settings file, then environment.
// Load does not require credentials; call Validate before touching the network.
func Load(configDir string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir(getenv)
	}

	cfg := Default(dir)

	settings, err := readSettings(cfg.SettingsPath())
	if err != nil {
		return nil, err
	}
	if settings != nil {
		if settings.BaseURL != "" {
			cfg.BaseURL = settings.BaseURL
		}
		if settings.Timeout > 0 {
			cfg.Timeout = settings.Timeout
		}
		cfg.DryRun = settings.DryRun
		cfg.FailFast = settings.FailFast
	}

	cfg.Token = strings.TrimSpace(getenv(EnvToken))
	cfg.ProjectID = strings.TrimSpace(getenv(EnvProjectID))
	if base := strings.TrimSpace(getenv(EnvBaseURL)); base != "" {
		cfg.BaseURL = base
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return cfg, nil
}

// Default returns the configuration used when no settings file or
// environment applies.
func Default(dir string) *Config {
	return &Config{
		Dir:     dir,
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Validate checks that the required environment variables were provided.
func (c *Config) Validate() error {
	var missing []string
	if c.Token == "" {
		missing = append(missing, EnvToken)
	}
	if c.ProjectID == "" {
		missing = append(missing, EnvProjectID)
	}
	if len(missing) > 0 {
		return &MissingEnvError{Vars: missing}
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to the optional settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// readSettings returns nil settings when the file does not exist.
func readSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &SettingsError{Path: path, Err: err}
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &SettingsError{Path: path, Err: err}
	}
	if s.Timeout < 0 {
		return nil, &SettingsError{Path: path, Err: fmt.Errorf("timeout must be positive: %s", s.Timeout)}
	}
	return &s, nil
}
