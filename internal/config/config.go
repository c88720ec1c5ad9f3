// Package config handles the XDG configuration directory, file paths and
// the API endpoint settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "tasker"

	// SettingsFile is the optional settings filename.
	SettingsFile = "config.yml"

	// EnvFile is the optional dotenv filename.
	EnvFile = ".env"

	// SessionFile is the stored session credential filename.
	SessionFile = "session.json"

	// DefaultAPIURL is the task API used when nothing else is configured.
	DefaultAPIURL = "http://127.0.0.1:8080"

	// DefaultCallbackPort is the first local port tried for the OAuth callback.
	DefaultCallbackPort = 8085

	// EnvAPIURL overrides the API URL from config.yml.
	EnvAPIURL = "TASKER_API_URL"
)

// Settings is the content of config.yml.
type Settings struct {
	APIURL       string `yaml:"api_url"`
	CallbackPort int    `yaml:"callback_port"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the base URL of the task API, without trailing slash.
	APIURL string

	// CallbackPort is the first port tried for the OAuth callback server.
	CallbackPort int

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Logger receives debug logs. Nil means discard.
	Logger *zap.Logger
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/tasker or $HOME/.config/tasker.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:          dir,
		APIURL:       DefaultAPIURL,
		CallbackPort: DefaultCallbackPort,
	}, nil
}

// Load creates a Config and applies config.yml, .env and the environment,
// in that order. Missing files are not an error.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	settings, err := readSettings(cfg.SettingsPath())
	if err != nil {
		return nil, err
	}
	if settings.APIURL != "" {
		cfg.APIURL = settings.APIURL
	}
	if settings.CallbackPort > 0 {
		cfg.CallbackPort = settings.CallbackPort
	}

	// Variables already present in the environment take precedence over .env.
	if err := godotenv.Load(cfg.EnvPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("invalid %s: %w", EnvFile, err)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg, nil
}

func readSettings(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	return s, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to config.yml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// EnvPath returns the path to the dotenv file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// Log returns the configured logger, or a no-op logger.
func (c *Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
