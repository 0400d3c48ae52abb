// Package config loads forrev client settings.
//
// Values are layered: built-in defaults, then the YAML config file, then a
// .env file in the working directory, then FORREV_* environment variables.
// Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/forrev/forrev-cli/internal/logger"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "FORREV"

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// SortKeys are the accepted values of Sort. The empty key keeps the service
// order (newest first).
var SortKeys = []string{"", "created", "start", "title", "location"}

// Config is the client configuration
type Config struct {
	// BaseURL is the root of the forrev service API
	BaseURL string `yaml:"base_url" envconfig:"FORREV_BASE_URL"`

	// Timeout bounds each request to the service
	Timeout time.Duration `yaml:"timeout" envconfig:"FORREV_TIMEOUT"`

	// DataDir holds the persisted session
	DataDir string `yaml:"data_dir" envconfig:"FORREV_DATA_DIR"`

	LogLevel string `yaml:"log_level" envconfig:"FORREV_LOG_LEVEL"`

	// LogFile receives logs while the TUI owns the terminal. Empty discards
	// them.
	LogFile string `yaml:"log_file,omitempty" envconfig:"FORREV_LOG_FILE"`

	// SessionKey, if set, encrypts the persisted session cookies
	SessionKey string `yaml:"session_key,omitempty" envconfig:"FORREV_SESSION_KEY"`

	// Format is the default output format: text or json
	Format string `yaml:"format" envconfig:"FORREV_FORMAT"`

	// Sort is the default sort key for event lists
	Sort string `yaml:"sort,omitempty" envconfig:"FORREV_SORT"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  "http://127.0.0.1:8000/",
		Timeout:  10 * time.Second,
		DataDir:  "~/.local/share/forrev",
		LogLevel: "WARN",
		Format:   FormatText,
	}
}

// DefaultPath returns ~/.config/forrev/config.yaml, or the equivalent under
// the user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".forrev", "config.yaml")
	}
	return filepath.Join(dir, "forrev", "config.yaml")
}

// Load builds the configuration from defaults, the YAML file at path, the
// optional dotenv file and the environment. A missing config or dotenv file
// is not an error.
func Load(path, dotenv string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if dotenv != "" {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}

	// Tags carry the full variable names so unprefixed variables such as
	// TIMEOUT are never picked up
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("reading %s_* environment: %w", EnvPrefix, err)
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No config file, using defaults", logger.Fields{"path": path})
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if c.Format != FormatText && c.Format != FormatJSON {
		return fmt.Errorf("format must be %q or %q, got %q", FormatText, FormatJSON, c.Format)
	}

	if !validSort(c.Sort) {
		return fmt.Errorf("sort must be one of created, start, title, location, got %q", c.Sort)
	}

	return nil
}

func validSort(key string) bool {
	for _, k := range SortKeys {
		if key == k {
			return true
		}
	}
	return false
}

// Save writes the configuration as YAML with 0600 permissions, creating the
// parent directory if needed
func (c *Config) Save(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".forrev-config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}
