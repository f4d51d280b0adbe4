package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ClientConfig configures the command-line client.
type ClientConfig struct {
	// APIURL is the base URL of the sellbook API.
	APIURL string `yaml:"api_url"`

	// TokenFile holds the login token between runs.
	TokenFile string `yaml:"token_file"`

	Timeout time.Duration `yaml:"timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultClientDir is the per-user configuration directory.
func DefaultClientDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sellbook")
}

// LoadClient reads the client configuration. path comes from the --config
// flag; when empty SELLBOOK_CONFIG is used, then the default location.
// Only an explicitly named file must exist. Environment variables
// override file values.
func LoadClient(path string) (*ClientConfig, error) {
	const op = "config.LoadClient"

	_ = godotenv.Load()

	cfg := &ClientConfig{
		APIURL:    "http://localhost:8080",
		TokenFile: filepath.Join(DefaultClientDir(), "token"),
		Timeout:   15 * time.Second,
		LogLevel:  "warn",
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv("SELLBOOK_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = filepath.Join(DefaultClientDir(), "config.yaml")
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("%s: parse %s: %w", op, path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if v := os.Getenv("SELLBOOK_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("SELLBOOK_TOKEN_FILE"); v != "" {
		cfg.TokenFile = v
	}
	if v := os.Getenv("SELLBOOK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid SELLBOOK_TIMEOUT: %w", op, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("SELLBOOK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("%s: api_url is empty", op)
	}

	return cfg, nil
}
