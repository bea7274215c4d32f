package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds the console's runtime configuration. Values can come from an
// optional YAML file; environment variables always win over the file.
type Config struct {
	ServerPort    string `yaml:"server_port"`
	APIBaseURL    string `yaml:"api_base_url"`
	SessionSecret string `yaml:"session_secret"`
	SessionName   string `yaml:"session_name"`
	SessionMaxAge int    `yaml:"session_max_age"`
	GinMode       string `yaml:"gin_mode"`
}

const (
	defaultServerPort    = "8080"
	defaultAPIBaseURL    = "http://localhost:8000"
	defaultSessionName   = "console_session"
	defaultSessionMaxAge = 7 * 24 * 60 * 60 // seconds
)

// Load reads the optional YAML file at path (skipped when path is empty or
// the file does not exist), applies environment overrides, then defaults.
// SESSION_SECRET has no default: the session cookie signature depends on it.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	overrideString(&cfg.ServerPort, "SERVER_PORT")
	overrideString(&cfg.APIBaseURL, "API_BASE_URL")
	overrideString(&cfg.SessionSecret, "SESSION_SECRET")
	overrideString(&cfg.SessionName, "SESSION_NAME")
	overrideString(&cfg.GinMode, "GIN_MODE")
	if v := os.Getenv("SESSION_MAX_AGE"); v != "" {
		var age int
		if _, err := fmt.Sscanf(v, "%d", &age); err != nil {
			return nil, fmt.Errorf("invalid SESSION_MAX_AGE %q: %w", v, err)
		}
		cfg.SessionMaxAge = age
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = defaultServerPort
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.SessionName == "" {
		cfg.SessionName = defaultSessionName
	}
	if cfg.SessionMaxAge == 0 {
		cfg.SessionMaxAge = defaultSessionMaxAge
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET not set (environment or config file)")
	}

	return cfg, nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
