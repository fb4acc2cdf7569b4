package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// client settings
	APIBaseURL  string
	HTTPTimeout time.Duration
	SessionFile string
	// local resource settings
	DataDir string
	// stub server settings
	ServerAddr string
	UploadDir  string
}

// change here only as it populates both default and env aware configs
var cfgDefaults = map[string]string{
	"API_BASE_URL": "http://localhost:4000",
	"HTTP_TIMEOUT": "30s",
	"SESSION_FILE": "", // resolved against the user config dir when empty
	"DATA_DIR":     "data",
	"SERVER_ADDR":  ":4000",
	"UPLOAD_DIR":   "uploads",
}

// Default returns a configuration object with defaults so callers can bypass
// the .env file and environment entirely.
func Default() *Config {
	timeout, _ := time.ParseDuration(cfgDefaults["HTTP_TIMEOUT"])

	return &Config{
		APIBaseURL:  cfgDefaults["API_BASE_URL"],
		HTTPTimeout: timeout,
		SessionFile: defaultSessionFile(),
		DataDir:     cfgDefaults["DATA_DIR"],
		ServerAddr:  cfgDefaults["SERVER_ADDR"],
		UploadDir:   cfgDefaults["UPLOAD_DIR"],
	}
}

// Load creates a config from env vars, falling back to defaults. A standard
// ".env" file is honoured when present; its absence is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: could not load .env: %w", err)
	}

	timeoutStr := getEnv("HTTP_TIMEOUT", cfgDefaults["HTTP_TIMEOUT"])
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf(`config error: HTTP_TIMEOUT must be a duration such as "30s" or "2m": %v`, err)
	}

	sessionFile := getEnv("SESSION_FILE", cfgDefaults["SESSION_FILE"])
	if sessionFile == "" {
		sessionFile = defaultSessionFile()
	}

	return &Config{
		APIBaseURL:  getEnv("API_BASE_URL", cfgDefaults["API_BASE_URL"]),
		HTTPTimeout: timeout,
		SessionFile: sessionFile,
		DataDir:     getEnv("DATA_DIR", cfgDefaults["DATA_DIR"]),
		ServerAddr:  getEnv("SERVER_ADDR", cfgDefaults["SERVER_ADDR"]),
		UploadDir:   getEnv("UPLOAD_DIR", cfgDefaults["UPLOAD_DIR"]),
	}, nil
}

// getEnv returns the value of an environment var or the default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultSessionFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// last resort: session next to the working directory
		return "agencyctl-session.json"
	}
	return filepath.Join(configDir, "agencyctl", "session.json")
}
