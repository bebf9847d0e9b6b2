package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings for the generation service.
type Config struct {
	APIURL         string
	PollInterval   time.Duration
	StatusTimeout  time.Duration
	MaxPollRetries int // consecutive failed status queries tolerated; 0 disables retries
	HealthInterval time.Duration
	LogFile        string
}

const (
	defaultConfigPath     = "~/.config/studio/config.toml"
	defaultLogFile        = "~/.local/share/studio/studio.log"
	defaultAPIURL         = "127.0.0.1:8011"
	defaultPollInterval   = 1500 * time.Millisecond
	defaultStatusTimeout  = 30 * time.Second
	defaultMaxPollRetries = 3
	defaultHealthInterval = 10 * time.Second
	minPollInterval       = 100 * time.Millisecond
)

// Environment variables that override the file.
const (
	EnvAPIURL       = "STUDIO_API_URL"
	EnvPollInterval = "STUDIO_POLL_INTERVAL_MS"
	EnvLogFile      = "STUDIO_LOG_FILE"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		PollInterval:   defaultPollInterval,
		StatusTimeout:  defaultStatusTimeout,
		MaxPollRetries: defaultMaxPollRetries,
		HealthInterval: defaultHealthInterval,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load parses the TOML config at path (or the default location), then applies
// a .env file from the working directory and the process environment.
func Load(path string) (Config, error) {
	return load(path, ".env")
}

func load(path, dotenvPath string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg, err := loadFile(resolved)
	if err != nil {
		return Config{}, err
	}

	env, err := environment(dotenvPath)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(resolved string) (Config, error) {
	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL                string `toml:"api_url"`
		PollIntervalMS        int    `toml:"poll_interval_ms"`
		StatusTimeoutSeconds  int    `toml:"status_timeout_seconds"`
		MaxPollRetries        *int   `toml:"max_poll_retries"`
		HealthIntervalSeconds int    `toml:"health_interval_seconds"`
		LogFile               string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if raw.PollIntervalMS > 0 {
		cfg.PollInterval = clampPoll(time.Duration(raw.PollIntervalMS) * time.Millisecond)
	}
	if raw.StatusTimeoutSeconds > 0 {
		cfg.StatusTimeout = time.Duration(raw.StatusTimeoutSeconds) * time.Second
	}
	if raw.MaxPollRetries != nil {
		if *raw.MaxPollRetries < 0 {
			return Config{}, fmt.Errorf("parse config: max_poll_retries must not be negative")
		}
		cfg.MaxPollRetries = *raw.MaxPollRetries
	}
	if raw.HealthIntervalSeconds > 0 {
		cfg.HealthInterval = time.Duration(raw.HealthIntervalSeconds) * time.Second
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	return cfg, nil
}

// environment merges the dotenv file beneath the process environment. The
// process environment is not modified.
func environment(dotenvPath string) (map[string]string, error) {
	env := map[string]string{}
	if dotenvPath != "" {
		values, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			for k, v := range values {
				env[k] = v
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
	}
	for _, key := range []string{EnvAPIURL, EnvPollInterval, EnvLogFile} {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			env[key] = v
		}
	}
	return env, nil
}

func (c *Config) applyEnv(env map[string]string) error {
	if v := strings.TrimSpace(env[EnvAPIURL]); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(env[EnvPollInterval]); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return fmt.Errorf("%s: invalid interval %q", EnvPollInterval, v)
		}
		c.PollInterval = clampPoll(time.Duration(ms) * time.Millisecond)
	}
	if v := strings.TrimSpace(env[EnvLogFile]); v != "" {
		c.LogFile = mustExpand(v)
	}
	return nil
}

// WithPollInterval returns c with a flag-supplied interval in milliseconds.
// Non-positive values leave c unchanged.
func (c Config) WithPollInterval(ms int) Config {
	if ms > 0 {
		c.PollInterval = clampPoll(time.Duration(ms) * time.Millisecond)
	}
	return c
}

func clampPoll(d time.Duration) time.Duration {
	if d < minPollInterval {
		return minPollInterval
	}
	return d
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
