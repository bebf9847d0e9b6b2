package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIURL, EnvPollInterval, EnvLogFile} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg, err := load(filepath.Join(home, "does-not-exist.toml"), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.PollInterval != 1500*time.Millisecond {
		t.Fatalf("PollInterval = %v, want 1.5s", cfg.PollInterval)
	}
	if cfg.StatusTimeout != 30*time.Second || cfg.MaxPollRetries != 3 {
		t.Fatalf("StatusTimeout=%v MaxPollRetries=%d, want 30s and 3", cfg.StatusTimeout, cfg.MaxPollRetries)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := writeFile(t, t.TempDir(), "config.toml", `
api_url = "  http://10.0.0.5:9999  "
poll_interval_ms = 2500
status_timeout_seconds = 5
max_poll_retries = 0
health_interval_seconds = 20
log_file = "  ~/logs/studio.log  "
`)

	cfg, err := load(path, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:9999" {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, "http://10.0.0.5:9999")
	}
	if cfg.PollInterval != 2500*time.Millisecond {
		t.Fatalf("PollInterval = %v, want 2.5s", cfg.PollInterval)
	}
	if cfg.StatusTimeout != 5*time.Second {
		t.Fatalf("StatusTimeout = %v, want 5s", cfg.StatusTimeout)
	}
	if cfg.MaxPollRetries != 0 {
		t.Fatalf("MaxPollRetries = %d, want explicit 0", cfg.MaxPollRetries)
	}
	if cfg.HealthInterval != 20*time.Second {
		t.Fatalf("HealthInterval = %v, want 20s", cfg.HealthInterval)
	}
	if cfg.LogFile != filepath.Join(home, "logs", "studio.log") {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	path := writeFile(t, t.TempDir(), "config.toml", `
api_url = "   "
log_file = ""
poll_interval_ms = 0
`)

	cfg, err := load(path, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.PollInterval != defaultPollInterval {
		t.Fatalf("PollInterval = %v, want %v", cfg.PollInterval, defaultPollInterval)
	}
	if cfg.MaxPollRetries != defaultMaxPollRetries {
		t.Fatalf("MaxPollRetries = %d, want %d", cfg.MaxPollRetries, defaultMaxPollRetries)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", `api_url = [`)
	_, err := load(path, "")
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_NegativeRetriesFails(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", "max_poll_retries = -1\n")
	if _, err := load(path, ""); err == nil {
		t.Fatalf("Load returned nil error, want max_poll_retries error")
	}
}

func TestLoad_TinyPollIntervalIsClamped(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", "poll_interval_ms = 5\n")
	cfg, err := load(path, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PollInterval != minPollInterval {
		t.Fatalf("PollInterval = %v, want %v", cfg.PollInterval, minPollInterval)
	}
}

func TestLoad_DotEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "api_url = \"file:1\"\npoll_interval_ms = 2000\n")
	dotenv := writeFile(t, dir, ".env", "STUDIO_API_URL=dotenv:2\nSTUDIO_POLL_INTERVAL_MS=750\n")

	cfg, err := load(path, dotenv)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "dotenv:2" {
		t.Fatalf("APIURL = %q, want dotenv:2", cfg.APIURL)
	}
	if cfg.PollInterval != 750*time.Millisecond {
		t.Fatalf("PollInterval = %v, want 750ms", cfg.PollInterval)
	}
}

func TestLoad_ProcessEnvBeatsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dotenv := writeFile(t, dir, ".env", "STUDIO_API_URL=dotenv:2\n")
	t.Setenv(EnvAPIURL, "env:3")
	t.Setenv(EnvLogFile, filepath.Join(dir, "custom.log"))

	cfg, err := load(filepath.Join(dir, "missing.toml"), dotenv)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "env:3" {
		t.Fatalf("APIURL = %q, want env:3", cfg.APIURL)
	}
	if cfg.LogFile != filepath.Join(dir, "custom.log") {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, filepath.Join(dir, "custom.log"))
	}
}

func TestLoad_InvalidEnvIntervalFails(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPollInterval, "soon")
	if _, err := load(filepath.Join(t.TempDir(), "missing.toml"), ""); err == nil {
		t.Fatalf("Load returned nil error, want invalid interval error")
	}
}

func TestWithPollInterval(t *testing.T) {
	cfg := Default()
	if got := cfg.WithPollInterval(0).PollInterval; got != defaultPollInterval {
		t.Fatalf("WithPollInterval(0) = %v, want unchanged", got)
	}
	if got := cfg.WithPollInterval(3000).PollInterval; got != 3*time.Second {
		t.Fatalf("WithPollInterval(3000) = %v, want 3s", got)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
