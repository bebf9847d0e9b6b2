// Package config loads the studio client configuration.
//
// # Resolution order
//
//  1. Built-in defaults
//  2. TOML file (explicit path or ~/.config/studio/config.toml); a missing
//     file is not an error
//  3. A .env file in the working directory
//  4. Process environment (STUDIO_API_URL, STUDIO_POLL_INTERVAL_MS,
//     STUDIO_LOG_FILE)
//
// Command-line flags are applied by the caller on top of the result.
//
// # TOML format
//
//	api_url = "127.0.0.1:8011"
//	poll_interval_ms = 1500
//	status_timeout_seconds = 30
//	max_poll_retries = 3
//	health_interval_seconds = 10
//	log_file = "~/.local/share/studio/studio.log"
//
// Every key is optional. Empty or zero values keep the default, except
// max_poll_retries where an explicit 0 disables retries. Paths support tilde
// expansion.
package config
