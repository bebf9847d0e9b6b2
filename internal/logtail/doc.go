// Package logtail reads the tail of the session log for display in the UI.
//
// Read extracts the last N lines of a file with a ring buffer, so the cost
// does not grow with the file size. ReadEntries builds on it and decodes the
// JSON records written by log/slog into Entry values, keeping only the
// records of one session when asked. Lines that are not JSON are kept as
// plain messages.
package logtail
