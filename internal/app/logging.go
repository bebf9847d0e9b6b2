package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// openLog opens the session log and returns a JSON logger tagged with a new
// session id. The terminal belongs to the UI, so nothing is logged to stderr.
func openLog(path string, debug bool) (string, *slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := tea.LogToFile(path, "studio")
	if err != nil {
		return "", nil, nil, err
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	sessionID := uuid.NewString()
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("session", sessionID)
	return sessionID, logger, func() { _ = file.Close() }, nil
}
