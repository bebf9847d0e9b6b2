package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/five82/studio/internal/poller"
	"github.com/five82/studio/internal/studio"
)

var (
	// ErrInvalidTransition is returned for intents the current state does not accept.
	ErrInvalidTransition = errors.New("action not available in this step")
	// ErrGenerationActive is returned for selection changes while generating.
	ErrGenerationActive = errors.New("a generation is in progress")
)

// Validation fields.
const (
	FieldTheme    = "theme"
	FieldDuration = "duration"
)

// ValidationError rejects a selection without changing state.
type ValidationError struct {
	Field      string
	Value      string
	Reason     string
	Suggestion string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if e.Value != "" {
		fmt.Fprintf(&b, " %q", e.Value)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	return b.String()
}

// CatalogError marks a theme or health fetch failure. It never blocks the
// workflow.
type CatalogError struct {
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("themes unavailable: %v", e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// Message renders err as a single human-readable line.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		msg := validation.Error()
		if validation.Field == FieldDuration && validation.Reason == "duration not offered" {
			msg += " (choose " + durationChoices() + ")"
		}
		return capitalize(msg)
	}

	var pollErr *poller.PollError
	if errors.As(err, &pollErr) {
		if pollErr.Detail != "" {
			return pollErr.Detail
		}
		return capitalize(pollErr.Error())
	}

	var catalog *CatalogError
	if errors.As(err, &catalog) {
		return "Themes unavailable: " + transportHint(catalog.Err)
	}

	var reqErr *studio.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Message == "" && reqErr.StatusCode == 0 && reqErr.Err != nil {
			return "Generation request failed: " + transportHint(reqErr.Err)
		}
		return capitalize(reqErr.Error())
	}

	return capitalize(transportHint(err))
}

// transportHint maps common transport failures to short explanations.
func transportHint(err error) string {
	text := err.Error()
	switch {
	case strings.Contains(text, "connection refused"):
		return "service not running"
	case strings.Contains(text, "deadline exceeded"), strings.Contains(text, "timeout"):
		return "connection timeout"
	case strings.Contains(text, "no such host"):
		return "host not found"
	default:
		return text
	}
}

func durationChoices() string {
	labels := make([]string, len(Durations))
	for i, d := range Durations {
		labels[i] = FormatDuration(d)
	}
	return strings.Join(labels, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
