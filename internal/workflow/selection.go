package workflow

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/five82/studio/internal/studio"
)

// Durations lists the offered animation lengths in seconds.
var Durations = []int{30, 60, 120, 180, 240, 300}

// Selection holds the user's choices. Zero values mean "not chosen".
type Selection struct {
	ThemeID  string
	Duration int
}

// IsComplete reports whether both fields are set and known.
func (s Selection) IsComplete(themes []studio.Theme) bool {
	return s.Validate(themes) == nil
}

// Validate checks both fields against the theme catalog and Durations.
func (s Selection) Validate(themes []studio.Theme) error {
	if err := ValidateTheme(s.ThemeID, themes); err != nil {
		return err
	}
	return ValidateDuration(s.Duration)
}

// IsEmpty reports whether nothing has been chosen yet.
func (s Selection) IsEmpty() bool {
	return s.ThemeID == "" && s.Duration == 0
}

// ValidateTheme checks that id names a theme in the catalog.
func ValidateTheme(id string, themes []studio.Theme) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &ValidationError{Field: FieldTheme, Reason: "no theme selected"}
	}
	if _, ok := findTheme(themes, id); ok {
		return nil
	}
	if len(themes) == 0 {
		return &ValidationError{Field: FieldTheme, Value: id, Reason: "theme catalog is empty"}
	}
	return &ValidationError{
		Field:      FieldTheme,
		Value:      id,
		Reason:     "unknown theme",
		Suggestion: closestThemeID(id, themes),
	}
}

// ValidateDuration checks that seconds is one of Durations.
func ValidateDuration(seconds int) error {
	if seconds == 0 {
		return &ValidationError{Field: FieldDuration, Reason: "no duration selected"}
	}
	for _, d := range Durations {
		if d == seconds {
			return nil
		}
	}
	return &ValidationError{
		Field:  FieldDuration,
		Value:  FormatDuration(seconds),
		Reason: "duration not offered",
	}
}

// FormatDuration renders seconds the way the picker labels them.
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%dmin", seconds/60)
	}
	return fmt.Sprintf("%dmin %ds", seconds/60, seconds%60)
}

func findTheme(themes []studio.Theme, id string) (studio.Theme, bool) {
	for _, theme := range themes {
		if theme.ID == id {
			return theme, true
		}
	}
	return studio.Theme{}, false
}

// closestThemeID returns the catalog id nearest to id, or "" when nothing
// is close enough to be a plausible typo.
func closestThemeID(id string, themes []studio.Theme) string {
	best := ""
	bestDist := -1
	needle := strings.ToLower(id)
	for _, theme := range themes {
		dist := levenshtein.ComputeDistance(needle, strings.ToLower(theme.ID))
		if bestDist < 0 || dist < bestDist {
			best, bestDist = theme.ID, dist
		}
	}
	limit := len([]rune(id)) / 2
	if limit < 2 {
		limit = 2
	}
	if bestDist > limit {
		return ""
	}
	return best
}
