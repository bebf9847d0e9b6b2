// Package prefs persists studio user preferences in
// ~/.config/studio/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences. Palette names a UI colour palette; it is
// unrelated to the video themes offered by the service.
type Prefs struct {
	Palette string `toml:"palette"`
}

const (
	defaultPrefsPath = "~/.config/studio/prefs.toml"
	defaultPalette   = "Dusk"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Any problem reading or parsing the file
// yields the defaults; preferences never block startup.
func Load(path string) Prefs {
	p := Prefs{Palette: defaultPalette}

	resolved, err := resolvePath(path)
	if err != nil {
		return p
	}
	bytes, err := os.ReadFile(resolved)
	if err != nil {
		return p
	}
	var decoded Prefs
	if err := toml.Unmarshal(bytes, &decoded); err != nil {
		return p
	}
	if name := strings.TrimSpace(decoded.Palette); name != "" {
		p.Palette = name
	}
	return p
}

// Resolve returns p with the palette replaced by the first known name when
// it is not one of known. Matching ignores case.
func (p Prefs) Resolve(known []string) Prefs {
	if len(known) == 0 {
		return p
	}
	idx := slices.IndexFunc(known, func(name string) bool {
		return strings.EqualFold(name, p.Palette)
	})
	if idx < 0 {
		p.Palette = known[0]
	} else {
		p.Palette = known[idx]
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	// Write then rename so a crash never leaves a truncated file.
	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
