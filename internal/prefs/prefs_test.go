package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if p := Load(""); p.Palette != defaultPalette {
		t.Fatalf("Palette = %q, want %q", p.Palette, defaultPalette)
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "studio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte("palette = \"Paper\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if p := Load(""); p.Palette != "Paper" {
		t.Fatalf("Palette = %q, want %q", p.Palette, "Paper")
	}
}

func TestSave_RoundTripsAndCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	if err := Save(path, Prefs{Palette: "Paper"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if p := Load(path); p.Palette != "Paper" {
		t.Fatalf("Palette = %q, want %q", p.Palette, "Paper")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
}

func TestLoad_BadContentFallsBackToDefault(t *testing.T) {
	cases := map[string]string{
		"empty palette": "palette = \"\"\n",
		"invalid toml":  "not valid toml {{{\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if p := Load(path); p.Palette != defaultPalette {
				t.Fatalf("Palette = %q, want %q", p.Palette, defaultPalette)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	known := []string{"Dusk", "Paper", "Mono"}

	if got := (Prefs{Palette: "paper"}).Resolve(known).Palette; got != "Paper" {
		t.Fatalf("Resolve(paper) = %q, want Paper", got)
	}
	if got := (Prefs{Palette: "Neon"}).Resolve(known).Palette; got != "Dusk" {
		t.Fatalf("Resolve(Neon) = %q, want first known palette", got)
	}
	if got := (Prefs{Palette: "Neon"}).Resolve(nil).Palette; got != "Neon" {
		t.Fatalf("Resolve with no known palettes = %q, want unchanged", got)
	}
}
