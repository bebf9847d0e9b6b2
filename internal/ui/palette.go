package ui

import "github.com/charmbracelet/lipgloss"

// Palette defines the UI colours.
type Palette struct {
	Name string

	Background string
	Surface    string
	Selection  string
	Border     string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
}

// Styles are the lipgloss styles derived from a Palette.
type Styles struct {
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Title     lipgloss.Style
	Text      lipgloss.Style
	Muted     lipgloss.Style
	Faint     lipgloss.Style
	Accent    lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Danger    lipgloss.Style
	Info      lipgloss.Style
	Selected  lipgloss.Style
	Panel     lipgloss.Style
	ErrorBox  lipgloss.Style
	Banner    lipgloss.Style
	StepDone  lipgloss.Style
	StepNow   lipgloss.Style
	StepLater lipgloss.Style
}

// Styles returns lipgloss styles for p.
func (p Palette) Styles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Styles{
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(p.Surface)).
			Foreground(lipgloss.Color(p.Text)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)).
			Padding(0, 1),
		Title:   fg(p.Accent).Bold(true),
		Text:    fg(p.Text),
		Muted:   fg(p.Muted),
		Faint:   fg(p.Faint),
		Accent:  fg(p.Accent),
		Success: fg(p.Success).Bold(true),
		Warning: fg(p.Warning),
		Danger:  fg(p.Danger).Bold(true),
		Info:    fg(p.Info),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(p.Selection)).
			Foreground(lipgloss.Color(p.Text)).
			Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Border)).
			Padding(1, 2),
		ErrorBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color(p.Danger)).
			Foreground(lipgloss.Color(p.Danger)).
			PaddingLeft(1),
		Banner: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color(p.Warning)).
			Foreground(lipgloss.Color(p.Warning)).
			PaddingLeft(1),
		StepDone:  fg(p.Success),
		StepNow:   fg(p.Accent).Bold(true).Underline(true),
		StepLater: fg(p.Faint),
	}
}

var palettes = map[string]Palette{
	"Dusk":  duskPalette(),
	"Slate": slatePalette(),
}

var paletteOrder = []string{"Dusk", "Slate"}

// GetPalette returns the palette called name, or the first palette.
func GetPalette(name string) Palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[paletteOrder[0]]
}

// NextPalette returns the palette name after current in the cycle.
func NextPalette(current string) string {
	for i, name := range paletteOrder {
		if name == current {
			return paletteOrder[(i+1)%len(paletteOrder)]
		}
	}
	return paletteOrder[0]
}

// PaletteNames returns the available palette names.
func PaletteNames() []string {
	out := make([]string, len(paletteOrder))
	copy(out, paletteOrder)
	return out
}

func duskPalette() Palette {
	// Dracula colours: https://draculatheme.com/contribute
	return Palette{
		Name:       "Dusk",
		Background: "#191A21",
		Surface:    "#282A36",
		Selection:  "#44475A",
		Border:     "#6272A4",
		Text:       "#F8F8F2",
		Muted:      "#6272A4",
		Faint:      "#44475A",
		Accent:     "#BD93F9",
		Success:    "#50FA7B",
		Warning:    "#FFB86C",
		Danger:     "#FF5555",
		Info:       "#8BE9FD",
	}
}

func slatePalette() Palette {
	// Tailwind slate/sky: https://tailwindcss.com/docs/colors
	return Palette{
		Name:       "Slate",
		Background: "#020617", // slate-950
		Surface:    "#0f172a", // slate-900
		Selection:  "#0284c7", // sky-600
		Border:     "#334155", // slate-700
		Text:       "#f1f5f9", // slate-100
		Muted:      "#94a3b8", // slate-400
		Faint:      "#64748b", // slate-500
		Accent:     "#38bdf8", // sky-400
		Success:    "#22c55e", // green-500
		Warning:    "#f59e0b", // amber-500
		Danger:     "#ef4444", // red-500
		Info:       "#06b6d4", // cyan-500
	}
}
