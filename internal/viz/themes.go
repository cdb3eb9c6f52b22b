package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme colours the live view. Particles is the trail colour on the canvas
// and Plot the energy sparkline.
type Theme struct {
	Name      string
	Header    lipgloss.Color
	Particles lipgloss.Color
	Plot      lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Running   lipgloss.Color
	Paused    lipgloss.Color
	Failed    lipgloss.Color
}

var (
	// ThemePlasma is the default: violet discharge on a dark terminal.
	ThemePlasma = Theme{
		Name:      "plasma",
		Header:    lipgloss.Color("#b48cff"),
		Particles: lipgloss.Color("#ff7ad9"),
		Plot:      lipgloss.Color("#7ae7ff"),
		Text:      lipgloss.Color("#ece6ff"),
		Muted:     lipgloss.Color("#6b5f85"),
		Running:   lipgloss.Color("#7dffb2"),
		Paused:    lipgloss.Color("#ffc46b"),
		Failed:    lipgloss.Color("#ff5c5c"),
	}

	// ThemePhosphor mimics a P1 oscilloscope tube.
	ThemePhosphor = Theme{
		Name:      "phosphor",
		Header:    lipgloss.Color("#39ff14"),
		Particles: lipgloss.Color("#7cfc6a"),
		Plot:      lipgloss.Color("#b6ffa8"),
		Text:      lipgloss.Color("#a8f09a"),
		Muted:     lipgloss.Color("#2f6b26"),
		Running:   lipgloss.Color("#39ff14"),
		Paused:    lipgloss.Color("#e8ff5a"),
		Failed:    lipgloss.Color("#ff3b3b"),
	}

	ThemeCherenkov = Theme{
		Name:      "cherenkov",
		Header:    lipgloss.Color("#3d8bff"),
		Particles: lipgloss.Color("#6fd3ff"),
		Plot:      lipgloss.Color("#a3b8ff"),
		Text:      lipgloss.Color("#dcecff"),
		Muted:     lipgloss.Color("#44618f"),
		Running:   lipgloss.Color("#5cf2d6"),
		Paused:    lipgloss.Color("#ffd36b"),
		Failed:    lipgloss.Color("#ff6b81"),
	}

	CurrentTheme = ThemePlasma

	Themes = []Theme{ThemePlasma, ThemePhosphor, ThemeCherenkov}
)

// GetTheme falls back to plasma for unknown names.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemePlasma
}

// SetTheme makes name the current theme.
func SetTheme(name string) error {
	for _, t := range Themes {
		if t.Name == name {
			CurrentTheme = t
			return nil
		}
	}
	return fmt.Errorf("viz: unknown theme %q (have %v)", name, ThemeNames())
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
