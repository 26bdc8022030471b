package render

import (
	"fmt"

	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

// Theme represents a color theme for HTML views.
type Theme string

const (
	// ThemeLight is the light color theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark color theme.
	ThemeDark Theme = "dark"
)

// ParseTheme accepts "light" and "dark".
func ParseTheme(name string) (Theme, error) {
	switch Theme(name) {
	case ThemeLight, ThemeDark:
		return Theme(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
}

// ThemeConfig holds the colors of one theme.
type ThemeConfig struct {
	Background string
	Text       string
	TextMuted  string
	Edge       string
	NodeBorder string

	// Node fill per highlight.
	Node     string
	Inserted string
	Searched string
	Deleted  string
}

// Fill returns the node color for a highlight.
func (tc ThemeConfig) Fill(h layout.Highlight) string {
	switch h {
	case layout.HighlightInserted:
		return tc.Inserted
	case layout.HighlightSearched:
		return tc.Searched
	case layout.HighlightDeleted:
		return tc.Deleted
	case layout.HighlightNone:
		return tc.Node
	default:
		return tc.Node
	}
}

// GetThemeConfig returns the configuration for a given theme.
func GetThemeConfig(theme Theme) ThemeConfig {
	switch theme {
	case ThemeDark:
		return darkTheme
	case ThemeLight:
		return lightTheme
	default:
		return lightTheme
	}
}

var lightTheme = ThemeConfig{
	Background: "#fafaf9", // stone-50.
	Text:       "#1c1917", // stone-900.
	TextMuted:  "#78716c", // stone-500.
	Edge:       "#a8a29e", // stone-400.
	NodeBorder: "#44403c", // stone-700.

	Node:     "#e7e5e4", // stone-200.
	Inserted: "#16a34a", // green-600.
	Searched: "#ca8a04", // yellow-600.
	Deleted:  "#dc2626", // red-600.
}

var darkTheme = ThemeConfig{
	Background: "#0c0a09", // stone-950.
	Text:       "#fafaf9", // stone-50.
	TextMuted:  "#a8a29e", // stone-400.
	Edge:       "#57534e", // stone-600.
	NodeBorder: "#d6d3d1", // stone-300.

	Node:     "#292524", // stone-800.
	Inserted: "#22c55e", // green-500.
	Searched: "#eab308", // yellow-500.
	Deleted:  "#ef4444", // red-500.
}
