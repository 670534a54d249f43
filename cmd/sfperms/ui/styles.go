// Package ui provides the terminal styling and the interactive entity
// picker of the sfperms CLI, with light/dark mode support.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sfperms/internal/report"
)

// Palette entries per background. Granted cells share the accent color.
var (
	lightText    = lipgloss.Color("#101F38")
	lightGranted = lipgloss.Color("#558B2F")
	lightDenied  = lipgloss.Color("#9aa3ad")
	lightRule    = lipgloss.Color("#dce0e5")

	darkText    = lipgloss.Color("#f2f2f2")
	darkGranted = lipgloss.Color("#8BC34A")
	darkDenied  = lipgloss.Color("#5c6b82")
	darkRule    = lipgloss.Color("#2a3850")

	// OK marks successful writes in both modes.
	OK = lipgloss.Color("#8BC34A")
)

// Theme is the color scheme for one terminal background.
type Theme struct {
	Text    lipgloss.Color
	Granted lipgloss.Color
	Denied  lipgloss.Color
	Rule    lipgloss.Color
	IsDark  bool
}

// LightTheme is used on light backgrounds (the default).
func LightTheme() Theme {
	return Theme{Text: lightText, Granted: lightGranted, Denied: lightDenied, Rule: lightRule}
}

// DarkTheme is used on dark backgrounds.
func DarkTheme() Theme {
	return Theme{Text: darkText, Granted: darkGranted, Denied: darkDenied, Rule: darkRule, IsDark: true}
}

// DetectTheme picks the dark theme when COLORFGBG reports a dark
// background or SFPERMS_DARK_MODE=1, light otherwise.
func DetectTheme() Theme {
	if fgbg := os.Getenv("COLORFGBG"); fgbg != "" {
		// "foreground;background", sometimes with a middle field
		parts := strings.Split(fgbg, ";")
		if bg, err := strconv.Atoi(parts[len(parts)-1]); err == nil && len(parts) > 1 {
			if (bg >= 0 && bg <= 6) || bg == 8 {
				return DarkTheme()
			}
		}
	}

	if os.Getenv("SFPERMS_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles are the rendered styles for a theme.
type Styles struct {
	Theme Theme

	Title   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Granted lipgloss.Style
	Denied  lipgloss.Style
	Rule    lipgloss.Style
	Wrote   lipgloss.Style
}

// NewStyles builds the styles for theme.
func NewStyles(theme Theme) Styles {
	base := lipgloss.NewStyle().Foreground(theme.Text)
	return Styles{
		Theme:   theme,
		Title:   base.Bold(true),
		Header:  base.Bold(true).Padding(0, 1),
		Cell:    base.Padding(0, 1),
		Granted: lipgloss.NewStyle().Foreground(theme.Granted).Padding(0, 1),
		Denied:  lipgloss.NewStyle().Foreground(theme.Denied).Padding(0, 1),
		Rule:    lipgloss.NewStyle().Foreground(theme.Rule),
		Wrote:   lipgloss.NewStyle().Foreground(OK).Bold(true),
	}
}

// DefaultStyles returns styles for the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// Table returns the matrix table styles for this theme.
func (s Styles) Table() report.TerminalStyles {
	return report.TerminalStyles{
		Title:   s.Title,
		Header:  s.Header,
		Body:    s.Cell,
		Granted: s.Granted,
		Denied:  s.Denied,
		Sep:     s.Rule,
	}
}

// RenderDivider returns a horizontal rule width cells wide.
func (s Styles) RenderDivider(width int) string {
	return s.Rule.Render(strings.Repeat("─", width))
}
