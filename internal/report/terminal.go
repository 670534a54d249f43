package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"sfperms/internal/matrix"
	"sfperms/internal/metadata"
)

// TerminalStyles are the lipgloss styles used for terminal tables.
type TerminalStyles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Body    lipgloss.Style
	Granted lipgloss.Style
	Denied  lipgloss.Style
	Sep     lipgloss.Style
}

// DefaultTerminalStyles returns the standard palette.
func DefaultTerminalStyles() TerminalStyles {
	return TerminalStyles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38")),
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Body:    lipgloss.NewStyle().Padding(0, 1),
		Granted: lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#8BC34A")),
		Denied:  lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#9aa3ad")),
		Sep:     lipgloss.NewStyle().Foreground(lipgloss.Color("#d6dae0")),
	}
}

// Terminal renders the matrix as an aligned table for terminal output.
// Permission cells are colored granted or denied.
func Terminal(m *matrix.Matrix, title string, styles TerminalStyles) string {
	header, rows := Table(m)
	return renderTable(title, header, rows, styles, 2)
}

// TerminalTable renders arbitrary rows with the same layout and no cell
// coloring.
func TerminalTable(title string, header []string, rows [][]string, styles TerminalStyles) string {
	return renderTable(title, header, rows, styles, -1)
}

// renderTable lays out header and rows; columns from codeFrom on hold
// permission codes (a negative codeFrom disables code styling).
func renderTable(title string, header []string, rows [][]string, styles TerminalStyles, codeFrom int) string {
	if len(rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(styles.Title.Render(title))
		sb.WriteString("\n")
	}

	colWidths := make([]int, len(header))
	for i, h := range header {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(cell); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}
	// lipgloss Width includes padding
	for i := range colWidths {
		colWidths[i] += 2
	}

	sep := styles.Sep.Render("|")
	for i, h := range header {
		sb.WriteString(styles.Header.Width(colWidths[i]).Render(h))
		if i < len(header)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")

	totalWidth := len(header) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(styles.Sep.Render(strings.Repeat("-", totalWidth)) + "\n")

	for _, row := range rows {
		for i, cell := range row {
			if i >= len(colWidths) {
				break
			}
			style := styles.Body
			if codeFrom >= 0 && i >= codeFrom {
				style = styles.Granted
				if cell == metadata.NoPermission {
					style = styles.Denied
				}
			}
			sb.WriteString(style.Width(colWidths[i]).Render(cell))
			if i < len(row)-1 && i < len(colWidths)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Preview renders a markdown document for the terminal through glamour.
// An empty style selects glamour's automatic light/dark detection.
func Preview(doc, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := renderer.Render(doc)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
