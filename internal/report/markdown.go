// Package report renders permission matrices as markdown, PNG images and
// terminal tables, and writes them under the design directory.
package report

import (
	"fmt"
	"strings"

	"sfperms/internal/matrix"
	"sfperms/internal/metadata"
)

// Fixed leading columns of every report table.
const (
	HeaderID    = "API Name"
	HeaderLabel = "Label"
)

// Table flattens a matrix into a header and rows: id, label, then one
// cell per entity column.
func Table(m *matrix.Matrix) (header []string, rows [][]string) {
	header = make([]string, 0, len(m.Columns)+2)
	header = append(header, HeaderID, HeaderLabel)
	for _, c := range m.Columns {
		header = append(header, c.Label)
	}

	rows = make([][]string, 0, len(m.Rows))
	for _, r := range m.Rows {
		row := make([]string, 0, len(r.Cells)+2)
		row = append(row, r.ID, r.Label)
		row = append(row, r.Cells...)
		rows = append(rows, row)
	}
	return header, rows
}

// Markdown renders the report document: title, legend, permission table.
func Markdown(m *matrix.Matrix, title string, legend []metadata.LegendEntry) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", title)

	sb.WriteString("## Legend\n\n")
	for _, e := range legend {
		fmt.Fprintf(&sb, "- `%s`: %s\n", e.Code, e.Description)
	}
	sb.WriteString("\n")

	sb.WriteString("## Permissions\n\n")
	header, rows := Table(m)
	writeRow(&sb, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&sb, sep)
	for _, row := range rows {
		writeRow(&sb, row)
	}

	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(escapeCell(c))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// ParseMarkdownTable extracts the first pipe table of doc. The delimiter
// row is dropped; cells are unescaped and trimmed.
func ParseMarkdownTable(doc string) (header []string, rows [][]string, err error) {
	var lines []string
	inTable := false
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "|") {
			inTable = true
			lines = append(lines, line)
			continue
		}
		if inTable {
			break
		}
	}

	if len(lines) < 2 {
		return nil, nil, fmt.Errorf("no markdown table found")
	}

	header = splitRow(lines[0])
	if !isDelimiterRow(splitRow(lines[1])) {
		return nil, nil, fmt.Errorf("table header is not followed by a delimiter row")
	}
	for _, line := range lines[2:] {
		rows = append(rows, splitRow(line))
	}
	return header, rows, nil
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")

	var cells []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		cells = append(cells, rest)
	}
	return cells
}

func isDelimiterRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if strings.Trim(c, ":-") != "" || !strings.Contains(c, "-") {
			return false
		}
	}
	return true
}
