package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A zero Width fits the widest cell.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders aligned plain-text rows with styled headers.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // selected row index (-1 = none)
}

// NewTable creates a table whose columns size themselves to their content.
func NewTable(titles ...string) *Table {
	cols := make([]Column, len(titles))
	for i, title := range titles {
		cols[i] = Column{Title: title}
	}
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row. Missing trailing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, Row(cells))
}

func (t *Table) widths() []int {
	out := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		if col.Width > 0 {
			out[i] = col.Width
			continue
		}
		w := len([]rune(col.Title))
		for _, row := range t.Rows {
			if i < len(row) && len([]rune(row[i])) > w {
				w = len([]rune(row[i]))
			}
		}
		out[i] = w
	}
	return out
}

// Render returns the full table as a string. Cells are padded before
// styling so ANSI codes never count toward the width.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	widths := t.widths()

	pad := func(s string, width int) string {
		r := []rune(s)
		if len(r) > width {
			if width <= 1 {
				return string(r[:width])
			}
			return string(r[:width-1]) + "…"
		}
		return s + strings.Repeat(" ", width-len(r))
	}

	cells := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cells[i] = headerStyle.Render(pad(col.Title, widths[i]))
	}
	sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
	sb.WriteString("\n")

	for i, w := range widths {
		cells[i] = StyleDim.Render(strings.Repeat("-", w))
	}
	sb.WriteString(strings.Join(cells, "  "))
	sb.WriteString("\n")

	for r, row := range t.Rows {
		for j := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			if r == t.SelIdx {
				cells[j] = StyleSelected.Render(pad(val, widths[j]))
			} else {
				cells[j] = cellStyle.Render(pad(val, widths[j]))
			}
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// KeyValueBlock renders key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-16s", p[0]+":"))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(strings.TrimRight(sb.String(), "\n"))
}
