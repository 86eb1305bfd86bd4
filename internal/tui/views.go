package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/tui/components"
)

const (
	rowNameWidth = 22
	cellWidth    = 13
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	parts := []string{
		m.renderTitle(),
		"",
		m.renderGrid(),
		"",
		m.theme.BorderedBox.Render(m.summary.View()),
		m.renderStatus(),
	}
	if m.config.ShowHelp {
		parts = append(parts, m.help.View(m.keymap))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTitle() string {
	title := m.theme.Title.Render(fmt.Sprintf("%s Sandbox of %s", cli.RunwayIcon, m.baseID))
	n := len(m.sandbox.Changes())
	if n == 0 {
		return title
	}
	return title + lipgloss.NewStyle().Foreground(m.theme.Muted).Render(fmt.Sprintf("  %d unsaved changes", n))
}

// visibleRows is how many leaf rows fit above the summary panel.
func (m Model) visibleRows() int {
	sections := len(m.tree.Sections())
	reserved := 2 + 1 + 1 + (sections + 1 + 2) + 1
	if m.config.ShowHelp {
		reserved++
	}
	return min(max(1, m.height-reserved), len(m.leaves))
}

// visibleMonths returns the first month index and the number of month
// columns that fit, keeping the cursor column in view.
func (m Model) visibleMonths() (start, count int) {
	count = (m.width - rowNameWidth - cellWidth) / cellWidth
	count = min(max(count, 1), model.MonthsPerYear)
	start = max(0, m.col-count+1)
	return start, count
}

func (m Model) renderGrid() string {
	start, count := m.visibleMonths()

	header := []string{components.Pad("Row", rowNameWidth)}
	for i := start; i < start+count; i++ {
		header = append(header, components.AlignRight(model.Month(i+1).String(), cellWidth))
	}
	header = append(header, components.AlignRight("FY", cellWidth))
	lines := []string{m.theme.Header.Render(strings.Join(header, ""))}

	end := min(m.offset+m.visibleRows(), len(m.leaves))
	for r := m.offset; r < end; r++ {
		lines = append(lines, m.renderRow(r, start, count))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r, start, count int) string {
	sub := m.leaves[r]
	var b strings.Builder

	name := components.Pad(sub.Name, rowNameWidth)
	if r == m.row {
		name = m.theme.Title.Render(name)
	}
	b.WriteString(name)

	for i := start; i < start+count; i++ {
		month := model.Month(i + 1)
		b.WriteString(m.renderCell(sub.ID, month, r == m.row && i == m.col))
	}

	total, err := m.sandbox.Calculator().FiscalYearTotal(string(sub.ID), m.sandbox.ID())
	fy := "error"
	if err == nil {
		fy = cli.FormatMoney(total)
	}
	b.WriteString(m.theme.Calculated.Render(components.AlignRight(fy, cellWidth)))
	return b.String()
}

func (m Model) renderCell(sub model.SubcategoryID, month model.Month, selected bool) string {
	if selected && m.editing {
		field := m.input.View()
		return " " + m.theme.Editing.Render(components.Pad(field, cellWidth-1))
	}

	value, err := m.sandbox.Get(sub, month)
	if err != nil {
		return components.AlignRight("error", cellWidth)
	}
	text := components.AlignRight(cli.FormatMoney(value), cellWidth)

	original, _ := m.sandbox.Original(sub, month)
	switch {
	case selected:
		return m.theme.Selected.Render(text)
	case !value.Equal(original):
		return m.theme.Modified.Render(text)
	default:
		return m.theme.Normal.Render(text)
	}
}

func (m Model) renderStatus() string {
	sub, month := m.current()
	value, _ := m.sandbox.Get(sub.ID, month)
	original, _ := m.sandbox.Original(sub.ID, month)

	cell := fmt.Sprintf("%s · %s  original %s  now %s",
		sub.Name, month, cli.FormatMoney(original), cli.FormatMoney(value))
	line := lipgloss.NewStyle().Foreground(m.theme.Muted).Render(cell)

	switch {
	case m.lastError != nil:
		line += "  " + m.theme.StatusError.Render("✗ "+m.lastError.Error())
	case m.saving:
		line += "  " + m.theme.StatusInfo.Render(m.status)
	case m.status != "":
		line += "  " + m.theme.StatusSuccess.Render(m.status)
	}
	return line
}
