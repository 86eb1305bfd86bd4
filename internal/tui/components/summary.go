// Package components holds the panels of the sandbox editor.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/tui/themes"
	"github.com/Veraticus/runway/internal/variance"
)

const (
	nameWidth   = 22
	amountWidth = 14
)

// SummaryModel shows section rollups of a sandbox next to the original
// values, for the selected month and the fiscal year.
type SummaryModel struct {
	theme   themes.Theme
	report  *variance.Report
	month   model.Month
	width   int
	compact bool
}

// NewSummaryModel creates a new summary panel.
func NewSummaryModel(theme themes.Theme) SummaryModel {
	return SummaryModel{
		theme: theme,
		month: model.Month(1),
	}
}

// SetReport replaces the comparison shown by the panel.
func (m *SummaryModel) SetReport(report *variance.Report) {
	m.report = report
}

// SetMonth selects the month column.
func (m *SummaryModel) SetMonth(month model.Month) {
	m.month = month
}

// Resize adapts the panel to the available width. Narrow panels drop the
// month columns.
func (m *SummaryModel) Resize(width int) {
	m.width = width
	m.compact = width > 0 && width < nameWidth+6*amountWidth
}

// View renders the section totals.
func (m SummaryModel) View() string {
	if m.report == nil {
		return m.theme.Subtitle.Render("No totals yet")
	}

	header := []string{Pad("Section", nameWidth)}
	if !m.compact {
		header = append(header,
			AlignRight(m.month.String()+" orig", amountWidth),
			AlignRight(m.month.String()+" new", amountWidth))
	}
	header = append(header,
		AlignRight("FY orig", amountWidth),
		AlignRight("FY new", amountWidth),
		AlignRight("Delta", amountWidth),
		AlignRight("Delta %", amountWidth))

	lines := []string{m.theme.Header.Render(strings.Join(header, ""))}
	for i := range m.report.Rows {
		row := &m.report.Rows[i]
		if row.Kind != model.RowSection {
			continue
		}
		lines = append(lines, m.renderRow(row))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m SummaryModel) renderRow(row *variance.RowDiff) string {
	fy := row.FiscalYear
	cells := []string{Pad(row.Name, nameWidth)}
	if !m.compact && m.month.Valid() {
		cell := row.Cells[m.month-1]
		cells = append(cells,
			AlignRight(cli.FormatMoney(cell.ValueA), amountWidth),
			AlignRight(cli.FormatMoney(cell.ValueB), amountWidth))
	}

	pct := fy.DeltaPercent.String()
	if !fy.DeltaPercent.Undefined {
		pct = cli.FormatPercent(fy.DeltaPercent.Value)
	}
	cells = append(cells,
		AlignRight(cli.FormatMoney(fy.ValueA), amountWidth),
		AlignRight(cli.FormatMoney(fy.ValueB), amountWidth),
		AlignRight(cli.FormatMoney(fy.Delta), amountWidth),
		AlignRight(pct, amountWidth))

	line := strings.Join(cells, "")
	switch fy.Tag {
	case variance.TagFavorable:
		return m.theme.Favorable.Render(line)
	case variance.TagUnfavorable:
		return m.theme.Unfavorable.Render(line)
	default:
		return m.theme.Normal.Render(line)
	}
}

// Pad left-aligns s in a column, truncating with an ellipsis.
func Pad(s string, width int) string {
	if r := []rune(s); len(r) > width-1 {
		s = string(r[:width-2]) + "…"
	}
	return s + strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}

// AlignRight right-aligns s in a column.
func AlignRight(s string, width int) string {
	return strings.Repeat(" ", max(0, width-lipgloss.Width(s))) + s
}
