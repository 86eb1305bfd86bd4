package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/runway/internal/captable"
	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/variance"
)

// Period selects the columns of a budget report.
type Period string

const (
	PeriodMonths   Period = "months"
	PeriodQuarters Period = "quarters"
	PeriodYear     Period = "year"
)

// FormatMoney formats an amount with two decimals and thousands separators.
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatPercent formats a percentage with two decimals.
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

func indent(name string, depth int) string {
	return strings.Repeat("  ", depth) + name
}

// table aligns rows with a tabwriter and then styles whole lines, so escape
// codes never affect column widths. The first left columns are left-aligned;
// the rest are right-aligned.
type table struct {
	rows   [][]string
	styles []*lipgloss.Style
	left   int
}

func newTable(left int) *table {
	return &table{left: left}
}

func (t *table) row(style *lipgloss.Style, cells ...string) {
	t.rows = append(t.rows, cells)
	t.styles = append(t.styles, style)
}

func (t *table) writeTo(w io.Writer) error {
	widths := make([]int, t.left)
	for _, r := range t.rows {
		for i := 0; i < t.left && i < len(r); i++ {
			widths[i] = max(widths[i], lipgloss.Width(r[i]))
		}
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, r := range t.rows {
		cells := make([]string, len(r))
		for i, c := range r {
			if i < t.left {
				c += strings.Repeat(" ", widths[i]-lipgloss.Width(c))
			}
			cells[i] = c
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " ")
		if t.styles[i] != nil {
			line = t.styles[i].Render(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func lineStyle(kind model.RowKind, calculated bool) *lipgloss.Style {
	switch {
	case calculated:
		return &CalculatedRowStyle
	case kind == model.RowSection:
		return &SectionRowStyle
	default:
		return nil
	}
}

// RenderReport writes a budget report with the columns selected by period.
func RenderReport(w io.Writer, report *rollup.Report, period Period) error {
	if _, err := fmt.Fprintln(w, FormatTitle("Budget "+string(report.DatasetID))); err != nil {
		return err
	}

	t := newTable(1)
	header := []string{"Row"}
	switch period {
	case PeriodQuarters:
		header = append(header, "Q1", "Q2", "Q3", "Q4", "FY")
	case PeriodYear:
		header = append(header, "FY")
	default:
		for _, m := range model.AllMonths() {
			header = append(header, m.String())
		}
		header = append(header, "FY")
	}
	t.row(&TableHeaderStyle, header...)

	for _, l := range report.Lines {
		cells := []string{indent(l.Name, l.Depth)}
		switch period {
		case PeriodQuarters:
			for _, q := range l.Quarters {
				cells = append(cells, FormatMoney(q))
			}
		case PeriodYear:
		default:
			for _, m := range l.Months {
				cells = append(cells, FormatMoney(m))
			}
		}
		cells = append(cells, FormatMoney(l.Total))
		t.row(lineStyle(l.Kind, l.Calculated), cells...)
	}
	return t.writeTo(w)
}

// RenderDiff writes a fiscal-year comparison of two datasets. With
// changedOnly, rows whose months are all equal are omitted.
func RenderDiff(w io.Writer, report *variance.Report, changedOnly bool) error {
	title := fmt.Sprintf("Variance %s → %s", report.DatasetA, report.DatasetB)
	if _, err := fmt.Fprintln(w, FormatTitle(title)); err != nil {
		return err
	}

	t := newTable(1)
	t.row(&TableHeaderStyle, "Row", string(report.DatasetA), string(report.DatasetB), "Delta", "Delta %")

	shown := 0
	for i := range report.Rows {
		d := &report.Rows[i]
		if changedOnly && !d.Changed() {
			continue
		}
		fy := d.FiscalYear
		pct := fy.DeltaPercent.String()
		if !fy.DeltaPercent.Undefined {
			pct = FormatPercent(fy.DeltaPercent.Value)
		}
		style := TagStyle(fy.Tag)
		t.row(&style, indent(d.Name, d.Depth), FormatMoney(fy.ValueA), FormatMoney(fy.ValueB), FormatMoney(fy.Delta), pct)
		shown++
	}

	if shown == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No differences"))
		return err
	}
	return t.writeTo(w)
}

// RenderRound writes the outcome of a financing round.
func RenderRound(w io.Writer, r captable.RoundResult) error {
	content := strings.Join([]string{
		fmt.Sprintf("Investment:          %s", FormatMoney(r.InvestmentAmount)),
		fmt.Sprintf("Pre-money:           %s", FormatMoney(r.PreMoneyValuation)),
		fmt.Sprintf("Post-money:          %s", FormatMoney(r.PostMoneyValuation)),
		fmt.Sprintf("Price per share:     %s", r.PricePerShare.StringFixed(4)),
		fmt.Sprintf("New shares:          %d", r.NewShares),
		fmt.Sprintf("Shares before/after: %d / %d", r.TotalSharesBefore, r.TotalSharesAfter),
		fmt.Sprintf("Investor ownership:  %s", FormatPercent(r.NewInvestorOwnershipPct)),
	}, "\n")

	_, err := fmt.Fprintln(w, RenderBox(ChartIcon+" Round", content))
	return err
}

// RenderDilution writes each holder's ownership and value before and after a round.
func RenderDilution(w io.Writer, impacts []captable.DilutionImpact) error {
	t := newTable(1)
	t.row(&TableHeaderStyle, "Holder", "Shares", "Before", "After", "Dilution", "Value before", "Value after", "Change")
	for _, d := range impacts {
		var style *lipgloss.Style
		if d.ValueChange.IsNegative() {
			style = &ErrorStyle
		}
		t.row(style,
			d.Name,
			fmt.Sprintf("%d", d.Shares),
			FormatPercent(d.CurrentOwnershipPct),
			FormatPercent(d.OwnershipAfterPct),
			FormatPercent(d.DilutionPct),
			FormatMoney(d.ValueBefore),
			FormatMoney(d.ValueAfter),
			FormatMoney(d.ValueChange),
		)
	}
	return t.writeTo(w)
}

// RenderExit writes the payout of every holder at an exit valuation.
func RenderExit(w io.Writer, payouts []captable.Payout) error {
	t := newTable(2)
	t.row(&TableHeaderStyle, "Holder", "Type", "Shares", "Ownership", "Payout")
	for _, p := range payouts {
		t.row(nil, p.Name, string(p.Type), fmt.Sprintf("%d", p.Shares), FormatPercent(p.OwnershipPct), FormatMoney(p.Payout))
	}
	t.row(&SectionRowStyle, "Total", "", "", "", FormatMoney(captable.TotalPayout(payouts)))
	return t.writeTo(w)
}

// RenderCapTable writes the current cap table.
func RenderCapTable(w io.Writer, tbl *captable.Table) error {
	t := newTable(4)
	t.row(&TableHeaderStyle, "ID", "Holder", "Type", "Class", "Shares", "Ownership", "Value")
	for _, e := range tbl.Entries() {
		t.row(nil, string(e.ID), e.Name, string(e.Type), e.ShareClass,
			fmt.Sprintf("%d", e.SharesOwned), FormatPercent(e.OwnershipPct), FormatMoney(e.TotalValue))
	}
	t.row(&SectionRowStyle, "", "Total", "", "", fmt.Sprintf("%d", tbl.TotalShares()), "", "")
	return t.writeTo(w)
}

// RenderHierarchy writes the rows of a tree in display order.
func RenderHierarchy(w io.Writer, tree *hierarchy.Model) error {
	t := newTable(4)
	t.row(&TableHeaderStyle, "Row", "ID", "Kind", "Calculation")
	for _, r := range tree.Rows() {
		calc := ""
		if r.Kind == model.RowSection {
			if sec, err := tree.Section(model.SectionID(r.ID)); err == nil && sec.IsCalculated {
				calc = fmt.Sprintf("%s(%s)", sec.Kind(), joinIDs(sec.Operands))
			}
		}
		t.row(lineStyle(r.Kind, r.IsCalculated), indent(r.Name, r.Depth), r.ID, string(r.Kind), calc)
	}
	return t.writeTo(w)
}

func joinIDs(ids []model.SectionID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

// RenderDatasets writes a list of datasets.
func RenderDatasets(w io.Writer, datasets []model.Dataset) error {
	t := newTable(3)
	t.row(&TableHeaderStyle, "ID", "Name", "Kind", "Fiscal year")
	for _, ds := range datasets {
		t.row(nil, string(ds.ID), ds.Name, string(ds.Kind), fmt.Sprintf("%d", ds.FiscalYear))
	}
	return t.writeTo(w)
}
