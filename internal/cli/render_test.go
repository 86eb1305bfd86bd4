package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/runway/internal/captable"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/testutil/fixtures"
	"github.com/Veraticus/runway/internal/variance"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"170", "170.00"},
		{"1234.5", "1,234.50"},
		{"1000000", "1,000,000.00"},
		{"-98765.432", "-98,765.43"},
		{"999.999", "1,000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "2.94%", FormatPercent(decimal.RequireFromString("2.941176")))
	assert.Equal(t, "-10.00%", FormatPercent(decimal.NewFromInt(-10)))
}

func TestRenderReport(t *testing.T) {
	calc := rollup.New(fixtures.NewBuilder(t).WithScenarioAmounts().MustBuild())
	report, err := calc.Report(fixtures.Budget)
	require.NoError(t, err)

	tests := []struct {
		name     string
		period   Period
		contains []string
		absent   []string
	}{
		{
			name:     "months",
			period:   PeriodMonths,
			contains: []string{"Jan", "Dec", "FY", "Gross Profit", "170.00", "230.00"},
		},
		{
			name:     "quarters",
			period:   PeriodQuarters,
			contains: []string{"Q1", "Q4", "Net Profit", "130.00"},
			absent:   []string{"Jan"},
		},
		{
			name:     "year",
			period:   PeriodYear,
			contains: []string{"FY", "Revenue", "230.00"},
			absent:   []string{"Q1", "Jan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderReport(&buf, report, tt.period))

			out := buf.String()
			assert.Contains(t, out, "Budget "+string(fixtures.Budget))
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderReport_IndentsChildren(t *testing.T) {
	calc := rollup.New(fixtures.NewBuilder(t).WithScenarioAmounts().MustBuild())
	report, err := calc.Report(fixtures.Budget)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, report, PeriodYear))

	var productLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "Product Sales") {
			productLine = line
		}
	}
	require.NotEmpty(t, productLine)
	assert.Contains(t, productLine, "    Product Sales")
	assert.Contains(t, productLine, "100.00")
}

func diffReport(t *testing.T) *variance.Report {
	t.Helper()
	calc := rollup.New(fixtures.NewBuilder(t).WithScenarioAmounts().MustBuild())
	report, err := variance.NewEngine(calc).DiffReport(fixtures.Budget, fixtures.Forecast)
	require.NoError(t, err)
	return report
}

func TestRenderDiff(t *testing.T) {
	report := diffReport(t)

	t.Run("all rows", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderDiff(&buf, report, false))

		out := buf.String()
		assert.Contains(t, out, "Delta %")
		assert.Contains(t, out, "Gross Profit")
		assert.Contains(t, out, "175.00")
		assert.Contains(t, out, "2.94%")
		assert.Contains(t, out, "Salaries")
	})

	t.Run("changed only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderDiff(&buf, report, true))

		out := buf.String()
		assert.Contains(t, out, "Product Sales")
		assert.Contains(t, out, "Net Profit")
		assert.NotContains(t, out, "Salaries")
		assert.NotContains(t, out, "Online Sales")
	})

	t.Run("identical datasets", func(t *testing.T) {
		calc := rollup.New(fixtures.NewBuilder(t).WithScenarioAmounts().MustBuild())
		same, err := variance.NewEngine(calc).DiffReport(fixtures.Budget, fixtures.Budget)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, RenderDiff(&buf, same, true))
		assert.Contains(t, buf.String(), "No differences")
	})
}

func seedRound(t *testing.T) (*captable.Table, captable.RoundResult) {
	t.Helper()
	table, err := captable.NewTable(fixtures.CapTable())
	require.NoError(t, err)

	round, err := captable.CalculateRound(captable.RoundInput{
		InvestmentAmount:       decimal.NewFromInt(2_000_000),
		PostMoneyValuation:     decimal.NewFromInt(10_000_000),
		TotalSharesOutstanding: table.TotalShares(),
	})
	require.NoError(t, err)
	return table, round
}

func TestRenderRound(t *testing.T) {
	_, round := seedRound(t)

	var buf bytes.Buffer
	require.NoError(t, RenderRound(&buf, round))

	out := buf.String()
	assert.Contains(t, out, "2,000,000.00")
	assert.Contains(t, out, "8,000,000.00")
	assert.Contains(t, out, "8.0000")
	assert.Contains(t, out, "250000")
	assert.Contains(t, out, "1000000 / 1250000")
	assert.Contains(t, out, "20.00%")
}

func TestRenderDilution(t *testing.T) {
	table, round := seedRound(t)
	impacts, err := captable.Dilution(table, round, decimal.NewFromInt(8_000_000))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderDilution(&buf, impacts))

	out := buf.String()
	assert.Contains(t, out, "Alice Founder")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "40.00%")
	assert.Contains(t, out, "4,000,000.00")
}

func TestRenderExit(t *testing.T) {
	table, err := captable.NewTable(fixtures.CapTable())
	require.NoError(t, err)
	payouts, err := captable.ExitScenario(table, decimal.NewFromInt(10_000_000))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderExit(&buf, payouts))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, len(payouts)+2)
	assert.Contains(t, lines[1], "Alice Founder")
	assert.Contains(t, lines[1], "5,000,000.00")
	assert.Contains(t, lines[len(lines)-1], "Total")
	assert.Contains(t, lines[len(lines)-1], "10,000,000.00")
}

func TestRenderCapTable(t *testing.T) {
	table, err := captable.NewTable(fixtures.CapTable())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderCapTable(&buf, table))

	out := buf.String()
	assert.Contains(t, out, "angel")
	assert.Contains(t, out, "preferred")
	assert.Contains(t, out, "1000000")
}

func TestRenderHierarchy(t *testing.T) {
	tree := fixtures.NewBuilder(t).WithStandardPL().MustBuild()

	var buf bytes.Buffer
	require.NoError(t, RenderHierarchy(&buf, tree))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 15, "header plus fourteen rows")
	assert.Contains(t, lines[1], "Revenue")
	assert.Contains(t, lines[3], "    Product Sales")
	assert.Contains(t, buf.String(), "gross_profit(revenue, cogs)")
	assert.Contains(t, buf.String(), "net_profit(gross_profit, expenses)")
}

func TestRenderDatasets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDatasets(&buf, []model.Dataset{
		{ID: fixtures.Budget, Name: "Budget", Kind: model.DatasetBudget, FiscalYear: fixtures.FiscalYear},
		{ID: fixtures.Forecast, Name: "Forecast", Kind: model.DatasetForecast, FiscalYear: fixtures.FiscalYear},
	}))

	out := buf.String()
	assert.Contains(t, out, "budget-2025")
	assert.Contains(t, out, "forecast")
	assert.Contains(t, out, "2025")
}
