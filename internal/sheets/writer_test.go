package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/testutil/fixtures"
	"github.com/Veraticus/runway/internal/variance"
)

type updateCall struct {
	rng  string
	rows int
}

// fakeAPI records calls and can fail a given operation a number of times.
type fakeAPI struct {
	failures  map[string]int
	failWith  error
	sheetIDs  map[string]int64
	updates   []updateCall
	cleared   []string
	formatted int
	created   int
	mu        sync.Mutex
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{failures: map[string]int{}, sheetIDs: map[string]int64{}}
}

func (f *fakeAPI) fail(op string) error {
	if f.failures[op] > 0 {
		f.failures[op]--
		if f.failWith != nil {
			return f.failWith
		}
		return &common.RetryableError{Err: errors.New(op + " unavailable"), Retryable: true}
	}
	return nil
}

func (f *fakeAPI) create(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create"); err != nil {
		return "", err
	}
	f.created++
	return "sheet-123", nil
}

func (f *fakeAPI) exists(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("exists"); err != nil {
		return err
	}
	if id != "sheet-123" {
		return common.NewNotFoundError("spreadsheet", id)
	}
	return nil
}

func (f *fakeAPI) ensureSheet(_ context.Context, _, title string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ensure"); err != nil {
		return 0, err
	}
	id, ok := f.sheetIDs[title]
	if !ok {
		id = int64(len(f.sheetIDs) + 1)
		f.sheetIDs[title] = id
	}
	return id, nil
}

func (f *fakeAPI) clear(_ context.Context, _, rng string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("clear"); err != nil {
		return err
	}
	f.cleared = append(f.cleared, rng)
	return nil
}

func (f *fakeAPI) update(_ context.Context, _, rng string, values [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("update"); err != nil {
		return err
	}
	f.updates = append(f.updates, updateCall{rng: rng, rows: len(values)})
	return nil
}

func (f *fakeAPI) batchUpdate(_ context.Context, _ string, _ []*sheets.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("format"); err != nil {
		return err
	}
	f.formatted++
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ServiceAccountPath = "/key.json"
	cfg.RetryAttempts = 2
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func budgetReport(t *testing.T) *rollup.Report {
	t.Helper()
	tree := fixtures.NewBuilder(t).WithScenarioAmounts().MustBuild()
	report, err := rollup.New(tree).Report(fixtures.Budget)
	require.NoError(t, err)
	return report
}

func varianceReport(t *testing.T) *variance.Report {
	t.Helper()
	tree := fixtures.NewBuilder(t).WithScenarioAmounts().MustBuild()
	report, err := variance.NewEngine(rollup.New(tree)).DiffReport(fixtures.Budget, fixtures.Forecast)
	require.NoError(t, err)
	return report
}

func TestWriter_WriteBudget(t *testing.T) {
	api := newFakeAPI()
	w := newWriter(testConfig(), api, slog.Default())

	require.NoError(t, w.WriteBudget(context.Background(), budgetReport(t)))

	assert.Equal(t, "sheet-123", w.SpreadsheetID())
	assert.Equal(t, 1, api.created)
	assert.Equal(t, []string{"'Budget budget-2025'!A:Z"}, api.cleared)
	require.Len(t, api.updates, 1)
	assert.Equal(t, "'Budget budget-2025'!A1", api.updates[0].rng)
	assert.Equal(t, 2+14, api.updates[0].rows)
	assert.Equal(t, 1, api.formatted)

	// A second export reuses the spreadsheet.
	require.NoError(t, w.WriteVariance(context.Background(), varianceReport(t)))
	assert.Equal(t, 1, api.created)
	assert.Len(t, api.sheetIDs, 2)
}

func TestWriter_Batches(t *testing.T) {
	api := newFakeAPI()
	cfg := testConfig()
	cfg.BatchSize = 6
	cfg.SpreadsheetID = "sheet-123"
	w := newWriter(cfg, api, nil)

	require.NoError(t, w.WriteBudget(context.Background(), budgetReport(t)))

	assert.Equal(t, 0, api.created)
	require.Len(t, api.updates, 3)
	assert.Equal(t, updateCall{rng: "'Budget budget-2025'!A1", rows: 6}, api.updates[0])
	assert.Equal(t, updateCall{rng: "'Budget budget-2025'!A7", rows: 6}, api.updates[1])
	assert.Equal(t, updateCall{rng: "'Budget budget-2025'!A13", rows: 4}, api.updates[2])
}

func TestWriter_Retries(t *testing.T) {
	t.Run("transient failures are retried", func(t *testing.T) {
		api := newFakeAPI()
		api.failures["update"] = 2
		api.failures["clear"] = 1
		w := newWriter(testConfig(), api, nil)

		require.NoError(t, w.WriteBudget(context.Background(), budgetReport(t)))
		assert.Len(t, api.updates, 1)
	})

	t.Run("gives up after retry attempts", func(t *testing.T) {
		api := newFakeAPI()
		api.failures["update"] = 3
		w := newWriter(testConfig(), api, nil)

		err := w.WriteBudget(context.Background(), budgetReport(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrExportFailed)
		assert.Contains(t, err.Error(), "row 1")
	})

	t.Run("missing spreadsheet is not retried", func(t *testing.T) {
		api := newFakeAPI()
		cfg := testConfig()
		cfg.SpreadsheetID = "gone"
		w := newWriter(cfg, api, nil)

		err := w.WriteBudget(context.Background(), budgetReport(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrExportFailed)
		assert.Empty(t, api.cleared)
	})

	t.Run("formatting failure does not fail the export", func(t *testing.T) {
		api := newFakeAPI()
		api.failures["format"] = 10
		api.failWith = fmt.Errorf("bad request")
		w := newWriter(testConfig(), api, nil)

		require.NoError(t, w.WriteBudget(context.Background(), budgetReport(t)))
		assert.Equal(t, 0, api.formatted)
	})
}

func TestWriter_NilReport(t *testing.T) {
	w := newWriter(testConfig(), newFakeAPI(), nil)
	assert.ErrorIs(t, w.WriteBudget(context.Background(), nil), common.ErrValidation)
	assert.ErrorIs(t, w.WriteVariance(context.Background(), nil), common.ErrValidation)
}

func TestBudgetValues(t *testing.T) {
	values := BudgetValues(budgetReport(t))

	require.Len(t, values, 16)
	assert.Equal(t, []any{"Budget", "budget-2025"}, values[0])
	assert.Len(t, values[1], 18)
	assert.Equal(t, "Jan", values[1][1])
	assert.Equal(t, "FY", values[1][17])

	revenue := values[2]
	assert.Equal(t, "Revenue", revenue[0])
	assert.Equal(t, "230.00", revenue[1])
	assert.Equal(t, "230.00", revenue[13])
	assert.Equal(t, "230.00", revenue[17])

	product := values[4]
	assert.True(t, strings.HasPrefix(product[0].(string), "    "))
	assert.Equal(t, "100.00", product[1])
}

func TestVarianceValues(t *testing.T) {
	values := VarianceValues(varianceReport(t))

	require.Len(t, values, 16)
	assert.Equal(t, []any{"Row", "budget-2025", "forecast-2025", "Delta", "Delta %", "Tag", "Jan Δ"}, values[1][:7])

	var gp []any
	for _, row := range values[2:] {
		if row[0] == "Gross Profit" {
			gp = row
		}
	}
	require.NotNil(t, gp)
	assert.Equal(t, "170.00", gp[1])
	assert.Equal(t, "175.00", gp[2])
	assert.Equal(t, "5.00", gp[3])
	assert.Equal(t, "2.94", gp[4])
	assert.Equal(t, "favorable", gp[5])
	assert.Equal(t, "5.00", gp[6])
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()
	ctx := context.Background()

	require.NoError(t, m.WriteBudget(ctx, budgetReport(t)))
	m.SetWriteError(errors.New("quota"))
	require.Error(t, m.WriteVariance(ctx, varianceReport(t)))

	m.AssertWriteCalled(t, 2)
	calls := m.GetWriteCalls()
	assert.Equal(t, "Budget budget-2025", calls[0].Title)
	assert.Equal(t, "Variance budget-2025 vs forecast-2025", calls[1].Title)
	assert.Error(t, calls[1].Error)

	m.Reset()
	assert.Equal(t, 0, m.WriteCallCount)
	assert.Empty(t, m.Budgets)
}
