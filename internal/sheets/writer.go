package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/variance"
)

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	api           spreadsheetAPI
	logger        *slog.Logger
	spreadsheetID string
	config        Config
	mu            sync.Mutex
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(config, &googleAPI{service: service}, logger), nil
}

func newWriter(config Config, api spreadsheetAPI, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		config:        config,
		api:           api,
		logger:        logger,
		spreadsheetID: config.SpreadsheetID,
	}
}

// SpreadsheetID returns the spreadsheet written to, once known.
func (w *Writer) SpreadsheetID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spreadsheetID
}

// WriteBudget writes a dataset's rollup report to its own tab.
func (w *Writer) WriteBudget(ctx context.Context, report *rollup.Report) error {
	if report == nil {
		return common.NewValidationError("report", nil, "is required")
	}
	w.logger.Info("exporting budget report",
		"dataset", report.DatasetID,
		"rows", len(report.Lines))

	return w.writeTab(ctx, BudgetSheetTitle(report.DatasetID), BudgetValues(report), 18)
}

// WriteVariance writes a dataset comparison to its own tab.
func (w *Writer) WriteVariance(ctx context.Context, report *variance.Report) error {
	if report == nil {
		return common.NewValidationError("report", nil, "is required")
	}
	w.logger.Info("exporting variance report",
		"dataset_a", report.DatasetA,
		"dataset_b", report.DatasetB,
		"rows", len(report.Rows))

	return w.writeTab(ctx, VarianceSheetTitle(report.DatasetA, report.DatasetB), VarianceValues(report), 18)
}

func (w *Writer) writeTab(ctx context.Context, title string, values [][]any, columns int64) error {
	retryOpts := w.config.retryOptions()

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get spreadsheet: %v", common.ErrExportFailed, err)
	}

	var sheetID int64
	err = common.WithRetry(ctx, func() error {
		var ensureErr error
		sheetID, ensureErr = w.api.ensureSheet(ctx, spreadsheetID, title)
		return ensureErr
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare sheet %q: %v", common.ErrExportFailed, title, err)
	}

	err = common.WithRetry(ctx, func() error {
		return w.api.clear(ctx, spreadsheetID, quoteRange(title, "A:Z"))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("%w: failed to clear sheet %q: %v", common.ErrExportFailed, title, err)
	}

	if err := w.writeData(ctx, spreadsheetID, title, values); err != nil {
		return fmt.Errorf("%w: %v", common.ErrExportFailed, err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.api.batchUpdate(ctx, spreadsheetID, formatRequests(sheetID, int64(len(values)), columns))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "sheet", title, "error", err)
		}
	}

	w.logger.Info("export completed",
		"spreadsheet_id", spreadsheetID,
		"sheet", title,
		"rows_written", len(values))
	return nil
}

// getOrCreateSpreadsheet gets the configured spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	retryOpts := w.config.retryOptions()

	if w.spreadsheetID != "" {
		err := common.WithRetry(ctx, func() error {
			return w.api.exists(ctx, w.spreadsheetID)
		}, retryOpts)
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.spreadsheetID, err)
		}
		return w.spreadsheetID, nil
	}

	var created string
	err := common.WithRetry(ctx, func() error {
		var createErr error
		created, createErr = w.api.create(ctx, w.config.SpreadsheetName, w.config.TimeZone)
		return createErr
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet", "id", created, "title", w.config.SpreadsheetName)
	w.spreadsheetID = created
	return created, nil
}

// writeData writes values in batches of BatchSize rows.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, title string, values [][]any) error {
	retryOpts := w.config.retryOptions()

	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]
		rng := quoteRange(title, fmt.Sprintf("A%d", i+1))

		err := common.WithRetry(ctx, func() error {
			return w.api.update(ctx, spreadsheetID, rng, batch)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "sheet", title, "start_row", i+1, "rows", len(batch))
	}
	return nil
}

// quoteRange builds an A1 range on a named tab.
func quoteRange(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", title, cells)
}

// formatRequests bolds the two header rows, right-aligns the numeric
// columns, freezes the header and the label column, and fits the widths.
func formatRequests(sheetID, rows, columns int64) []*sheets.Request {
	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      2,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    2,
					EndRowIndex:      rows,
					StartColumnIndex: 1,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "NUMBER",
							Pattern: "#,##0.00",
						},
						HorizontalAlignment: "RIGHT",
					},
				},
				Fields: "userEnteredFormat(numberFormat,horizontalAlignment)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount:    2,
						FrozenColumnCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount,gridProperties.frozenColumnCount",
			},
		},
	}
}
