// Package sheets mirrors end of day restaurant reports into a Google
// spreadsheet so owners can follow takings without access to the terminal.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/restopos/internal/config"
)

// Repository is the subset of the Sheets API the report sink needs.
type Repository interface {
	// WriteRow appends one row after the last filled row of sheetRange.
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	// ReadRange returns the filled cells of sheetRange.
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
	// UpdateRange overwrites the cells of sheetRange, used for header rows.
	UpdateRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// GoogleSheetRepository talks to the spreadsheet configured for reports.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository authenticates with the service account file and
// binds the repository to the report spreadsheet.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("report spreadsheet id is not configured")
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger.With(zap.String("spreadsheet", cfg.SpreadsheetID)),
	}, nil
}

// WriteRow appends the report values below the existing rows. Values are
// entered as a user would type them, so dates and amounts get sheet formats.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append report row into %s: %w", sheetRange, err)
	}

	r.logger.Debug("report row appended", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches the filled cells of a range, for example the date column
// used to skip days that were already reported.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// UpdateRange writes rows at a fixed position. Cells are stored as raw text.
func (r *GoogleSheetRepository) UpdateRange(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	call := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("RAW").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("update range %s: %w", sheetRange, err)
	}

	r.logger.Info("sheet range initialized", zap.String("range", sheetRange))
	return nil
}
