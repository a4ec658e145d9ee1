// Package export writes monthly per-user summaries to a Google
// spreadsheet for offline review.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"fintrack/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config carries the spreadsheet target and service account credentials.
// Inline JSON wins over the file path when both are set.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Exporter appends summary rows to one sheet of one spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// SummaryRow is one user's aggregate for the exported month.
type SummaryRow struct {
	ExternalID string
	Email      string
	Summary    core.Summary
}

func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}

	credentials, err := resolveCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

func resolveCredentials(cfg Config) ([]byte, error) {
	if json := strings.TrimSpace(cfg.ServiceAccountJSON); json != "" {
		return []byte(json), nil
	}
	if file := strings.TrimSpace(cfg.ServiceAccountFile); file != "" {
		credentials, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return credentials, nil
	}
	return nil, errors.New("missing service account credentials")
}

// ExportMonth appends one row per user below the existing content of the
// sheet, preceded by a header row naming the exported window.
func (e *Exporter) ExportMonth(ctx context.Context, year, month int, rows []SummaryRow) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid month: %d", month)
	}

	values := BuildRows(year, month, rows)
	rng := fmt.Sprintf("%s!A:E", e.sheetName)

	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng,
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}
	return nil
}

// BuildRows renders the header, one totals row per user and one
// breakdown row per category and subcategory. Amounts are written as
// decimal units so the spreadsheet can format them as currency.
func BuildRows(year, month int, rows []SummaryRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, []any{
		fmt.Sprintf("%04d-%02d", year, month),
		"email", "income", "expenses", "remaining",
	})
	for _, row := range rows {
		values = append(values, []any{
			row.ExternalID,
			row.Email,
			row.Summary.TotalIncome,
			row.Summary.TotalExpenses,
			row.Summary.TotalRemaining,
		})
		values = append(values, breakdownRows("category", row.Summary.ExpensesByCategory)...)
		values = append(values, breakdownRows("subcategory", row.Summary.ExpensesBySubcategory)...)
	}
	return values
}

func breakdownRows(kind string, amounts map[string]float64) [][]any {
	names := make([]string, 0, len(amounts))
	for name := range amounts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]any, 0, len(names))
	for _, name := range names {
		rows = append(rows, []any{"", kind, name, amounts[name], ""})
	}
	return rows
}
