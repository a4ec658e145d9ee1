package export

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestBuildRows(t *testing.T) {
	rows := []SummaryRow{
		{
			ExternalID: "user_1",
			Email:      "one@example.com",
			Summary: core.Summary{
				TotalIncome:           2000,
				TotalExpenses:         80.25,
				TotalRemaining:        1919.75,
				ExpensesByCategory:    map[string]float64{"Food": 45.6, "Transport": 34.65},
				ExpensesBySubcategory: map[string]float64{"Groceries": 45.6, "Fuel": 34.65},
			},
		},
		{
			ExternalID: "user_2",
			Email:      "two@example.com",
			Summary:    core.Summary{TotalIncome: 0, TotalExpenses: 12.5, TotalRemaining: -12.5},
		},
	}

	values := BuildRows(2024, 1, rows)
	// header + user_1 totals + 2 categories + 2 subcategories + user_2 totals
	if len(values) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(values))
	}
	if values[0][0] != "2024-01" {
		t.Fatalf("unexpected header window: %v", values[0][0])
	}
	if values[1][0] != "user_1" || values[1][4] != 1919.75 {
		t.Fatalf("unexpected totals row: %v", values[1])
	}
	// breakdown rows are sorted by name
	if values[2][1] != "category" || values[2][2] != "Food" || values[2][3] != 45.6 {
		t.Fatalf("unexpected category row: %v", values[2])
	}
	if values[4][1] != "subcategory" || values[4][2] != "Fuel" {
		t.Fatalf("unexpected subcategory row: %v", values[4])
	}
	if values[6][1] != "two@example.com" || values[6][3] != 12.5 {
		t.Fatalf("unexpected second totals row: %v", values[6])
	}
}

func TestBuildRowsEmpty(t *testing.T) {
	values := BuildRows(2024, 12, nil)
	if len(values) != 1 {
		t.Fatalf("expected header only, got %d rows", len(values))
	}
	if values[0][0] != "2024-12" {
		t.Fatalf("unexpected header window: %v", values[0][0])
	}
}

func TestNewRejectsMissingSettings(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"no spreadsheet", Config{SheetName: "Summaries", ServiceAccountJSON: "{}"}},
		{"no sheet name", Config{SpreadsheetID: "sheet-id", ServiceAccountJSON: "{}"}},
		{"no credentials", Config{SpreadsheetID: "sheet-id", SheetName: "Summaries"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(context.Background(), tc.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
