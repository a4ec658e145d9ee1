package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: "export"})
	log.SetDefault(logger)

	prevMonth := time.Now().AddDate(0, -1, 0)
	year := flag.Int("year", prevMonth.Year(), "year to export")
	month := flag.Int("month", int(prevMonth.Month()), "month to export (1-12)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	exporter, err := export.New(ctx, export.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize exporter", "error", err)
		os.Exit(1)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		logger.Error("Failed to list users", "error", err)
		os.Exit(1)
	}

	// Summaries are computed uncached, the tool runs once per invocation.
	records := services.NewRecordService(repo, nil, logger)

	rows := make([]export.SummaryRow, 0, len(users))
	for _, u := range users {
		summary, err := records.Summary(ctx, u.ExternalID, month, year)
		if err != nil {
			logger.Error("Failed to compute summary", "error", err, "external_id", u.ExternalID)
			os.Exit(1)
		}
		rows = append(rows, export.SummaryRow{
			ExternalID: u.ExternalID,
			Email:      u.Email,
			Summary:    summary,
		})
	}

	if err := exporter.ExportMonth(ctx, *year, *month, rows); err != nil {
		logger.Error("Export failed", "error", err, "year", *year, "month", *month)
		os.Exit(1)
	}

	logger.Info("Export complete",
		"year", *year,
		"month", *month,
		"users", len(rows),
		"sheet", cfg.GoogleSheetName)
}
