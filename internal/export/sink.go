package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"boardview/internal/config"
	"boardview/internal/export/sheets"
	"boardview/internal/export/xlsx"
	"boardview/internal/storage"
)

var (
	_ Sink = (*storage.SQLiteRepository)(nil)
	_ Sink = (*xlsx.Writer)(nil)
	_ Sink = (*sheets.Client)(nil)
)

// OpenSink builds the sink selected by cfg.ExportSink. Callers must Close it.
func OpenSink(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.ExportSink {
	case config.SinkSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.ExportPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite sink: %w", err)
		}
		return repo, nil
	case config.SinkXLSX:
		return xlsx.New(XLSXPath(cfg.ExportPath)), nil
	case config.SinkSheets:
		client, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("open sheets sink: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown export sink %q", cfg.ExportSink)
	}
}

// XLSXPath swaps any other extension for .xlsx so the sqlite default path
// can be shared.
func XLSXPath(path string) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".xlsx") {
		return path
	}
	return strings.TrimSuffix(path, ext) + ".xlsx"
}
