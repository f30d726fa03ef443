// Package sheets writes reports into a Google Sheets tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"boardview/internal/core"
)

// lastColumn covers the section column plus every report column.
const lastColumn = "I"

type Config struct {
	SpreadsheetID string
	SheetName     string
	// One of the two is required unless client options supply auth.
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client rewrites one tab of a spreadsheet on every export.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets client authenticated with a service account. Extra
// options are passed to the API client and replace the service account
// credentials when present.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Board Export"
	}

	if len(opts) == 0 {
		creds, err := serviceAccountCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func serviceAccountCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account file", "path", file, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Write clears the tab and writes a title row, a header row and one row
// per card, tagged with its section.
func (c *Client) Write(ctx context.Context, rep core.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("'%s'!A:%s", c.sheetName, lastColumn)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := Rows(rep)
	writeRange := fmt.Sprintf("'%s'!A1", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update %s: %w", writeRange, err)
	}

	ref := fmt.Sprintf("'%s'!A1:%s%d", c.sheetName, lastColumn, len(values))
	slog.InfoContext(ctx, "Report written to sheet",
		"range", ref,
		"report_id", rep.ID,
		"rows", rep.RowCount())
	return ref, nil
}

func (c *Client) Close() error { return nil }

// Rows lays the report out as sheet values.
func Rows(rep core.Report) [][]any {
	values := make([][]any, 0, rep.RowCount()+2)
	values = append(values, []any{
		"Report " + rep.ID,
		rep.BoardID,
		rep.GeneratedAt.UTC().Format(time.RFC3339),
	})

	header := []any{"Section"}
	for _, col := range core.ReportColumns {
		header = append(header, col)
	}
	values = append(values, header)

	for _, s := range rep.Sections {
		for _, row := range s.Rows {
			values = append(values, append([]any{s.Name}, row.Values()...))
		}
	}
	return values
}
