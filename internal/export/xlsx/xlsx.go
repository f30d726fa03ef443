// Package xlsx writes reports as Excel workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"boardview/internal/core"
)

const summarySheet = "Summary"

// Writer saves each report as a workbook at Path, replacing any previous
// file. The workbook has a summary sheet followed by one sheet per section.
type Writer struct {
	Path string
}

func New(path string) *Writer {
	return &Writer{Path: path}
}

func (w *Writer) Write(ctx context.Context, rep core.Report) (string, error) {
	if w.Path == "" {
		return "", errors.New("xlsx path is empty")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", fmt.Errorf("rename default sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummary(f, rep, bold); err != nil {
		return "", err
	}
	for _, s := range rep.Sections {
		if err := writeSection(f, s, bold); err != nil {
			return "", fmt.Errorf("sheet %s: %w", s.Name, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(w.Path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	if err := f.SaveAs(w.Path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	slog.InfoContext(ctx, "Report saved to workbook",
		"path", w.Path,
		"report_id", rep.ID,
		"sheets", len(rep.Sections)+1)
	return w.Path, nil
}

func (w *Writer) Close() error { return nil }

func writeSummary(f *excelize.File, rep core.Report, style int) error {
	rows := [][]any{
		{"Report", rep.ID},
		{"Board", rep.BoardID},
		{"Generated", rep.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Cards", rep.RowCount()},
	}
	for _, s := range rep.Sections {
		rows = append(rows, []any{s.Name, len(s.Rows)})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetColStyle(summarySheet, "A", style); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

func writeSection(f *excelize.File, s core.ReportSection, style int) error {
	if _, err := f.NewSheet(s.Name); err != nil {
		return err
	}

	header := make([]any, len(core.ReportColumns))
	for i, c := range core.ReportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(s.Name, 1, 1, style); err != nil {
		return err
	}

	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.Values()
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(s.Name, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(s.Name, "B", "E", 20); err != nil {
		return err
	}
	return f.SetPanes(s.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
