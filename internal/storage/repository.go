package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"boardview/internal/core"

	_ "modernc.org/sqlite"
)

var ErrReportNotFound = errors.New("report not found")

// ReportSummary is a stored report without its rows.
type ReportSummary struct {
	ID          string
	BoardID     string
	GeneratedAt time.Time
	CardCount   int
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer; sqlite serialises anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Write stores the report and all its rows in one transaction and returns
// a reference of the form path#id.
func (r *SQLiteRepository) Write(ctx context.Context, rep core.Report) (string, error) {
	if rep.ID == "" {
		return "", errors.New("report id is empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := r.queries.WithTx(tx)
	if err := q.CreateReport(ctx, ReportRecord{
		ID:          rep.ID,
		BoardID:     rep.BoardID,
		GeneratedAt: rep.GeneratedAt.UTC().Format(time.RFC3339Nano),
		CardCount:   int64(rep.RowCount()),
	}); err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	for _, section := range rep.Sections {
		for i, row := range section.Rows {
			rec, err := cardRecord(rep.ID, section.Name, i, row)
			if err != nil {
				return "", err
			}
			if err := q.CreateReportCard(ctx, rec); err != nil {
				return "", fmt.Errorf("create report card %s: %w", row.CardID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit report: %w", err)
	}

	slog.InfoContext(ctx, "Report saved to SQLite",
		"report_id", rep.ID,
		"board_id", rep.BoardID,
		"card_count", rep.RowCount(),
		"sections", len(rep.Sections))

	return r.path + "#" + rep.ID, nil
}

// GetReport loads a stored report with its sections in their original order.
func (r *SQLiteRepository) GetReport(ctx context.Context, id string) (core.Report, error) {
	rec, err := r.queries.GetReport(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Report{}, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return core.Report{}, fmt.Errorf("get report: %w", err)
	}

	generated, err := time.Parse(time.RFC3339Nano, rec.GeneratedAt)
	if err != nil {
		return core.Report{}, fmt.Errorf("parse generated_at %q: %w", rec.GeneratedAt, err)
	}
	rep := core.Report{ID: rec.ID, BoardID: rec.BoardID, GeneratedAt: generated}

	cards, err := r.queries.ListReportCards(ctx, id)
	if err != nil {
		return core.Report{}, fmt.Errorf("list report cards: %w", err)
	}

	sectionIdx := map[string]int{}
	for _, c := range cards {
		row, err := reportRow(c)
		if err != nil {
			return core.Report{}, err
		}
		i, ok := sectionIdx[c.Section]
		if !ok {
			i = len(rep.Sections)
			sectionIdx[c.Section] = i
			rep.Sections = append(rep.Sections, core.ReportSection{Name: c.Section})
		}
		rep.Sections[i].Rows = append(rep.Sections[i].Rows, row)
	}
	return rep, nil
}

// ListReports returns the most recent reports first.
func (r *SQLiteRepository) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	recs, err := r.queries.ListReports(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]ReportSummary, 0, len(recs))
	for _, rec := range recs {
		generated, err := time.Parse(time.RFC3339Nano, rec.GeneratedAt)
		if err != nil {
			return nil, fmt.Errorf("parse generated_at %q: %w", rec.GeneratedAt, err)
		}
		out = append(out, ReportSummary{
			ID:          rec.ID,
			BoardID:     rec.BoardID,
			GeneratedAt: generated,
			CardCount:   int(rec.CardCount),
		})
	}
	return out, nil
}

// DeleteReport removes a report and its rows.
func (r *SQLiteRepository) DeleteReport(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := r.queries.WithTx(tx)
	if err := q.DeleteReportCards(ctx, id); err != nil {
		return fmt.Errorf("delete report cards: %w", err)
	}
	n, err := q.DeleteReport(ctx, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return tx.Commit()
}

func cardRecord(reportID, section string, pos int, row core.ReportRow) (ReportCardRecord, error) {
	labels, err := encodeList(row.Labels)
	if err != nil {
		return ReportCardRecord{}, err
	}
	types, err := encodeList(row.Types)
	if err != nil {
		return ReportCardRecord{}, err
	}
	members, err := encodeList(row.Members)
	if err != nil {
		return ReportCardRecord{}, err
	}

	rec := ReportCardRecord{
		ReportID:  reportID,
		Section:   section,
		Position:  int64(pos),
		CardID:    row.CardID,
		Name:      row.Name,
		ListName:  row.List,
		Labels:    labels,
		Types:     types,
		Members:   members,
		Attendees: int64(row.Attendees),
		URL:       row.URL,
	}
	if row.Due != nil {
		rec.Due = sql.NullString{String: row.Due.UTC().Format(time.RFC3339), Valid: true}
	}
	return rec, nil
}

func reportRow(c ReportCardRecord) (core.ReportRow, error) {
	row := core.ReportRow{
		CardID:    c.CardID,
		Name:      c.Name,
		List:      c.ListName,
		Attendees: int(c.Attendees),
		URL:       c.URL,
	}
	for dst, src := range map[*[]string]string{&row.Labels: c.Labels, &row.Types: c.Types, &row.Members: c.Members} {
		if err := json.Unmarshal([]byte(src), dst); err != nil {
			return core.ReportRow{}, fmt.Errorf("decode card %s lists: %w", c.CardID, err)
		}
	}
	if c.Due.Valid {
		due, err := time.Parse(time.RFC3339, c.Due.String)
		if err != nil {
			return core.ReportRow{}, fmt.Errorf("parse due %q: %w", c.Due.String, err)
		}
		row.Due = &due
	}
	return row, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}
