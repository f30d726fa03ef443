package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type ReportRecord struct {
	ID          string
	BoardID     string
	GeneratedAt string
	CardCount   int64
}

type ReportCardRecord struct {
	ReportID  string
	Section   string
	Position  int64
	CardID    string
	Name      string
	ListName  string
	Labels    string
	Types     string
	Members   string
	Due       sql.NullString
	Attendees int64
	URL       string
}

const createReport = `INSERT INTO reports (id, board_id, generated_at, card_count) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateReport(ctx context.Context, arg ReportRecord) error {
	_, err := q.db.ExecContext(ctx, createReport, arg.ID, arg.BoardID, arg.GeneratedAt, arg.CardCount)
	return err
}

const createReportCard = `INSERT INTO report_cards
    (report_id, section, position, card_id, name, list_name, labels, types, members, due, attendees, url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateReportCard(ctx context.Context, arg ReportCardRecord) error {
	_, err := q.db.ExecContext(ctx, createReportCard,
		arg.ReportID, arg.Section, arg.Position, arg.CardID, arg.Name, arg.ListName,
		arg.Labels, arg.Types, arg.Members, arg.Due, arg.Attendees, arg.URL)
	return err
}

const getReport = `SELECT id, board_id, generated_at, card_count FROM reports WHERE id = ?`

func (q *Queries) GetReport(ctx context.Context, id string) (ReportRecord, error) {
	var r ReportRecord
	err := q.db.QueryRowContext(ctx, getReport, id).Scan(&r.ID, &r.BoardID, &r.GeneratedAt, &r.CardCount)
	return r, err
}

const listReports = `SELECT id, board_id, generated_at, card_count FROM reports
ORDER BY generated_at DESC, id
LIMIT ?`

func (q *Queries) ListReports(ctx context.Context, limit int64) ([]ReportRecord, error) {
	rows, err := q.db.QueryContext(ctx, listReports, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReportRecord
	for rows.Next() {
		var r ReportRecord
		if err := rows.Scan(&r.ID, &r.BoardID, &r.GeneratedAt, &r.CardCount); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const listReportCards = `SELECT report_id, section, position, card_id, name, list_name, labels, types, members, due, attendees, url
FROM report_cards
WHERE report_id = ?
ORDER BY id`

func (q *Queries) ListReportCards(ctx context.Context, reportID string) ([]ReportCardRecord, error) {
	rows, err := q.db.QueryContext(ctx, listReportCards, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReportCardRecord
	for rows.Next() {
		var c ReportCardRecord
		if err := rows.Scan(&c.ReportID, &c.Section, &c.Position, &c.CardID, &c.Name, &c.ListName,
			&c.Labels, &c.Types, &c.Members, &c.Due, &c.Attendees, &c.URL); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const deleteReport = `DELETE FROM reports WHERE id = ?`

func (q *Queries) DeleteReport(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteReport, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteReportCards = `DELETE FROM report_cards WHERE report_id = ?`

func (q *Queries) DeleteReportCards(ctx context.Context, reportID string) error {
	_, err := q.db.ExecContext(ctx, deleteReportCards, reportID)
	return err
}
