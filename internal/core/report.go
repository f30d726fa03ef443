package core

import (
	"strings"
	"time"
)

// Report is a point-in-time export of the dashboard views.
type (
	Report struct {
		ID          string
		BoardID     string
		GeneratedAt time.Time
		Sections    []ReportSection
	}

	ReportSection struct {
		Name string
		Rows []ReportRow
	}

	ReportRow struct {
		CardID    string
		Name      string
		List      string
		Labels    []string
		Types     []string
		Members   []string
		Due       *time.Time
		Attendees int
		URL       string
	}
)

// RowCount returns the number of rows across all sections.
func (r Report) RowCount() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Rows)
	}
	return n
}

// ReportColumns are the column headers of a tabular report section.
var ReportColumns = []string{"Card", "List", "Labels", "Types", "Members", "Due", "Attendees", "URL"}

// Values returns the row's cells in ReportColumns order. List-valued cells
// are joined with "; " since label names may contain commas.
func (r ReportRow) Values() []any {
	due := ""
	if r.Due != nil {
		due = r.Due.UTC().Format("2006-01-02")
	}
	return []any{
		r.Name,
		r.List,
		strings.Join(r.Labels, "; "),
		strings.Join(r.Types, "; "),
		strings.Join(r.Members, "; "),
		due,
		r.Attendees,
		r.URL,
	}
}
