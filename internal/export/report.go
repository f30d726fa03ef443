package export

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"boardview/internal/board"
	"boardview/internal/core"
)

// Section names, in the order they appear in a report.
const (
	SectionInProgress = "In Progress"
	SectionDone       = "Done"
	SectionBacklog    = "Backlog"
	SectionEvents     = "Events"
)

// NewReport snapshots the list views and every event of the board.
func NewReport(idx *board.Index, now time.Time) (core.Report, error) {
	rep := core.Report{
		ID:          uuid.NewString(),
		BoardID:     idx.BoardID,
		GeneratedAt: now.UTC(),
	}

	views := []struct {
		name string
		fn   func() ([]*board.Card, error)
	}{
		{SectionInProgress, idx.InProgress},
		{SectionDone, idx.Done},
		{SectionBacklog, idx.Backlog},
	}
	for _, v := range views {
		cards, err := v.fn()
		if err != nil {
			return core.Report{}, fmt.Errorf("%s section: %w", v.name, err)
		}
		rep.Sections = append(rep.Sections, section(v.name, cards))
	}

	events, err := idx.EventAttendance(now.Year(), 0)
	if err != nil {
		return core.Report{}, fmt.Errorf("%s section: %w", SectionEvents, err)
	}
	rep.Sections = append(rep.Sections, section(SectionEvents, events.Events))

	return rep, nil
}

func section(name string, cards []*board.Card) core.ReportSection {
	s := core.ReportSection{Name: name, Rows: make([]core.ReportRow, 0, len(cards))}
	for _, c := range cards {
		s.Rows = append(s.Rows, core.ReportRow{
			CardID:    c.ID,
			Name:      c.Name,
			List:      c.ListName,
			Labels:    c.LabelNames(),
			Types:     c.Types,
			Members:   c.MemberNames,
			Due:       c.DueDate,
			Attendees: c.Attendees,
			URL:       c.ShortURL,
		})
	}
	return s
}
