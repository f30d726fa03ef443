package board

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"boardview/internal/core"
)

// Card is a board card with the fields the views derive from the rest of
// the board.
type Card struct {
	core.Card

	ListName     string
	DueDate      *time.Time
	LastActivity *time.Time
	MemberNames  []string
	// Types are the card's task-category label names.
	Types     []string
	Attendees int
}

func (idx *Index) enrich(raw core.Card) *Card {
	c := &Card{Card: raw}

	if l, ok := idx.listsByID[raw.IDList]; ok {
		c.ListName = l.Name
	}

	due, err := core.ParseDue(raw.Due)
	if err != nil {
		slog.Warn("ignoring unparseable due date", "card_id", raw.ID, "due", raw.Due)
	}
	c.DueDate = due
	c.LastActivity, _ = core.ParseDue(raw.DateLastActivity)

	for _, id := range raw.IDMembers {
		m, ok := idx.membersByID[id]
		if !ok {
			slog.Debug("skipping unknown member", "card_id", raw.ID, "member_id", id)
			continue
		}
		c.MemberNames = append(c.MemberNames, m.FullName)
	}

	for _, name := range raw.LabelNames() {
		if idx.categories[name] == core.CategoryTask {
			c.Types = append(c.Types, name)
		}
	}

	c.Attendees = attendees(raw, idx.attendeeFieldID)
	return c
}

// attendees reads the attendance custom field; anything missing or not a
// non-negative number counts as zero.
func attendees(c core.Card, fieldID string) int {
	if fieldID == "" {
		return 0
	}
	raw, ok := c.FieldValue(fieldID)
	if !ok {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int(math.Round(n))
}

// HasLabel reports whether the card carries the named label.
func (c *Card) HasLabel(name string) bool {
	for _, l := range c.Labels {
		if l.Name == name {
			return true
		}
	}
	return false
}

// Overdue reports whether the card is past its due date and not marked complete.
func (c *Card) Overdue(now time.Time) bool {
	return c.DueDate != nil && !c.DueComplete && c.DueDate.Before(now)
}

// compareDue orders undated cards first, then by due date ascending.
func compareDue(a, b *Card) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return -1
	case b.DueDate == nil:
		return 1
	}
	return a.DueDate.Compare(*b.DueDate)
}
