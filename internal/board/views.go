package board

import (
	"fmt"
	"slices"
	"time"

	"boardview/internal/core"
)

type (
	// LabelGroup is one label together with the cards selected for it.
	LabelGroup struct {
		Label    core.Label
		Category core.LabelCategory
		Cards    []*Card
	}

	MemberGroup struct {
		Member core.Member
		Cards  []*Card
	}

	TypeCount struct {
		Type  string
		Count int
	}

	// Highlights are the cards finished in a month.
	Highlights struct {
		Year       int
		Month      time.Month
		Cards      []*Card
		TypeCounts []TypeCount
	}

	// Attendance lists event cards for a month, or for all time when Month is zero.
	Attendance struct {
		Year           int
		Month          time.Month
		Events         []*Card
		TotalAttendees int
	}
)

func sortByDue(cards []*Card) []*Card {
	out := slices.Clone(cards)
	slices.SortStableFunc(out, compareDue)
	return out
}

func (idx *Index) listCards(name string) ([]*Card, error) {
	l, err := idx.ListByName(name)
	if err != nil {
		return nil, err
	}
	return sortByDue(idx.cardsByList[l.ID]), nil
}

// InProgress returns the cards of the In Progress list.
func (idx *Index) InProgress() ([]*Card, error) {
	return idx.listCards(idx.layout.Lists.InProgress)
}

// Done returns the cards of the Done list.
func (idx *Index) Done() ([]*Card, error) {
	return idx.listCards(idx.layout.Lists.Done)
}

// Backlog returns the cards of the Backlog list.
func (idx *Index) Backlog() ([]*Card, error) {
	return idx.listCards(idx.layout.Lists.Backlog)
}

// Upcoming returns unfinished cards due between now and now+window inclusive.
func (idx *Index) Upcoming(now time.Time, window time.Duration) []*Card {
	doneID := ""
	if l, err := idx.ListByName(idx.layout.Lists.Done); err == nil {
		doneID = l.ID
	}
	end := now.Add(window)

	var out []*Card
	for _, c := range idx.cards {
		if c.IDList == doneID || c.DueDate == nil {
			continue
		}
		if c.DueDate.Before(now) || c.DueDate.After(end) {
			continue
		}
		out = append(out, c)
	}
	return sortByDue(out)
}

// OngoingActivities groups ongoing cards by task label.
func (idx *Index) OngoingActivities() ([]LabelGroup, error) {
	return idx.ongoing(core.CategoryTask)
}

// OngoingProducts groups ongoing cards by product label.
func (idx *Index) OngoingProducts() ([]LabelGroup, error) {
	return idx.ongoing(core.CategoryProduct)
}

// Epics groups ongoing cards by epic label.
func (idx *Index) Epics() ([]LabelGroup, error) {
	return idx.ongoing(core.CategoryEpic)
}

// ongoing returns a group for every label of cat that carries at least
// one card. Only cards in the Done or In Progress lists are kept, so a
// group may end up empty.
func (idx *Index) ongoing(cat core.LabelCategory) ([]LabelGroup, error) {
	ongoing, err := idx.ongoingListIDs()
	if err != nil {
		return nil, err
	}
	groups := []LabelGroup{}
	for _, name := range idx.namesByCategory[cat] {
		cards, ok := idx.cardsByLabel[name]
		if !ok {
			continue
		}
		g := LabelGroup{Label: idx.labelsByName[name], Category: cat}
		for _, c := range cards {
			if ongoing[c.IDList] {
				g.Cards = append(g.Cards, c)
			}
		}
		g.Cards = sortByDue(g.Cards)
		groups = append(groups, g)
	}
	return groups, nil
}

// ByLabel returns every card carrying the named label.
func (idx *Index) ByLabel(name string) (LabelGroup, error) {
	l, ok := idx.labelsByName[name]
	if !ok {
		return LabelGroup{}, fmt.Errorf("%w: %q", ErrLabelNotFound, name)
	}
	return LabelGroup{
		Label:    l,
		Category: idx.categories[name],
		Cards:    sortByDue(idx.cardsByLabel[name]),
	}, nil
}

// LabelGroups returns a group per named label, including labels without cards.
func (idx *Index) LabelGroups() []LabelGroup {
	groups := make([]LabelGroup, 0, len(idx.labelNames))
	for _, name := range idx.labelNames {
		groups = append(groups, LabelGroup{
			Label:    idx.labelsByName[name],
			Category: idx.categories[name],
			Cards:    sortByDue(idx.cardsByLabel[name]),
		})
	}
	return groups
}

func (idx *Index) openCardsOf(memberID string) []*Card {
	doneID := ""
	if l, err := idx.ListByName(idx.layout.Lists.Done); err == nil {
		doneID = l.ID
	}
	var out []*Card
	for _, c := range idx.cards {
		if c.IDList != doneID && c.HasMember(memberID) {
			out = append(out, c)
		}
	}
	return sortByDue(out)
}

// ByMember returns the unfinished cards assigned to a member.
func (idx *Index) ByMember(id string) (MemberGroup, error) {
	m, ok := idx.membersByID[id]
	if !ok {
		return MemberGroup{}, fmt.Errorf("%w: %q", ErrMemberNotFound, id)
	}
	return MemberGroup{Member: m, Cards: idx.openCardsOf(id)}, nil
}

// MemberGroups returns the unfinished cards of every board member.
func (idx *Index) MemberGroups() []MemberGroup {
	groups := make([]MemberGroup, 0, len(idx.members))
	for _, m := range idx.members {
		groups = append(groups, MemberGroup{Member: m, Cards: idx.openCardsOf(m.ID)})
	}
	return groups
}

// monthRange returns [start, end) of a calendar month in UTC.
func monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func inRange(t *time.Time, start, end time.Time) bool {
	return t != nil && !t.Before(start) && t.Before(end)
}

// MonthlyHighlights returns the Done cards dated within the month. A card is
// dated by its due date, or by its last activity when it has none.
func (idx *Index) MonthlyHighlights(year int, month time.Month) (Highlights, error) {
	if month < time.January || month > time.December {
		return Highlights{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	done, err := idx.ListByName(idx.layout.Lists.Done)
	if err != nil {
		return Highlights{}, err
	}
	start, end := monthRange(year, month)

	h := Highlights{Year: year, Month: month}
	counts := map[string]int{}
	for _, c := range idx.cardsByList[done.ID] {
		when := c.DueDate
		if when == nil {
			when = c.LastActivity
		}
		if !inRange(when, start, end) {
			continue
		}
		h.Cards = append(h.Cards, c)
		for _, t := range c.Types {
			if counts[t] == 0 {
				h.TypeCounts = append(h.TypeCounts, TypeCount{Type: t})
			}
			counts[t]++
		}
	}
	for i := range h.TypeCounts {
		h.TypeCounts[i].Count = counts[h.TypeCounts[i].Type]
	}
	slices.SortStableFunc(h.TypeCounts, func(a, b TypeCount) int { return b.Count - a.Count })
	h.Cards = sortByDue(h.Cards)
	return h, nil
}

// EventAttendance returns event cards due within the month with their
// attendee counts. Month zero selects every event of the board.
func (idx *Index) EventAttendance(year int, month time.Month) (Attendance, error) {
	if month < 0 || month > time.December {
		return Attendance{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	a := Attendance{Year: year, Month: month}

	var start, end time.Time
	if month != 0 {
		start, end = monthRange(year, month)
	}

	seen := map[string]bool{}
	for _, name := range idx.namesByCategory[core.CategoryEvent] {
		for _, c := range idx.cardsByLabel[name] {
			if seen[c.ID] {
				continue
			}
			if month != 0 && !inRange(c.DueDate, start, end) {
				continue
			}
			seen[c.ID] = true
			a.Events = append(a.Events, c)
			a.TotalAttendees += c.Attendees
		}
	}
	a.Events = sortByDue(a.Events)
	return a, nil
}
