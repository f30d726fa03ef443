package board

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"boardview/internal/core"
)

// Index is the reshaped view of one board snapshot. It is built per
// request and never mutated afterwards.
type Index struct {
	BoardID   string
	FetchedAt time.Time

	layout core.Layout

	labels          []core.Label
	labelNames      []string
	labelsByName    map[string]core.Label
	categories      map[string]core.LabelCategory
	namesByCategory map[core.LabelCategory][]string

	members     []core.Member
	membersByID map[string]core.Member

	lists       []core.List
	listsByID   map[string]core.List
	listsByName map[string]core.List

	attendeeFieldID string

	cards        []*Card
	cardsByList  map[string][]*Card
	cardsByLabel map[string][]*Card
}

// NewIndex indexes snap and enriches its cards according to layout.
func NewIndex(snap core.Snapshot, layout core.Layout) *Index {
	idx := &Index{
		BoardID:         snap.BoardID,
		FetchedAt:       snap.FetchedAt,
		layout:          layout,
		labels:          snap.Labels,
		labelsByName:    make(map[string]core.Label, len(snap.Labels)),
		categories:      make(map[string]core.LabelCategory, len(snap.Labels)),
		namesByCategory: make(map[core.LabelCategory][]string),
		members:         snap.Members,
		membersByID:     make(map[string]core.Member, len(snap.Members)),
		lists:           snap.Lists,
		listsByID:       make(map[string]core.List, len(snap.Lists)),
		listsByName:     make(map[string]core.List, len(snap.Lists)),
		cardsByList:     make(map[string][]*Card),
		cardsByLabel:    make(map[string][]*Card),
	}

	// A label name seen twice keeps the category of its first occurrence.
	for _, l := range snap.Labels {
		if strings.TrimSpace(l.Name) == "" {
			continue
		}
		if _, dup := idx.labelsByName[l.Name]; dup {
			continue
		}
		cat := layout.CategoryOf(l.Color)
		idx.labelNames = append(idx.labelNames, l.Name)
		idx.labelsByName[l.Name] = l
		idx.categories[l.Name] = cat
		idx.namesByCategory[cat] = append(idx.namesByCategory[cat], l.Name)
	}

	for _, m := range snap.Members {
		idx.membersByID[m.ID] = m
	}

	for _, l := range snap.Lists {
		idx.listsByID[l.ID] = l
		if _, dup := idx.listsByName[l.Name]; !dup {
			idx.listsByName[l.Name] = l
		}
	}

	for _, f := range snap.CustomFields {
		if f.Name == layout.AttendeeField {
			idx.attendeeFieldID = f.ID
			break
		}
	}

	for _, raw := range snap.Cards {
		if raw.Closed {
			continue
		}
		c := idx.enrich(raw)
		idx.cards = append(idx.cards, c)
		idx.cardsByList[c.IDList] = append(idx.cardsByList[c.IDList], c)
		for _, name := range c.LabelNames() {
			idx.cardsByLabel[name] = append(idx.cardsByLabel[name], c)
		}
	}

	slog.Debug("board indexed",
		"board_id", idx.BoardID,
		"card_count", len(idx.cards),
		"list_count", len(idx.lists),
		"label_count", len(idx.labelNames),
	)
	return idx
}

// Layout returns the layout the index was built with.
func (idx *Index) Layout() core.Layout { return idx.layout }

// Cards returns every open card in board order.
func (idx *Index) Cards() []*Card { return idx.cards }

// LabelNames returns the named labels of the board in board order.
func (idx *Index) LabelNames() []string { return idx.labelNames }

// LabelNamesIn returns the label names that belong to cat.
func (idx *Index) LabelNamesIn(cat core.LabelCategory) []string { return idx.namesByCategory[cat] }

// Category returns the category of the named label.
func (idx *Index) Category(labelName string) core.LabelCategory {
	if cat, ok := idx.categories[labelName]; ok {
		return cat
	}
	return core.CategoryOther
}

func (idx *Index) Members() []core.Member { return idx.members }

func (idx *Index) Member(id string) (core.Member, bool) {
	m, ok := idx.membersByID[id]
	return m, ok
}

func (idx *Index) Lists() []core.List { return idx.lists }

// ListByName resolves a list by its name.
func (idx *Index) ListByName(name string) (core.List, error) {
	l, ok := idx.listsByName[name]
	if !ok {
		return core.List{}, fmt.Errorf("%w: %q", ErrListNotFound, name)
	}
	return l, nil
}

// ongoingListIDs returns the ids of the Done and In Progress lists.
func (idx *Index) ongoingListIDs() (map[string]bool, error) {
	done, err := idx.ListByName(idx.layout.Lists.Done)
	if err != nil {
		return nil, err
	}
	inProgress, err := idx.ListByName(idx.layout.Lists.InProgress)
	if err != nil {
		return nil, err
	}
	return map[string]bool{done.ID: true, inProgress.ID: true}, nil
}
