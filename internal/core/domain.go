package core

import (
	"errors"
	"strings"
	"time"
)

// Records as returned by the board API. Only the fields the dashboard
// reads are mapped.
type (
	Label struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	List struct {
		ID     string  `json:"id"`
		Name   string  `json:"name"`
		Closed bool    `json:"closed"`
		Pos    float64 `json:"pos"`
	}

	Member struct {
		ID       string `json:"id"`
		FullName string `json:"fullName"`
		Username string `json:"username"`
		Initials string `json:"initials"`
	}

	CustomField struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"` // number, text, checkbox, date, list
	}

	// CustomFieldItem holds a card's value for one custom field. Value is
	// keyed by the field type, e.g. {"number": "12"}.
	CustomFieldItem struct {
		IDCustomField string            `json:"idCustomField"`
		IDValue       string            `json:"idValue,omitempty"`
		Value         map[string]string `json:"value,omitempty"`
	}

	Card struct {
		ID               string            `json:"id"`
		Name             string            `json:"name"`
		Desc             string            `json:"desc"`
		Due              string            `json:"due"`
		DueComplete      bool              `json:"dueComplete"`
		Closed           bool              `json:"closed"`
		IDList           string            `json:"idList"`
		IDMembers        []string          `json:"idMembers"`
		Labels           []Label           `json:"labels"`
		ShortURL         string            `json:"shortUrl"`
		DateLastActivity string            `json:"dateLastActivity"`
		CustomFieldItems []CustomFieldItem `json:"customFieldItems"`
	}

	// Snapshot is everything fetched from the board for a single request.
	Snapshot struct {
		BoardID      string
		Labels       []Label
		Cards        []Card
		Lists        []List
		Members      []Member
		CustomFields []CustomField
		FetchedAt    time.Time
	}
)

// DueLayout is the timestamp format the board API uses for due dates.
const DueLayout = "2006-01-02T15:04:05.000Z"

var (
	ErrEmptyBoardID = errors.New("empty board id")
	ErrInvalidDue   = errors.New("invalid due date")
)

// ParseDue parses an API timestamp. An empty string yields a nil time.
func ParseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DueLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, ErrInvalidDue
		}
	}
	t = t.UTC()
	return &t, nil
}

// LabelNames returns the card's label names in board order, skipping
// unnamed labels.
func (c Card) LabelNames() []string {
	out := make([]string, 0, len(c.Labels))
	for _, l := range c.Labels {
		if strings.TrimSpace(l.Name) == "" {
			continue
		}
		out = append(out, l.Name)
	}
	return out
}

// HasMember reports whether the member is assigned to the card.
func (c Card) HasMember(memberID string) bool {
	for _, id := range c.IDMembers {
		if id == memberID {
			return true
		}
	}
	return false
}

// FieldValue returns the raw value of the given custom field on the card.
func (c Card) FieldValue(fieldID string) (string, bool) {
	for _, item := range c.CustomFieldItems {
		if item.IDCustomField != fieldID {
			continue
		}
		for _, v := range item.Value {
			return v, true
		}
		return item.IDValue, item.IDValue != ""
	}
	return "", false
}
