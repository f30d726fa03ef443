package core

import (
	"errors"
	"strings"
)

// LabelCategory is the meaning the board attaches to a label through its colour.
type LabelCategory string

const (
	CategoryEpic    LabelCategory = "epic"
	CategoryTask    LabelCategory = "task"
	CategoryProduct LabelCategory = "product"
	CategoryEvent   LabelCategory = "event"
	CategoryOther   LabelCategory = "other"
)

// NoColor marks labels created without a colour.
const NoColor = ""

// Layout describes how a board is organised: which lists hold which stage
// of work and which label colours denote which category.
type Layout struct {
	Lists  ListNames   `yaml:"lists"`
	Colors LabelColors `yaml:"colors"`

	// AttendeeField is the name of the number custom field holding event attendance.
	AttendeeField string `yaml:"attendee_field"`
}

type ListNames struct {
	Done       string `yaml:"done"`
	InProgress string `yaml:"in_progress"`
	Backlog    string `yaml:"backlog"`
}

type LabelColors struct {
	Epic    string  `yaml:"epic"`
	Task    string  `yaml:"task"`
	Product *string `yaml:"product"`
	Event   string  `yaml:"event"`
}

// DefaultLayout matches the board the dashboard was built for.
func DefaultLayout() Layout {
	noColor := NoColor
	return Layout{
		Lists: ListNames{
			Done:       "Done",
			InProgress: "In Progress",
			Backlog:    "Backlog",
		},
		Colors: LabelColors{
			Epic:    "purple",
			Task:    "blue",
			Product: &noColor,
			Event:   "green",
		},
		AttendeeField: "Attendees",
	}
}

// Merge fills blank fields of l from def.
func (l Layout) Merge(def Layout) Layout {
	if l.Lists.Done == "" {
		l.Lists.Done = def.Lists.Done
	}
	if l.Lists.InProgress == "" {
		l.Lists.InProgress = def.Lists.InProgress
	}
	if l.Lists.Backlog == "" {
		l.Lists.Backlog = def.Lists.Backlog
	}
	if l.Colors.Epic == "" {
		l.Colors.Epic = def.Colors.Epic
	}
	if l.Colors.Task == "" {
		l.Colors.Task = def.Colors.Task
	}
	if l.Colors.Product == nil {
		l.Colors.Product = def.Colors.Product
	}
	if l.Colors.Event == "" {
		l.Colors.Event = def.Colors.Event
	}
	if l.AttendeeField == "" {
		l.AttendeeField = def.AttendeeField
	}
	return l
}

func (l Layout) Validate() error {
	if strings.TrimSpace(l.Lists.Done) == "" || strings.TrimSpace(l.Lists.InProgress) == "" {
		return errors.New("layout: done and in_progress list names are required")
	}
	if l.Lists.Done == l.Lists.InProgress {
		return errors.New("layout: done and in_progress must be different lists")
	}
	seen := map[string]LabelCategory{}
	for cat, color := range map[LabelCategory]string{
		CategoryEpic:  l.Colors.Epic,
		CategoryTask:  l.Colors.Task,
		CategoryEvent: l.Colors.Event,
	} {
		if color == "" {
			continue
		}
		if other, ok := seen[color]; ok {
			return errors.New("layout: colour " + color + " used for both " + string(other) + " and " + string(cat))
		}
		seen[color] = cat
	}
	if l.Colors.Product != nil {
		if other, ok := seen[*l.Colors.Product]; ok {
			return errors.New("layout: product colour already used for " + string(other))
		}
	}
	return nil
}

// CategoryOf maps a label colour to its category.
func (l Layout) CategoryOf(color string) LabelCategory {
	switch {
	case color == l.Colors.Epic && color != "":
		return CategoryEpic
	case color == l.Colors.Task && color != "":
		return CategoryTask
	case color == l.Colors.Event && color != "":
		return CategoryEvent
	case l.Colors.Product != nil && color == *l.Colors.Product:
		return CategoryProduct
	default:
		return CategoryOther
	}
}
