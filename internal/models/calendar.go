package models

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar date form used on the wire.
const DateLayout = "2006-01-02"

// Event is the canonical internal representation of a calendar event.
// Wire variants are normalised by dto.EventPayload before reaching here.
type Event struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Date is YYYY-MM-DD with no time component.
	Date string `json:"date"`
	// Start is canonical HH:MM:SS wall-clock time.
	Start           string `json:"start"`
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
	TypeID          *int64 `json:"type_id,omitempty"`
	TypeLabel       string `json:"type_label,omitempty"`
	TypeColor       string `json:"type_color,omitempty"`
	Color           string `json:"color,omitempty"`
	Location        string `json:"location,omitempty"`
	Link            string `json:"link,omitempty"`
}

// Day parses Date. Callers must tolerate an error for malformed dates.
func (e Event) Day() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(e.Date))
}

// SearchText is the text a search term is matched against.
func (e Event) SearchText() string {
	return strings.Join([]string{e.Title, e.Description, e.Location, e.TypeLabel, e.Date}, " ")
}

// EventType classifies events and may carry a display color.
type EventType struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// EventTypeIndex looks types up by id.
type EventTypeIndex map[int64]EventType

// NewEventTypeIndex indexes types by id.
func NewEventTypeIndex(types []EventType) EventTypeIndex {
	idx := make(EventTypeIndex, len(types))
	for _, t := range types {
		idx[t.ID] = t
	}
	return idx
}

// Resolve fills the label and color of e from its type when the event did
// not carry them itself.
func (idx EventTypeIndex) Resolve(e Event) Event {
	if e.TypeID == nil {
		return e
	}
	t, ok := idx[*e.TypeID]
	if !ok {
		return e
	}
	if e.TypeLabel == "" {
		e.TypeLabel = t.Name
	}
	if e.TypeColor == "" {
		e.TypeColor = t.Color
	}
	return e
}

// GroupMode selects how the agenda is bucketed.
type GroupMode string

const (
	GroupByWeek  GroupMode = "week"
	GroupByMonth GroupMode = "month"
	GroupByNone  GroupMode = "none"
)

// ParseGroupMode maps user input to a GroupMode, falling back when unknown.
func ParseGroupMode(raw string, fallback GroupMode) GroupMode {
	switch GroupMode(strings.ToLower(strings.TrimSpace(raw))) {
	case GroupByWeek:
		return GroupByWeek
	case GroupByMonth:
		return GroupByMonth
	case GroupByNone:
		return GroupByNone
	default:
		return fallback
	}
}

// EventGroup is one labelled bucket of chronologically ordered events.
type EventGroup struct {
	Label  string  `json:"label"`
	Events []Event `json:"events"`
}
