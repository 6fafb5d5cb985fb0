package dto

import (
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/rsvp-agenda/internal/models"
	"github.com/noah-isme/rsvp-agenda/pkg/timecalc"
)

// FlexInt decodes a JSON number or numeric string. Anything else, including
// null, leaves it empty instead of failing the whole payload.
type FlexInt struct {
	Value *int
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	f.Value = nil
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		f.Value = &n
		return nil
	}
	if fl, err := strconv.ParseFloat(raw, 64); err == nil && fl == math.Trunc(fl) && !math.IsInf(fl, 0) {
		n := int(fl)
		f.Value = &n
	}
	return nil
}

// EventPayload is an event as served by the calendar service. Field names
// vary between API revisions, so every known alias is accepted here and
// collapsed by ToModel.
type EventPayload struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`

	Start     string `json:"start"`
	StartTime string `json:"start_time"`

	DurationMinutes      FlexInt `json:"durationMinutes"`
	DurationMinutesSnake FlexInt `json:"duration_minutes"`

	TypeID      *int64 `json:"typeId"`
	EventTypeID *int64 `json:"event_type_id"`

	TypeLabel     string `json:"typeLabel"`
	EventTypeName string `json:"event_type_name"`
	EventType     string `json:"event_type"`

	EventTypeColor string `json:"event_type_color"`
	Color          string `json:"color"`
	Location       string `json:"location"`
	Link           string `json:"link"`
}

// ToModel normalises the payload into the canonical event.
func (p EventPayload) ToModel() models.Event {
	e := models.Event{
		ID:          p.ID,
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Date:        normalizeDate(p.Date),
		Start:       timecalc.Normalize(strings.TrimSpace(firstNonEmpty(p.Start, p.StartTime))),
		TypeLabel:   strings.TrimSpace(firstNonEmpty(p.TypeLabel, p.EventTypeName, p.EventType)),
		TypeColor:   strings.TrimSpace(p.EventTypeColor),
		Color:       strings.TrimSpace(p.Color),
		Location:    strings.TrimSpace(p.Location),
		Link:        strings.TrimSpace(p.Link),
	}
	switch {
	case p.DurationMinutes.Value != nil:
		e.DurationMinutes = p.DurationMinutes.Value
	case p.DurationMinutesSnake.Value != nil:
		e.DurationMinutes = p.DurationMinutesSnake.Value
	}
	switch {
	case p.TypeID != nil:
		e.TypeID = p.TypeID
	case p.EventTypeID != nil:
		e.TypeID = p.EventTypeID
	}
	return e
}

// EventsFromPayloads adapts a list response.
func EventsFromPayloads(payloads []EventPayload) []models.Event {
	events := make([]models.Event, 0, len(payloads))
	for _, p := range payloads {
		events = append(events, p.ToModel())
	}
	return events
}

// EventWriteRequest is the create/replace body accepted by the calendar
// service (PUT semantics: every field is sent).
type EventWriteRequest struct {
	Title           string  `json:"title" validate:"required"`
	Description     string  `json:"description"`
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string  `json:"start_time" validate:"required,datetime=15:04:05"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	EventTypeID     *int64  `json:"event_type_id,omitempty"`
	EventType       *string `json:"event_type,omitempty"`
	Location        *string `json:"location,omitempty"`
	Link            *string `json:"link,omitempty"`
}

// Normalize canonicalises the start time before the request leaves the gateway.
func (r EventWriteRequest) Normalize() EventWriteRequest {
	r.Title = strings.TrimSpace(r.Title)
	r.StartTime = timecalc.Normalize(strings.TrimSpace(r.StartTime))
	return r
}

func normalizeDate(raw string) string {
	d := strings.TrimSpace(raw)
	if i := strings.IndexByte(d, 'T'); i == len(models.DateLayout) {
		d = d[:i]
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
