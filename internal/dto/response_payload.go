package dto

import (
	"time"

	"github.com/noah-isme/rsvp-agenda/internal/models"
)

// UpsertResponseRequest is the POST /events/{id}/responses body.
type UpsertResponseRequest struct {
	UserID int64                 `json:"user_id"`
	Status models.ResponseStatus `json:"status"`
	Note   *string               `json:"note,omitempty"`
}

// EventResponsePayload is an RSVP row as returned by the calendar service.
type EventResponsePayload struct {
	ID           int64      `json:"id"`
	EventID      int64      `json:"event_id"`
	EventIDCamel int64      `json:"eventId"`
	UserID       int64      `json:"user_id"`
	UserIDCamel  int64      `json:"userId"`
	Status       string     `json:"status"`
	Note         *string    `json:"note"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// ToModel normalises the payload. Unknown status literals map to Unset.
func (p EventResponsePayload) ToModel() models.EventResponse {
	status, _ := models.ParseResponseStatus(p.Status)
	r := models.EventResponse{
		ID:        p.ID,
		EventID:   p.EventID,
		UserID:    p.UserID,
		Status:    status,
		Note:      p.Note,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if r.EventID == 0 {
		r.EventID = p.EventIDCamel
	}
	if r.UserID == 0 {
		r.UserID = p.UserIDCamel
	}
	return r
}

// ResponsesFromPayloads adapts a roster response.
func ResponsesFromPayloads(payloads []EventResponsePayload) []models.EventResponse {
	out := make([]models.EventResponse, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, p.ToModel())
	}
	return out
}

// SummaryPayload is GET /events/{id}/responses/summary.
type SummaryPayload struct {
	Yes                    int  `json:"yes"`
	No                     int  `json:"no"`
	Maybe                  int  `json:"maybe"`
	StudentsAttending      *int `json:"students_attending"`
	StudentsAttendingCamel *int `json:"studentsAttending"`
	MentorsAttending       *int `json:"mentors_attending"`
	MentorsAttendingCamel  *int `json:"mentorsAttending"`
	Total                  *int `json:"total"`
}

// ToModel normalises the payload; total defaults to yes+no+maybe.
func (p SummaryPayload) ToModel() models.ResponseSummary {
	s := models.ResponseSummary{
		Yes:               p.Yes,
		No:                p.No,
		Maybe:             p.Maybe,
		StudentsAttending: firstInt(p.StudentsAttending, p.StudentsAttendingCamel),
		MentorsAttending:  firstInt(p.MentorsAttending, p.MentorsAttendingCamel),
		Total:             p.Total,
	}
	if s.Total == nil {
		total := s.Yes + s.No + s.Maybe
		s.Total = &total
	}
	return s
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
