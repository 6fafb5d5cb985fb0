package models

import (
	"strings"
	"time"
)

// ResponseStatus is an RSVP answer. The zero value means no response.
type ResponseStatus string

const (
	StatusUnset ResponseStatus = ""
	StatusYes   ResponseStatus = "Yes"
	StatusNo    ResponseStatus = "No"
	StatusMaybe ResponseStatus = "Maybe"
)

// ParseResponseStatus accepts the capitalised wire literals case-insensitively.
func ParseResponseStatus(raw string) (ResponseStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes":
		return StatusYes, true
	case "no":
		return StatusNo, true
	case "maybe":
		return StatusMaybe, true
	default:
		return StatusUnset, false
	}
}

// EventResponse is one user's RSVP to one event; (EventID, UserID) is unique.
type EventResponse struct {
	ID        int64          `json:"id,omitempty"`
	EventID   int64          `json:"event_id"`
	UserID    int64          `json:"user_id"`
	Status    ResponseStatus `json:"status"`
	Note      *string        `json:"note,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// ResponseSummary aggregates the roster of one event. It is always
// refetched from the calendar service, never adjusted locally.
type ResponseSummary struct {
	Yes               int  `json:"yes"`
	No                int  `json:"no"`
	Maybe             int  `json:"maybe"`
	StudentsAttending int  `json:"students_attending"`
	MentorsAttending  int  `json:"mentors_attending"`
	Total             *int `json:"total,omitempty"`
}

// StatusOf returns the status userID holds in roster.
func StatusOf(roster []EventResponse, userID int64) ResponseStatus {
	for _, r := range roster {
		if r.UserID == userID {
			return r.Status
		}
	}
	return StatusUnset
}
