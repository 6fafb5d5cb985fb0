package dto

import (
	"time"

	"github.com/noah-isme/rsvp-agenda/internal/models"
)

// AgendaQuery carries the live view inputs.
type AgendaQuery struct {
	Search string
	Group  models.GroupMode
}

// AgendaView is the grouped, decorated agenda returned to the UI.
type AgendaView struct {
	Search      string           `json:"search"`
	Group       models.GroupMode `json:"group"`
	ActingUser  *models.User     `json:"acting_user,omitempty"`
	CanEdit     bool             `json:"can_edit"`
	Visible     int              `json:"visible"`
	Groups      []AgendaGroup    `json:"groups"`
	RefreshedAt *time.Time       `json:"refreshed_at,omitempty"`
}

// AgendaGroup is one labelled bucket of cards.
type AgendaGroup struct {
	Label     string      `json:"label"`
	Collapsed bool        `json:"collapsed"`
	Events    []EventCard `json:"events"`
}

// EventCard is an event with its derived display attributes.
type EventCard struct {
	models.Event
	StartLabel  string                  `json:"start_label,omitempty"`
	EndTime     string                  `json:"end_time,omitempty"`
	StripeColor string                  `json:"stripe_color"`
	TextColor   string                  `json:"text_color"`
	RSVP        RSVPControls            `json:"rsvp"`
	Summary     *models.ResponseSummary `json:"summary,omitempty"`
}

// RSVPControls describes the attendance buttons for the acting user.
type RSVPControls struct {
	Enabled bool                  `json:"enabled"`
	Busy    bool                  `json:"busy"`
	Status  models.ResponseStatus `json:"status"`
}

// ToggleGroupRequest flips the collapse state of one group.
type ToggleGroupRequest struct {
	Label string `json:"label"`
}

// ToggleGroupResult reports the new collapse state.
type ToggleGroupResult struct {
	Label     string `json:"label"`
	Collapsed bool   `json:"collapsed"`
}
