package dto

import "github.com/noah-isme/rsvp-agenda/internal/models"

// Reasons a toggle is refused without contacting the calendar service.
const (
	RefusedNoActor = "no_actor"
	RefusedBusy    = "busy"
)

// ToggleRSVPRequest selects a target status for the acting user. The value
// is matched case-insensitively by models.ParseResponseStatus.
type ToggleRSVPRequest struct {
	Status string `json:"status" binding:"required"`
}

// ToggleOutcome reports what a toggle did.
type ToggleOutcome struct {
	Applied bool                    `json:"applied"`
	Reason  string                  `json:"reason,omitempty"`
	Status  models.ResponseStatus   `json:"status"`
	Summary *models.ResponseSummary `json:"summary,omitempty"`
}

// RosterEntry is one RSVP row joined with the responding user.
type RosterEntry struct {
	UserID   int64                 `json:"user_id"`
	Name     string                `json:"name,omitempty"`
	UserType string                `json:"user_type,omitempty"`
	Status   models.ResponseStatus `json:"status"`
	Note     *string               `json:"note,omitempty"`
}

// EventRSVPView bundles controls, summary and roster for one event.
type EventRSVPView struct {
	EventID  int64                   `json:"event_id"`
	Controls RSVPControls            `json:"controls"`
	Summary  *models.ResponseSummary `json:"summary,omitempty"`
	Expanded bool                    `json:"expanded"`
	Roster   []RosterEntry           `json:"roster,omitempty"`
}

// SetExpandedRequest opens or closes the attendee roster.
type SetExpandedRequest struct {
	Expanded bool `json:"expanded"`
}
