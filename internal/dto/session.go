package dto

import "github.com/noah-isme/rsvp-agenda/internal/models"

// SetSessionRequest selects the acting user; a null id clears it.
type SetSessionRequest struct {
	UserID *int64 `json:"user_id"`
}

// SessionView describes the acting user. User may be nil while the id is
// still being resolved or when it matches nobody.
type SessionView struct {
	UserID  *int64       `json:"user_id"`
	User    *models.User `json:"user,omitempty"`
	IsAdmin bool         `json:"is_admin"`
}
