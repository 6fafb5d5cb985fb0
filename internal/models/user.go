package models

import "strings"

// RoleAdmin is the only role that unlocks edit affordances.
const RoleAdmin = "admin"

// User types counted separately in attendance summaries.
const (
	UserTypeStudent = "student"
	UserTypeMentor  = "mentor"
)

// User is a member of the group as listed by the calendar service.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Type   string `json:"type,omitempty"`
	Role   string `json:"role,omitempty"`
	Active bool   `json:"active"`
}

// IsAdmin reports whether u may edit events.
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(strings.TrimSpace(u.Role), RoleAdmin)
}

// FindUser returns the user with id, or nil.
func FindUser(users []User, id int64) *User {
	for i := range users {
		if users[i].ID == id {
			u := users[i]
			return &u
		}
	}
	return nil
}
