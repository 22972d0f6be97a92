package models

import "time"

// SessionUser is the identity exposed to request handlers
type SessionUser struct {
	ID    *string `json:"id,omitempty"`
	Name  string  `json:"name,omitempty"`
	Email string  `json:"email,omitempty"`
	Image string  `json:"image,omitempty"`
}

// Session is the request-scoped view of who is making the request
type Session struct {
	User    *SessionUser `json:"user,omitempty"`
	Expires time.Time    `json:"expires"`
}

// HasUser reports whether the session carries a user identity
func (s *Session) HasUser() bool {
	return s != nil && s.User != nil
}
