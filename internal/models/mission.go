package models

import "time"

// MissionResponse is the body returned by the mission issuance endpoint.
type MissionResponse struct {
	MissionID string `json:"mission_id" validate:"required"`
	StartTime string `json:"start_time,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty" validate:"gte=0"`
}

// Mission is a server-issued authorization for one user to submit evidence.
type Mission struct {
	MissionID      string        `json:"mission_id"`
	UserID         string        `json:"user_id"`
	IssuedAt       time.Time     `json:"issued_at"`
	ValidityWindow time.Duration `json:"validity_window"`
	StartTime      string        `json:"start_time,omitempty"` // as reported by the server
}

// ExpiresAt returns the end of the mission's validity window.
func (m Mission) ExpiresAt() time.Time {
	return m.IssuedAt.Add(m.ValidityWindow)
}

// Expired reports whether now is past the validity window.
func (m Mission) Expired(now time.Time) bool {
	return now.Sub(m.IssuedAt) > m.ValidityWindow
}
