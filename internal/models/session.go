package models

import (
	"time"

	"github.com/benmeehan/mission-agent/internal/constants"
)

// SessionSnapshot is the observable state of a mission session.
type SessionSnapshot struct {
	SessionID      string                 `json:"session_id"`
	UserID         string                 `json:"user_id"`
	State          constants.SessionState `json:"state"`
	MissionID      string                 `json:"mission_id,omitempty"`
	MissionExpires *time.Time             `json:"mission_expires_at,omitempty"`
	EvidenceDigest string                 `json:"evidence_digest,omitempty"`
	Reason         string                 `json:"reason,omitempty"`
	Message        string                 `json:"message,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
}
