package constants

import "time"

// SessionState is a state of the mission workflow.
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateLocationPending  SessionState = "location_pending"
	StateIneligible       SessionState = "ineligible"
	StateEligible         SessionState = "eligible"
	StateMissionRequested SessionState = "mission_requested"
	StateActive           SessionState = "active"
	StateCapturing        SessionState = "capturing"
	StateCaptured         SessionState = "captured"
	StateVerifying        SessionState = "verifying"
	StateVerified         SessionState = "verified"
	StateRejected         SessionState = "rejected"
	StateFailed           SessionState = "failed"
)

// IsTerminal reports whether no further transition can leave s except a reset.
func (s SessionState) IsTerminal() bool {
	switch s {
	case StateIneligible, StateVerified, StateRejected, StateFailed:
		return true
	}
	return false
}

// Failure reasons recorded on a failed session.
const (
	ReasonLocationPermissionDenied = "location permission denied"
	ReasonLocationUnavailable      = "location unavailable"
	ReasonMissionCreationFailed    = "mission creation failed"
	ReasonVerificationFailed       = "verification request failed"
	ReasonMissionExpired           = "mission expired"
	ReasonOutsideGeofence          = "outside mission area"
)

const (
	// DefaultValidityWindow is used when the mission service does not advertise expires_in.
	DefaultValidityWindow = 10 * time.Minute

	// EvidenceMimeType is the only content type accepted as evidence.
	EvidenceMimeType = "image/jpeg"

	// EvidenceFileName is the file name sent with the evidence part.
	EvidenceFileName = "photo.jpg"
)
