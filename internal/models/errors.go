package models

import "fmt"

// MissionCreationError reports a failed mission issuance request.
type MissionCreationError struct {
	UserID string
	Err    error
}

func (e *MissionCreationError) Error() string {
	return fmt.Sprintf("mission creation failed for user %s: %v", e.UserID, e.Err)
}

func (e *MissionCreationError) Unwrap() error { return e.Err }

// VerificationTransportError reports a verification call that produced no
// usable result. A well-formed negative verdict is not an error.
type VerificationTransportError struct {
	MissionID string
	Err       error
}

func (e *VerificationTransportError) Error() string {
	return fmt.Sprintf("verification request failed for mission %s: %v", e.MissionID, e.Err)
}

func (e *VerificationTransportError) Unwrap() error { return e.Err }

// CaptureError reports a failed capture.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
