package models

import "time"

// Evidence is a captured photo held for submission against a mission.
type Evidence struct {
	ImageHandle string    `json:"image_handle"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	Digest      string    `json:"digest"` // BLAKE2b-256, hex
	CapturedAt  time.Time `json:"captured_at"`
}

// VerificationResult is the verification service's judgment of a submission.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason,omitempty"`
}

// VerificationResponse is the raw response body; Verified is a pointer so a
// missing field can be told apart from false.
type VerificationResponse struct {
	Verified *bool  `json:"verified" validate:"required"`
	Reason   string `json:"reason,omitempty"`
}
