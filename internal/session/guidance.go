package session

import (
	"fmt"

	"github.com/benmeehan/mission-agent/internal/constants"
)

// Message returns the text shown to the user for a state. A rejection asks
// for a different photo; a transport failure asks to try again later.
func Message(state constants.SessionState, reason string) string {
	switch state {
	case constants.StateIneligible:
		return "Missions are only available near the mission site."
	case constants.StateActive:
		return "Mission activated. Take a photo before it expires."
	case constants.StateCaptured:
		return "Photo ready. Submit it or take another one."
	case constants.StateVerifying:
		return "Verifying..."
	case constants.StateVerified:
		return "Verification succeeded. Your credit will be granted."
	case constants.StateRejected:
		if reason == "" {
			reason = "conditions not met"
		}
		return fmt.Sprintf("Verification failed: %s. Try a different photo.", reason)
	case constants.StateFailed:
		switch reason {
		case constants.ReasonLocationPermissionDenied:
			return "Location permission is required."
		case constants.ReasonMissionExpired:
			return "The mission has expired. Start a new mission."
		case constants.ReasonLocationUnavailable:
			return "Your location could not be determined. Try again later."
		default:
			return "Could not reach the server. Try again later."
		}
	}
	return ""
}
