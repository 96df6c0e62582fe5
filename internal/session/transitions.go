package session

import (
	"errors"
	"fmt"

	"github.com/benmeehan/mission-agent/internal/constants"
)

// Event drives the session from one state to the next.
type Event string

const (
	EventStart               Event = "start"
	EventLocationDenied      Event = "location_denied"
	EventLocationUnavailable Event = "location_unavailable"
	EventOutsideFence        Event = "outside_fence"
	EventInsideFence         Event = "inside_fence"
	EventRequestMission      Event = "request_mission"
	EventMissionIssued       Event = "mission_issued"
	EventMissionFailed       Event = "mission_failed"
	EventCaptureStarted      Event = "capture_started"
	EventCaptureSucceeded    Event = "capture_succeeded"
	EventCaptureFailed       Event = "capture_failed"
	EventEvidenceDiscarded   Event = "evidence_discarded"
	EventSubmit              Event = "submit"
	EventVerified            Event = "verified"
	EventRejected            Event = "rejected"
	EventVerificationFailed  Event = "verification_failed"
	EventMissionExpired      Event = "mission_expired"
)

// ErrInvalidTransition is returned for an event that is not legal in the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

type edge struct {
	from  constants.SessionState
	event Event
}

var transitions = map[edge]constants.SessionState{
	{constants.StateIdle, EventStart}: constants.StateLocationPending,

	{constants.StateLocationPending, EventLocationDenied}:      constants.StateFailed,
	{constants.StateLocationPending, EventLocationUnavailable}: constants.StateFailed,
	{constants.StateLocationPending, EventOutsideFence}:        constants.StateIneligible,
	{constants.StateLocationPending, EventInsideFence}:         constants.StateEligible,

	{constants.StateEligible, EventRequestMission}:        constants.StateMissionRequested,
	{constants.StateMissionRequested, EventMissionIssued}: constants.StateActive,
	{constants.StateMissionRequested, EventMissionFailed}: constants.StateFailed,

	{constants.StateActive, EventCaptureStarted}:        constants.StateCapturing,
	{constants.StateCaptured, EventCaptureStarted}:      constants.StateCapturing,
	{constants.StateCapturing, EventCaptureSucceeded}:   constants.StateCaptured,
	{constants.StateCapturing, EventCaptureFailed}:      constants.StateActive,
	{constants.StateCaptured, EventEvidenceDiscarded}:   constants.StateActive,
	{constants.StateCaptured, EventMissionExpired}:      constants.StateFailed,
	{constants.StateCaptured, EventSubmit}:              constants.StateVerifying,
	{constants.StateVerifying, EventVerified}:           constants.StateVerified,
	{constants.StateVerifying, EventRejected}:           constants.StateRejected,
	{constants.StateVerifying, EventVerificationFailed}: constants.StateFailed,
}

// Next returns the state reached from from on ev. Reset is not an event; it
// is allowed from every state and handled by the session itself.
func Next(from constants.SessionState, ev Event) (constants.SessionState, error) {
	if to, ok := transitions[edge{from: from, event: ev}]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, ev, from)
}
