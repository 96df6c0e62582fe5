package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benmeehan/mission-agent/internal/constants"
	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/benmeehan/mission-agent/pkg/location"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrMissionRequired is returned when evidence is submitted before a mission was issued.
	ErrMissionRequired = errors.New("photo and mission information are required: no mission issued")
	// ErrEvidenceRequired is returned when verification is attempted without a captured photo.
	ErrEvidenceRequired = errors.New("photo and mission information are required: no photo captured")
	// ErrVerificationInProgress is returned while a verification request is in flight.
	ErrVerificationInProgress = errors.New("verification already in progress")
	// ErrMissionExpired is returned when the mission's validity window has passed.
	ErrMissionExpired = errors.New("mission expired")
	// ErrSessionReset is returned by an operation whose session was reset while it ran.
	ErrSessionReset = errors.New("session was reset")
)

// MissionCreator issues missions.
type MissionCreator interface {
	CreateMission(ctx context.Context, userID string) (models.Mission, error)
}

// EvidenceVerifier submits evidence for verification.
type EvidenceVerifier interface {
	Submit(ctx context.Context, evidence models.Evidence, userID, missionID string) (models.VerificationResult, error)
}

// EvidenceSlot holds at most one piece of evidence.
type EvidenceSlot interface {
	Capture(ctx context.Context) (models.Evidence, error)
	Discard() error
	Current() (models.Evidence, bool)
	Checkout() (models.Evidence, error)
	Consume()
	Reset()
}

// Observer is called with a snapshot after every state change.
type Observer func(models.SessionSnapshot)

// Config is the per-session configuration.
type Config struct {
	SessionID             string // generated when empty
	UserID                string
	Fence                 location.GeoFence
	EnforceValidityWindow bool
}

// Session runs one mission workflow for one user: eligibility check, mission
// issuance, capture and verification. It is safe to observe from other
// goroutines; the workflow itself is expected to be driven sequentially.
type Session struct {
	id            string
	userID        string
	fence         location.GeoFence
	enforceWindow bool

	locator  location.Provider
	missions MissionCreator
	verifier EvidenceVerifier
	evidence EvidenceSlot
	now      func() time.Time
	logger   zerolog.Logger

	mu           sync.Mutex
	state        constants.SessionState
	mission      *models.Mission
	reason       string
	updatedAt    time.Time
	generation   uint64
	cancel       context.CancelFunc
	observers    map[int]Observer
	nextObserver int
}

// New creates an idle session.
func New(cfg Config, locator location.Provider, missions MissionCreator, verifier EvidenceVerifier,
	evidence EvidenceSlot, logger zerolog.Logger) *Session {
	id := cfg.SessionID
	if id == "" {
		id = uuid.NewString()
	}

	s := &Session{
		id:            id,
		userID:        cfg.UserID,
		fence:         cfg.Fence,
		enforceWindow: cfg.EnforceValidityWindow,
		locator:       locator,
		missions:      missions,
		verifier:      verifier,
		evidence:      evidence,
		now:           time.Now,
		state:         constants.StateIdle,
		observers:     make(map[int]Observer),
	}
	s.logger = logger.With().Str("session_id", id).Str("user_id", cfg.UserID).Logger()
	s.updatedAt = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() constants.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mission returns the bound mission, if one was issued.
func (s *Session) Mission() (models.Mission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mission == nil {
		return models.Mission{}, false
	}
	return *s.mission, true
}

// Snapshot returns the observable state of the session.
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to be called after every state change and returns a
// function that removes it. fn runs on the goroutine driving the workflow and
// must not block.
func (s *Session) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.nextObserver
	s.nextObserver++
	s.observers[key] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, key)
	}
}

// Start reads the location and, inside the geofence, requests a mission.
// An ineligible location is a normal outcome and returns nil; location and
// mission faults leave the session failed and are returned.
func (s *Session) Start(ctx context.Context) error {
	ctx, gen, release, err := s.begin(ctx, EventStart, nil)
	if err != nil {
		return err
	}
	defer release()

	coord, err := s.locator.GetLocation(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read location")
		if errors.Is(err, location.ErrPermissionDenied) {
			return errors.Join(err, s.fail(gen, EventLocationDenied, constants.ReasonLocationPermissionDenied))
		}
		return errors.Join(err, s.fail(gen, EventLocationUnavailable, constants.ReasonLocationUnavailable))
	}

	distance := location.DistanceMeters(coord, s.fence.Center)
	s.logger.Info().
		Float64("latitude", coord.Latitude).
		Float64("longitude", coord.Longitude).
		Float64("distance_m", distance).
		Float64("radius_m", s.fence.RadiusMeters).
		Msg("Location read")

	if !location.IsEligible(coord, s.fence) {
		return s.transition(gen, EventOutsideFence, func() { s.reason = constants.ReasonOutsideGeofence })
	}
	if err := s.transition(gen, EventInsideFence, nil); err != nil {
		return err
	}
	if err := s.transition(gen, EventRequestMission, nil); err != nil {
		return err
	}

	mission, err := s.missions.CreateMission(ctx, s.userID)
	if err != nil {
		return errors.Join(err, s.fail(gen, EventMissionFailed, constants.ReasonMissionCreationFailed))
	}

	return s.transition(gen, EventMissionIssued, func() { s.mission = &mission })
}

// Capture takes a new photo, replacing any held one. A capture failure
// returns the session to active without evidence; the mission is kept.
func (s *Session) Capture(ctx context.Context) (models.Evidence, error) {
	ctx, gen, release, err := s.begin(ctx, EventCaptureStarted, nil)
	if err != nil {
		return models.Evidence{}, err
	}
	defer release()

	evidence, err := s.evidence.Capture(ctx)
	if err != nil {
		return models.Evidence{}, errors.Join(err, s.transition(gen, EventCaptureFailed, nil))
	}

	if err := s.transition(gen, EventCaptureSucceeded, nil); err != nil {
		return models.Evidence{}, err
	}
	return evidence, nil
}

// Discard drops the held photo so a new one can be taken.
func (s *Session) Discard() error {
	s.mu.Lock()
	if s.state == constants.StateVerifying {
		s.mu.Unlock()
		return ErrVerificationInProgress
	}
	gen := s.generation
	s.mu.Unlock()

	return s.transition(gen, EventEvidenceDiscarded, func() {
		// The slot is never checked out outside verifying.
		_ = s.evidence.Discard()
	})
}

// Verify submits the held photo against the bound mission. A negative
// verdict moves the session to rejected and is not an error; a transport
// failure moves it to failed and is returned.
func (s *Session) Verify(ctx context.Context) (models.VerificationResult, error) {
	s.mu.Lock()
	switch {
	case s.state == constants.StateVerifying:
		s.mu.Unlock()
		return models.VerificationResult{}, ErrVerificationInProgress
	case s.state.IsTerminal():
		state := s.state
		s.mu.Unlock()
		return models.VerificationResult{}, fmt.Errorf("%w: session already %s", ErrInvalidTransition, state)
	case s.mission == nil:
		s.mu.Unlock()
		return models.VerificationResult{}, ErrMissionRequired
	case s.state != constants.StateCaptured:
		s.mu.Unlock()
		return models.VerificationResult{}, ErrEvidenceRequired
	}
	mission := *s.mission
	gen := s.generation
	s.mu.Unlock()

	if s.enforceWindow && mission.Expired(s.now()) {
		s.logger.Warn().
			Str("mission_id", mission.MissionID).
			Time("expired_at", mission.ExpiresAt()).
			Msg("Mission validity window has passed")
		return models.VerificationResult{}, errors.Join(ErrMissionExpired, s.transition(gen, EventMissionExpired, func() {
			_ = s.evidence.Discard()
			s.reason = constants.ReasonMissionExpired
		}))
	}

	var evidence models.Evidence
	ctx, gen, release, err := s.begin(ctx, EventSubmit, func() error {
		var err error
		evidence, err = s.evidence.Checkout()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEvidenceRequired, err)
		}
		return nil
	})
	if err != nil {
		return models.VerificationResult{}, err
	}
	defer release()

	result, err := s.verifier.Submit(ctx, evidence, s.userID, mission.MissionID)
	if err != nil {
		return models.VerificationResult{}, errors.Join(err, s.transition(gen, EventVerificationFailed, func() {
			s.evidence.Consume()
			s.reason = constants.ReasonVerificationFailed
		}))
	}

	event := EventRejected
	if result.Verified {
		event = EventVerified
	}
	if err := s.transition(gen, event, func() {
		s.evidence.Consume()
		s.reason = result.Reason
	}); err != nil {
		return models.VerificationResult{}, err
	}
	return result, nil
}

// Reset abandons the workflow from any state: it cancels an in-flight call,
// drops the mission and evidence, and returns to idle. Results of calls that
// were in flight are ignored.
func (s *Session) Reset() {
	s.mu.Lock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	previous := s.state
	s.state = constants.StateIdle
	s.mission = nil
	s.reason = ""
	s.evidence.Reset()
	s.updatedAt = s.now()
	snapshot, observers := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()

	s.logger.Info().Str("from", string(previous)).Msg("Session reset")
	s.notify(snapshot, observers)
}

// begin applies ev and registers a cancellable context for the call that
// follows. check runs under the lock before the transition and may veto it.
func (s *Session) begin(ctx context.Context, ev Event, check func() error) (context.Context, uint64, func(), error) {
	s.mu.Lock()
	if s.state == constants.StateVerifying {
		s.mu.Unlock()
		return nil, 0, nil, ErrVerificationInProgress
	}
	next, err := Next(s.state, ev)
	if err != nil {
		s.mu.Unlock()
		return nil, 0, nil, err
	}
	if check != nil {
		if err := check(); err != nil {
			s.mu.Unlock()
			return nil, 0, nil, err
		}
	}

	previous := s.state
	s.state = next
	s.updatedAt = s.now()
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	gen := s.generation
	snapshot, observers := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()

	s.logTransition(previous, next, ev)
	s.notify(snapshot, observers)

	release := func() {
		cancel()
		s.mu.Lock()
		if s.generation == gen {
			s.cancel = nil
		}
		s.mu.Unlock()
	}
	return ctx, gen, release, nil
}

// transition applies ev unless the session was reset since gen. mutate runs
// under the lock after the state changed.
func (s *Session) transition(gen uint64, ev Event, mutate func()) error {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug().Str("event", string(ev)).Msg("Ignoring event from a superseded call")
		return ErrSessionReset
	}
	next, err := Next(s.state, ev)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	previous := s.state
	s.state = next
	if mutate != nil {
		mutate()
	}
	s.updatedAt = s.now()
	snapshot, observers := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()

	s.logTransition(previous, next, ev)
	s.notify(snapshot, observers)
	return nil
}

// fail moves the session to failed with reason.
func (s *Session) fail(gen uint64, ev Event, reason string) error {
	return s.transition(gen, ev, func() { s.reason = reason })
}

func (s *Session) snapshotLocked() models.SessionSnapshot {
	snapshot := models.SessionSnapshot{
		SessionID: s.id,
		UserID:    s.userID,
		State:     s.state,
		Reason:    s.reason,
		Message:   Message(s.state, s.reason),
		UpdatedAt: s.updatedAt,
	}
	if s.mission != nil {
		snapshot.MissionID = s.mission.MissionID
		expires := s.mission.ExpiresAt()
		snapshot.MissionExpires = &expires
	}
	if evidence, ok := s.evidence.Current(); ok {
		snapshot.EvidenceDigest = evidence.Digest
	}
	return snapshot
}

func (s *Session) observerList() []Observer {
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	return observers
}

func (s *Session) notify(snapshot models.SessionSnapshot, observers []Observer) {
	for _, o := range observers {
		o(snapshot)
	}
}

func (s *Session) logTransition(from, to constants.SessionState, ev Event) {
	s.logger.Info().
		Str("from", string(from)).
		Str("to", string(to)).
		Str("event", string(ev)).
		Msg("Session state changed")
}
