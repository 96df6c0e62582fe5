package session

import (
	"sort"
	"sync"

	"github.com/benmeehan/mission-agent/internal/capture"
	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/benmeehan/mission-agent/pkg/camera"
	"github.com/benmeehan/mission-agent/pkg/file"
	"github.com/benmeehan/mission-agent/pkg/location"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// Dependencies are the collaborators shared by every session a Manager creates.
type Dependencies struct {
	Locator    location.Provider
	Missions   MissionCreator
	Verifier   EvidenceVerifier
	Device     camera.Device
	FileClient file.FileOperations
}

// Manager creates sessions and keeps them addressable by ID for observers.
// Sessions share collaborators but never state; each gets its own evidence slot.
type Manager struct {
	deps                  Dependencies
	fence                 location.GeoFence
	enforceValidityWindow bool
	retain                int
	logger                zerolog.Logger

	mu        sync.Mutex
	observers []Observer

	sessions cmap.ConcurrentMap[string, *Session]
}

// NewManager creates a Manager. retain bounds how many finished sessions are
// kept for observers; zero keeps them all.
func NewManager(deps Dependencies, fence location.GeoFence, enforceValidityWindow bool, retain int,
	logger zerolog.Logger, observers ...Observer) *Manager {
	return &Manager{
		deps:                  deps,
		fence:                 fence,
		enforceValidityWindow: enforceValidityWindow,
		retain:                retain,
		observers:             observers,
		logger:                logger,
		sessions:              cmap.New[*Session](),
	}
}

// NewSession creates an idle session for userID and registers it.
func (m *Manager) NewSession(userID string) *Session {
	gate := capture.NewGate(m.deps.Device, m.deps.FileClient, m.logger)
	s := New(Config{
		UserID:                userID,
		Fence:                 m.fence,
		EnforceValidityWindow: m.enforceValidityWindow,
	}, m.deps.Locator, m.deps.Missions, m.deps.Verifier, gate, m.logger)

	m.mu.Lock()
	observers := append([]Observer(nil), m.observers...)
	m.mu.Unlock()
	for _, o := range observers {
		s.Subscribe(o)
	}

	m.prune()
	m.sessions.Set(s.ID(), s)
	m.logger.Info().Str("session_id", s.ID()).Str("user_id", userID).Msg("Session created")
	return s
}

// AddObserver subscribes o to every session created from now on.
func (m *Manager) AddObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	return m.sessions.Get(id)
}

// Remove forgets a session. An in-flight call is cancelled first.
func (m *Manager) Remove(id string) {
	if s, ok := m.sessions.Pop(id); ok {
		s.Reset()
	}
}

// Snapshots returns the snapshot of every registered session, newest first.
func (m *Manager) Snapshots() []models.SessionSnapshot {
	snapshots := make([]models.SessionSnapshot, 0, m.sessions.Count())
	for item := range m.sessions.IterBuffered() {
		snapshots = append(snapshots, item.Val.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].UpdatedAt.After(snapshots[j].UpdatedAt)
	})
	return snapshots
}

// prune drops the oldest finished sessions beyond the retention limit.
func (m *Manager) prune() {
	if m.retain <= 0 {
		return
	}

	var finished []models.SessionSnapshot
	for _, snapshot := range m.Snapshots() {
		if snapshot.State.IsTerminal() {
			finished = append(finished, snapshot)
		}
	}
	for i := m.retain; i < len(finished); i++ {
		m.sessions.Remove(finished[i].SessionID)
	}
}

// Snapshot returns the snapshot of the session with the given ID.
func (m *Manager) Snapshot(id string) (models.SessionSnapshot, bool) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return models.SessionSnapshot{}, false
	}
	return s.Snapshot(), true
}
