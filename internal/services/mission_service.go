package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/mission-agent/internal/constants"
	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/benmeehan/mission-agent/internal/session"
	"github.com/benmeehan/mission-agent/pkg/file"
	"github.com/benmeehan/mission-agent/pkg/identity"
	"github.com/rs/zerolog"
)

// SessionFactory creates registered mission sessions.
type SessionFactory interface {
	NewSession(userID string) *session.Session
}

// MissionService runs the mission workflow end to end for the configured
// user: location check, mission issuance, capture and verification. With a
// zero interval it runs once after Start. Each run deletes its captured
// image once the evidence is archived or no longer needed.
type MissionService struct {
	Sessions   SessionFactory
	UserInfo   identity.UserInfoInterface
	Archive    *EvidenceArchive // optional
	FileClient file.FileOperations
	Interval   time.Duration
	Logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMissionService initializes a new MissionService. archive may be nil.
func NewMissionService(sessions SessionFactory, userInfo identity.UserInfoInterface, archive *EvidenceArchive,
	fileClient file.FileOperations, interval time.Duration, logger zerolog.Logger) *MissionService {
	return &MissionService{
		Sessions:   sessions,
		UserInfo:   userInfo,
		Archive:    archive,
		FileClient: fileClient,
		Interval:   interval,
		Logger:     logger,
	}
}

// Start launches the mission loop in a separate goroutine.
func (m *MissionService) Start() error {
	if m.ctx != nil {
		m.Logger.Warn().Msg("MissionService is already running")
		return errors.New("mission service is already running")
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runMissionLoop()
	}()

	m.Logger.Info().Dur("interval", m.Interval).Msg("MissionService started successfully")
	return nil
}

// Stop cancels the running workflow and waits for the loop to exit.
func (m *MissionService) Stop() error {
	if m.ctx == nil {
		m.Logger.Warn().Msg("MissionService is not running")
		return errors.New("mission service is not running")
	}

	m.cancel()
	m.wg.Wait()

	m.ctx = nil
	m.cancel = nil

	m.Logger.Info().Msg("MissionService stopped successfully")
	return nil
}

func (m *MissionService) runMissionLoop() {
	m.RunOnce(m.ctx)
	if m.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RunOnce(m.ctx)
		case <-m.ctx.Done():
			m.Logger.Info().Msg("MissionService stopping gracefully")
			return
		}
	}
}

// RunOnce runs one workflow in a new session and returns its final snapshot.
// Failures are reflected in the snapshot and logged.
func (m *MissionService) RunOnce(ctx context.Context) models.SessionSnapshot {
	s := m.Sessions.NewSession(m.UserInfo.GetUserID())
	logger := m.Logger.With().Str("session_id", s.ID()).Logger()

	if err := s.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("Mission could not be started")
		return s.Snapshot()
	}
	if s.State() != constants.StateActive {
		logger.Info().Str("state", string(s.State())).Msg("No mission issued")
		return s.Snapshot()
	}

	evidence, err := s.Capture(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Evidence capture failed")
		return s.Snapshot()
	}
	defer func() {
		if err := m.FileClient.Remove(evidence.ImageHandle); err != nil {
			logger.Warn().Err(err).Str("image", evidence.ImageHandle).Msg("Failed to remove evidence image")
		}
	}()

	result, err := s.Verify(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Evidence verification failed")
		return s.Snapshot()
	}

	snapshot := s.Snapshot()
	logger.Info().
		Str("mission_id", snapshot.MissionID).
		Bool("verified", result.Verified).
		Str("reason", result.Reason).
		Msg("Mission finished")

	if m.Archive != nil {
		if err := m.Archive.Store(ctx, evidence, snapshot.UserID, snapshot.MissionID, result); err != nil {
			logger.Error().Err(err).Msg("Failed to archive evidence")
		}
	}
	return snapshot
}
