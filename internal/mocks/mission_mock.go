package mocks

import (
	"context"

	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/stretchr/testify/mock"
)

// MissionCreator is a mock of the mission issuance client
type MissionCreator struct {
	mock.Mock
}

func (m *MissionCreator) CreateMission(ctx context.Context, userID string) (models.Mission, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Mission), args.Error(1)
}

// EvidenceVerifier is a mock of the verification client
type EvidenceVerifier struct {
	mock.Mock
}

func (m *EvidenceVerifier) Submit(ctx context.Context, evidence models.Evidence, userID, missionID string) (models.VerificationResult, error) {
	args := m.Called(ctx, evidence, userID, missionID)
	return args.Get(0).(models.VerificationResult), args.Error(1)
}
