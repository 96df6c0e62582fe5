package clients

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/benmeehan/mission-agent/internal/constants"
	"github.com/benmeehan/mission-agent/internal/models"
	http_utils "github.com/benmeehan/mission-agent/pkg/httpUtils"
	"github.com/rs/zerolog"
)

// MissionClient requests missions from the mission issuance service.
type MissionClient struct {
	opts   Options
	now    func() time.Time
	logger zerolog.Logger
}

// NewMissionClient creates a MissionClient.
func NewMissionClient(opts Options, logger zerolog.Logger) *MissionClient {
	return &MissionClient{
		opts:   opts,
		now:    time.Now,
		logger: logger,
	}
}

// CreateMission issues one request for a new mission for userID. Any failure,
// including a non-2xx status or a body without mission_id, is returned as a
// *models.MissionCreationError. There is no retry.
func (c *MissionClient) CreateMission(ctx context.Context, userID string) (models.Mission, error) {
	mission, err := c.createMission(ctx, userID)
	if err != nil {
		c.logger.Error().Err(err).Str("user_id", userID).Msg("Mission creation failed")
		return models.Mission{}, &models.MissionCreationError{UserID: userID, Err: err}
	}

	c.logger.Info().
		Str("user_id", userID).
		Str("mission_id", mission.MissionID).
		Dur("validity_window", mission.ValidityWindow).
		Msg("Mission created")
	return mission, nil
}

func (c *MissionClient) createMission(ctx context.Context, userID string) (models.Mission, error) {
	if userID == "" {
		return models.Mission{}, errors.New("empty user id")
	}

	endpoint, err := url.JoinPath(c.opts.BaseURL, createMissionPath)
	if err != nil {
		return models.Mission{}, fmt.Errorf("invalid mission service url: %w", err)
	}

	req, err := http_utils.NewMultipartRequest(ctx, endpoint, []http_utils.FormField{{Name: "user_id", Value: userID}}, nil)
	if err != nil {
		return models.Mission{}, err
	}
	if c.opts.ClientVersion != "" {
		req.Header.Set(http_utils.ClientVersionHeader, c.opts.ClientVersion)
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return models.Mission{}, fmt.Errorf("mission request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := http_utils.CheckAPIVersion(resp, c.opts.APIConstraint); err != nil {
		return models.Mission{}, err
	}

	var body models.MissionResponse
	if err := http_utils.DecodeJSONResponse(resp, &body); err != nil {
		return models.Mission{}, err
	}
	if err := validate.Struct(body); err != nil {
		return models.Mission{}, fmt.Errorf("invalid mission response: %w", err)
	}

	window := constants.DefaultValidityWindow
	if body.ExpiresIn > 0 {
		window = time.Duration(body.ExpiresIn) * time.Second
	}

	return models.Mission{
		MissionID:      body.MissionID,
		UserID:         userID,
		IssuedAt:       c.now(),
		ValidityWindow: window,
		StartTime:      body.StartTime,
	}, nil
}
