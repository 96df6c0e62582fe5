package clients

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/benmeehan/mission-agent/internal/constants"
	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/benmeehan/mission-agent/pkg/file"
	http_utils "github.com/benmeehan/mission-agent/pkg/httpUtils"
	"github.com/rs/zerolog"
)

// VerificationClient submits evidence to the verification service.
type VerificationClient struct {
	opts       Options
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewVerificationClient creates a VerificationClient. fileClient opens evidence images.
func NewVerificationClient(opts Options, fileClient file.FileOperations, logger zerolog.Logger) *VerificationClient {
	return &VerificationClient{
		opts:       opts,
		fileClient: fileClient,
		logger:     logger,
	}
}

// Submit sends the evidence with the user and mission identifiers in one
// multipart request. A well-formed {"verified": false} answer is returned as a
// result, not an error; anything that prevents reading a verdict is returned
// as a *models.VerificationTransportError.
func (c *VerificationClient) Submit(ctx context.Context, evidence models.Evidence, userID, missionID string) (models.VerificationResult, error) {
	result, err := c.submit(ctx, evidence, userID, missionID)
	if err != nil {
		c.logger.Error().Err(err).Str("mission_id", missionID).Msg("Verification request failed")
		return models.VerificationResult{}, &models.VerificationTransportError{MissionID: missionID, Err: err}
	}

	c.logger.Info().
		Str("user_id", userID).
		Str("mission_id", missionID).
		Str("digest", evidence.Digest).
		Bool("verified", result.Verified).
		Str("reason", result.Reason).
		Msg("Verification completed")
	return result, nil
}

func (c *VerificationClient) submit(ctx context.Context, evidence models.Evidence, userID, missionID string) (models.VerificationResult, error) {
	if evidence.ImageHandle == "" {
		return models.VerificationResult{}, errors.New("evidence has no image")
	}

	endpoint, err := url.JoinPath(c.opts.BaseURL, verifyPath)
	if err != nil {
		return models.VerificationResult{}, fmt.Errorf("invalid verification service url: %w", err)
	}

	image, err := c.fileClient.Open(evidence.ImageHandle)
	if err != nil {
		return models.VerificationResult{}, fmt.Errorf("failed to open evidence: %w", err)
	}
	defer image.Close()

	req, err := http_utils.NewMultipartRequest(ctx, endpoint,
		[]http_utils.FormField{
			{Name: "user_id", Value: userID},
			{Name: "mission_id", Value: missionID},
		},
		&http_utils.FormFile{
			FieldName:   "file",
			FileName:    constants.EvidenceFileName,
			ContentType: constants.EvidenceMimeType,
			Content:     image,
		},
	)
	if err != nil {
		return models.VerificationResult{}, err
	}
	if c.opts.ClientVersion != "" {
		req.Header.Set(http_utils.ClientVersionHeader, c.opts.ClientVersion)
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return models.VerificationResult{}, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := http_utils.CheckAPIVersion(resp, c.opts.APIConstraint); err != nil {
		return models.VerificationResult{}, err
	}

	var body models.VerificationResponse
	if err := http_utils.DecodeJSONResponse(resp, &body); err != nil {
		return models.VerificationResult{}, err
	}
	if err := validate.Struct(body); err != nil {
		return models.VerificationResult{}, fmt.Errorf("invalid verification response: %w", err)
	}

	return models.VerificationResult{Verified: *body.Verified, Reason: body.Reason}, nil
}
