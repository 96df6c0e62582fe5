package services

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/benmeehan/mission-agent/pkg/file"
	"github.com/benmeehan/mission-agent/pkg/s3"
	"github.com/rs/zerolog"
)

// EvidenceArchive uploads submitted evidence to object storage as
// {prefix}/{user_id}/{mission_id}.jpg.
type EvidenceArchive struct {
	Storage    s3.ObjectStorageClient
	FileClient file.FileOperations
	Bucket     string
	Prefix     string
	Logger     zerolog.Logger
}

// NewEvidenceArchive initializes a new EvidenceArchive.
func NewEvidenceArchive(storage s3.ObjectStorageClient, fileClient file.FileOperations, bucket, prefix string,
	logger zerolog.Logger) *EvidenceArchive {
	return &EvidenceArchive{
		Storage:    storage,
		FileClient: fileClient,
		Bucket:     bucket,
		Prefix:     prefix,
		Logger:     logger,
	}
}

// ObjectName returns the key evidence for a mission is stored under.
func (a *EvidenceArchive) ObjectName(userID, missionID string) string {
	return path.Join(a.Prefix, userID, missionID+".jpg")
}

// Store uploads evidence together with the verification outcome.
func (a *EvidenceArchive) Store(ctx context.Context, evidence models.Evidence, userID, missionID string,
	result models.VerificationResult) error {
	content, err := a.FileClient.Open(evidence.ImageHandle)
	if err != nil {
		return fmt.Errorf("failed to open evidence %s: %w", evidence.ImageHandle, err)
	}
	defer content.Close()

	objectName := a.ObjectName(userID, missionID)
	metadata := map[string]string{
		"user-id":    userID,
		"mission-id": missionID,
		"digest":     evidence.Digest,
		"verified":   strconv.FormatBool(result.Verified),
	}
	if result.Reason != "" {
		metadata["reason"] = result.Reason
	}

	if err := a.Storage.UploadFile(ctx, a.Bucket, objectName, content, evidence.Size, evidence.MimeType, metadata); err != nil {
		return err
	}

	a.Logger.Info().Str("bucket", a.Bucket).Str("object", objectName).Msg("Evidence archived")
	return nil
}
