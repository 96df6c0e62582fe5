package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/benmeehan/mission-agent/pkg/file"
)

// ErrNoUserID is returned when neither the identity file nor the fallback provides a user ID.
var ErrNoUserID = errors.New("no user id configured")

// Identity holds the user the agent acts for and other metadata.
type Identity struct {
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// UserInfoInterface defines methods for managing the user identity.
type UserInfoInterface interface {
	LoadUserInfo() error
	GetUserID() string
	GetIdentity() *Identity
}

// UserInfo manages the user identity and its associated file operations.
type UserInfo struct {
	UserInfoFile   string
	FallbackUserID string
	Identity       Identity
	fileOps        file.FileOperations
}

// NewUserInfo initializes a new UserInfo instance. fallbackUserID is used when
// the identity file does not exist.
func NewUserInfo(filePath, fallbackUserID string, fileOps file.FileOperations) UserInfoInterface {
	return &UserInfo{
		UserInfoFile:   filePath,
		FallbackUserID: fallbackUserID,
		fileOps:        fileOps,
	}
}

// LoadUserInfo reads the identity file and populates the Identity field.
func (u *UserInfo) LoadUserInfo() error {
	var loaded Identity
	if u.UserInfoFile != "" {
		err := u.fileOps.ReadJsonFile(u.UserInfoFile, &loaded)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read identity file %s: %w", u.UserInfoFile, err)
		}
	}

	if loaded.UserID == "" {
		loaded.UserID = u.FallbackUserID
	}
	if loaded.UserID == "" {
		return ErrNoUserID
	}

	u.Identity = loaded
	return nil
}

// GetIdentity returns the current user Identity.
func (u *UserInfo) GetIdentity() *Identity {
	return &u.Identity
}

// GetUserID returns the current user ID.
func (u *UserInfo) GetUserID() string {
	return u.Identity.UserID
}
