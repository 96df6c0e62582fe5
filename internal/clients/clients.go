package clients

import (
	"net/http"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
)

const (
	createMissionPath = "create_mission"
	verifyPath        = "verify_exif"
)

var validate = validator.New()

// Options holds what both service clients share.
type Options struct {
	BaseURL       string
	HTTPClient    *http.Client
	APIConstraint *semver.Constraints // nil disables the service version check
	ClientVersion string
}
