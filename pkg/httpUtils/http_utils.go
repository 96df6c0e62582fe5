package http_utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	// APIVersionHeader carries the service API version on responses.
	APIVersionHeader = "X-API-Version"
	// ClientVersionHeader carries the agent version on requests.
	ClientVersionHeader = "X-Client-Version"

	maxResponseBytes = 1 << 20
)

// ErrIncompatibleAPI is returned when a service reports an API version outside the configured constraint.
var ErrIncompatibleAPI = errors.New("incompatible service API version")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

// FormField is a plain multipart form field.
type FormField struct {
	Name  string
	Value string
}

// FormFile is a multipart file part streamed from Content.
type FormFile struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     io.Reader
}

// NewClient returns an HTTP client with a hard timeout on every request.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewMultipartRequest builds a POST request whose body is a multipart form
// with the given fields, in order, followed by the optional file part. The
// body is streamed: file.Content is read while the request is sent, so it
// must stay open until the request completes. A read error aborts the body.
func NewMultipartRequest(ctx context.Context, url string, fields []FormField, file *FormFile) (*http.Request, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	go func() {
		pw.CloseWithError(writeMultipart(writer, fields, file))
	}()
	return req, nil
}

func writeMultipart(writer *multipart.Writer, fields []FormField, file *FormFile) error {
	for _, field := range fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return fmt.Errorf("error writing form field %s: %w", field.Name, err)
		}
	}

	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.FieldName, file.FileName))
		header.Set("Content-Type", file.ContentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("error creating form file: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("error copying file content: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("error closing writer: %w", err)
	}
	return nil
}

// ParseConstraint parses a semver constraint. An empty string disables the check.
func ParseConstraint(constraint string) (*semver.Constraints, error) {
	if constraint == "" {
		return nil, nil
	}
	return semver.NewConstraint(constraint)
}

// CheckAPIVersion validates the response's APIVersionHeader against constraint.
// Responses without the header and a nil constraint always pass.
func CheckAPIVersion(resp *http.Response, constraint *semver.Constraints) error {
	if constraint == nil {
		return nil
	}
	raw := resp.Header.Get(APIVersionHeader)
	if raw == "" {
		return nil
	}

	version, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: unparsable version %q", ErrIncompatibleAPI, raw)
	}
	if !constraint.Check(version) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrIncompatibleAPI, version, constraint)
	}
	return nil
}

// DecodeJSONResponse checks the status code and decodes the JSON body into v.
func DecodeJSONResponse(resp *http.Response, v any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
