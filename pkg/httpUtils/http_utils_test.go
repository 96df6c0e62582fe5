package http_utils_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"

	http_utils "github.com/benmeehan/mission-agent/pkg/httpUtils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: header}
}

func TestNewMultipartRequest(t *testing.T) {
	req, err := http_utils.NewMultipartRequest(context.Background(), "http://example.test/verify_exif",
		[]http_utils.FormField{{Name: "user_id", Value: "user123"}, {Name: "mission_id", Value: "m1"}},
		&http_utils.FormFile{FieldName: "file", FileName: "photo.jpg", ContentType: "image/jpeg", Content: strings.NewReader("jpeg")},
	)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)

	require.NoError(t, req.ParseMultipartForm(1<<20))
	assert.Equal(t, "user123", req.FormValue("user_id"))
	assert.Equal(t, "m1", req.FormValue("mission_id"))

	f, header, err := req.FormFile("file")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "photo.jpg", header.Filename)
	assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
	data, _ := io.ReadAll(f)
	assert.Equal(t, "jpeg", string(data))
}

type countingReader struct {
	r     io.Reader
	reads atomic.Int32
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads.Add(1)
	return c.r.Read(p)
}

// TestNewMultipartRequest_StreamsContent reads the file only as the body is consumed.
func TestNewMultipartRequest_StreamsContent(t *testing.T) {
	content := &countingReader{r: strings.NewReader(strings.Repeat("x", 64<<10))}

	req, err := http_utils.NewMultipartRequest(context.Background(), "http://example.test/verify_exif",
		[]http_utils.FormField{{Name: "user_id", Value: "user123"}},
		&http_utils.FormFile{FieldName: "file", FileName: "photo.jpg", ContentType: "image/jpeg", Content: content},
	)
	require.NoError(t, err)
	assert.Zero(t, content.reads.Load())

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Greater(t, len(body), 64<<10)
	assert.Positive(t, content.reads.Load())
}

// TestNewMultipartRequest_ContentError surfaces a failing file read on the body.
func TestNewMultipartRequest_ContentError(t *testing.T) {
	req, err := http_utils.NewMultipartRequest(context.Background(), "http://example.test/verify_exif", nil,
		&http_utils.FormFile{FieldName: "file", FileName: "photo.jpg", ContentType: "image/jpeg", Content: iotest.ErrReader(errors.New("disk gone"))},
	)
	require.NoError(t, err)

	_, err = io.ReadAll(req.Body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestDecodeJSONResponse(t *testing.T) {
	var out struct {
		MissionID string `json:"mission_id"`
	}
	require.NoError(t, http_utils.DecodeJSONResponse(response(200, `{"mission_id":"m1"}`, nil), &out))
	assert.Equal(t, "m1", out.MissionID)

	err := http_utils.DecodeJSONResponse(response(503, "down\n", nil), &out)
	var statusErr *http_utils.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 503, statusErr.StatusCode)
	assert.Equal(t, "down", statusErr.Body)

	assert.Error(t, http_utils.DecodeJSONResponse(response(200, "<html>", nil), &out))
}

func TestCheckAPIVersion(t *testing.T) {
	constraint, err := http_utils.ParseConstraint(">= 1.2, < 2")
	require.NoError(t, err)

	withVersion := func(v string) *http.Response {
		h := make(http.Header)
		h.Set(http_utils.APIVersionHeader, v)
		return response(200, "", h)
	}

	assert.NoError(t, http_utils.CheckAPIVersion(withVersion("1.4.0"), constraint))
	assert.NoError(t, http_utils.CheckAPIVersion(response(200, "", nil), constraint))
	assert.ErrorIs(t, http_utils.CheckAPIVersion(withVersion("2.0.0"), constraint), http_utils.ErrIncompatibleAPI)
	assert.ErrorIs(t, http_utils.CheckAPIVersion(withVersion("banana"), constraint), http_utils.ErrIncompatibleAPI)

	none, err := http_utils.ParseConstraint("")
	require.NoError(t, err)
	assert.NoError(t, http_utils.CheckAPIVersion(withVersion("9.9.9"), none))
}
