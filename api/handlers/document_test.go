package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdrip/docdrip"
	"github.com/docdrip/docdrip/api/handlers"
	"github.com/docdrip/docdrip/api/routes"
	"github.com/docdrip/docdrip/internal/service/document"
	"github.com/docdrip/docdrip/pkg/logger"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := docdrip.New(docdrip.WithMaxFileSize(1 << 20))
	svc := document.New(engine, logger.Nop(), 2)
	h := handlers.New(svc, logger.Nop(), "test")

	r := gin.New()
	routes.Setup(r, h, testSecret)
	return r
}

// multipartBody builds a multipart form with one "file" field.
func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doUpload(t *testing.T, r *gin.Engine, path, filename string, content []byte, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMissingKey(t *testing.T) {
	r := newTestRouter(t)

	rec := doUpload(t, r, "/v1/convert", "a.txt", []byte("hi"), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp["status"])
	assert.Equal(t, "missing API key", resp["error"])
}

func TestAuthWrongKey(t *testing.T) {
	r := newTestRouter(t)

	rec := doUpload(t, r, "/v1/convert", "a.txt", []byte("hi"), "not-the-secret")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthBearerHeader(t *testing.T) {
	r := newTestRouter(t)

	body, contentType := multipartBody(t, "a.txt", []byte("hi"))
	req := httptest.NewRequest(http.MethodPost, "/v1/convert", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthNeedsNoAuth(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["operational"])
}

func TestConvertPlainText(t *testing.T) {
	r := newTestRouter(t)

	rec := doUpload(t, r, "/v1/convert", "hello.txt", []byte("Hello\nWorld"), testSecret)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "text", resp.Format)
	assert.Equal(t, "Hello\nWorld", resp.Markdown)
	assert.Equal(t, "hello.txt", resp.Metadata.Filename)
	assert.Equal(t, int64(11), resp.Metadata.SizeBytes)
	assert.NotNil(t, resp.Metadata.Warnings)
}

func TestConvertEmptyFile(t *testing.T) {
	r := newTestRouter(t)

	rec := doUpload(t, r, "/v1/convert", "empty.txt", nil, testSecret)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.Contains(t, resp.Error, "empty")
}

func TestConvertOversizeUpload(t *testing.T) {
	r := newTestRouter(t)

	// Just over the engine cap: accepted by the reader, rejected by
	// validation.
	rec := doUpload(t, r, "/v1/convert", "big.txt", bytes.Repeat([]byte("a"), 1<<20+1), testSecret)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "exceeds maximum allowed size")

	// Far over the cap: the body reader cuts ingest off before the
	// upload is buffered whole.
	rec = doUpload(t, r, "/v1/convert", "huge.txt", bytes.Repeat([]byte("a"), 4<<20), testSecret)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "exceeds the maximum allowed size")
}

func TestConvertUnknownFormat(t *testing.T) {
	r := newTestRouter(t)

	rec := doUpload(t, r, "/v1/convert", "blob.bin", []byte{0x00, 0x01, 0xff, 0xfe}, testSecret)

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.Contains(t, resp.Error, "unsupported format")
}

func TestConvertMissingFileField(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/convert", bytes.NewBufferString("not multipart"))
	req.Header.Set("X-API-Key", testSecret)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doUpload(t, r, "/v1/validate", "data.csv", []byte("a,b\n1,2\n"), testSecret)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, "csv", resp.Format)
	assert.Equal(t, "data.csv", resp.Filename)
	assert.Empty(t, resp.Reasons)
	assert.NotNil(t, resp.Reasons)
}

func TestValidateEndpointIsIdempotent(t *testing.T) {
	r := newTestRouter(t)

	first := doUpload(t, r, "/v1/validate", "x.bin", []byte{0x00, 0xff, 0xfe}, testSecret)
	second := doUpload(t, r, "/v1/validate", "x.bin", []byte{0x00, 0xff, 0xfe}, testSecret)

	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	var resp handlers.ValidateResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Reasons)
}

func TestFormatsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/formats", nil)
	req.Header.Set("X-API-Key", testSecret)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.FormatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.SupportedFormats, ".pdf")
	assert.Contains(t, resp.SupportedFormats, ".docx")
	assert.Equal(t, 1.0, resp.MaxFileSizeMB)
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
