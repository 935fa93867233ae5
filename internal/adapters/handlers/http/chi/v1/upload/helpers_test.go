package upload_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi"
	uploadv1 "github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi/v1/upload"
	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/upload"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	tenantID   = "tenant-1"
	uploaderID = "user-1"
)

func newRouter(service *upload.MockUploadService) http.Handler {
	discardLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := uploadv1.NewUploadHandlerV1(service, discardLogger)
	return chi.NewRouter(discardLogger, handler, config.AuthConfig{JWTSecret: testSecret}, "")
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"tenant_id": tenantID,
		"sub":       uploaderID,
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, h http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func session(uploadType domain.UploadType, status domain.UploadSessionStatus) *domain.UploadSession {
	now := time.Now().UTC()
	s := domain.NewUploadSession(uuid.New(), tenantID, uploaderID, "match.mp4", 200*1024*1024, "video/mp4",
		&domain.Checksum{Algorithm: domain.ChecksumSHA256, Value: "abc"}, "uploads/tenant-1/0a/key", uploadType, now.Add(time.Hour), now)
	s.Status = status
	return s
}
