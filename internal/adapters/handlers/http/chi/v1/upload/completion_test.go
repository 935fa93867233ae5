package upload_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	uploadv1 "github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi/v1/upload"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/upload"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCompleteMultipartV1(t *testing.T) {
	t.Run("nominal", func(t *testing.T) {
		//Arrange
		sessionID := uuid.New()
		result := &port.CompletionResult{
			SessionID:   sessionID,
			FileAssetID: uuid.New(),
			Status:      domain.UploadSessionStatusCompleted,
			ETag:        "abc-20",
		}
		mockService := upload.NewMockUploadService()
		mockService.On("CompleteMultipart", mock.Anything, tenantID, sessionID).Return(result, nil)
		h := newRouter(mockService)

		//Act
		w := do(t, h, http.MethodPost, fmt.Sprintf("/api/v1/upload/sessions/%s/complete", sessionID), nil)

		//Assert
		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
		var response uploadv1.V1CompletionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, result.FileAssetID, response.FileAssetID)
		assert.Equal(t, "COMPLETED", response.Status)
		assert.False(t, response.AlreadyCompleted)
	})

	t.Run("error - parts missing", func(t *testing.T) {
		// Arrange
		sessionID := uuid.New()
		mockService := upload.NewMockUploadService()
		mockService.On("CompleteMultipart", mock.Anything, tenantID, sessionID).
			Return((*port.CompletionResult)(nil), domain.ErrCannotComplete)
		h := newRouter(mockService)

		// Act
		w := do(t, h, http.MethodPost, fmt.Sprintf("/api/v1/upload/sessions/%s/complete", sessionID), nil)

		// Assert
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("error - size mismatch", func(t *testing.T) {
		// Arrange
		sessionID := uuid.New()
		mockService := upload.NewMockUploadService()
		mockService.On("CompleteMultipart", mock.Anything, tenantID, sessionID).
			Return((*port.CompletionResult)(nil), fmt.Errorf("verify: %w", domain.ErrSizeMismatch))
		h := newRouter(mockService)

		// Act
		w := do(t, h, http.MethodPost, fmt.Sprintf("/api/v1/upload/sessions/%s/complete", sessionID), nil)

		// Assert
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestConfirmUploadV1(t *testing.T) {
	t.Run("with etag", func(t *testing.T) {
		//Arrange
		sessionID := uuid.New()
		mockService := upload.NewMockUploadService()
		mockService.On("ConfirmUpload", mock.Anything, tenantID, sessionID, `"abc"`).
			Return(&port.CompletionResult{SessionID: sessionID, Status: domain.UploadSessionStatusCompleted, AlreadyCompleted: true}, nil)
		h := newRouter(mockService)

		//Act
		w := do(t, h, http.MethodPost, fmt.Sprintf("/api/v1/upload/sessions/%s/confirm", sessionID), uploadv1.V1ConfirmUploadRequest{ETag: `"abc"`})

		//Assert
		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
		var response uploadv1.V1CompletionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.AlreadyCompleted)
	})

	t.Run("empty body", func(t *testing.T) {
		//Arrange
		sessionID := uuid.New()
		mockService := upload.NewMockUploadService()
		mockService.On("ConfirmUpload", mock.Anything, tenantID, sessionID, "").
			Return(&port.CompletionResult{SessionID: sessionID, Status: domain.UploadSessionStatusCompleted}, nil)
		h := newRouter(mockService)

		//Act
		w := do(t, h, http.MethodPost, fmt.Sprintf("/api/v1/upload/sessions/%s/confirm", sessionID), nil)

		//Assert
		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("error - object not uploaded yet", func(t *testing.T) {
		// Arrange
		sessionID := uuid.New()
		mockService := upload.NewMockUploadService()
		mockService.On("ConfirmUpload", mock.Anything, tenantID, sessionID, "").
			Return((*port.CompletionResult)(nil), domain.ErrFileNotFoundInStorage)
		h := newRouter(mockService)

		// Act
		w := do(t, h, http.MethodPost, fmt.Sprintf("/api/v1/upload/sessions/%s/confirm", sessionID), nil)

		// Assert
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("error - checksum mismatch", func(t *testing.T) {
		// Arrange
		sessionID := uuid.New()
		mockService := upload.NewMockUploadService()
		mockService.On("ConfirmUpload", mock.Anything, tenantID, sessionID, "").
			Return((*port.CompletionResult)(nil), domain.ErrChecksumMismatch)
		h := newRouter(mockService)

		// Act
		w := do(t, h, http.MethodPost, fmt.Sprintf("/api/v1/upload/sessions/%s/confirm", sessionID), nil)

		// Assert
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
