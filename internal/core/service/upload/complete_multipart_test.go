package upload_test

import (
	"fmt"
	"testing"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUploadService_CompleteMultipart_Success(t *testing.T) {
	// Arrange
	f := newFixture()
	session := newSession(domain.UploadTypeMultipart, domain.UploadSessionStatusUploading)
	multipart := newMultipart(t, session, 10)
	expected := &port.CompletionResult{SessionID: session.ID, FileAssetID: uuid.New(), Status: domain.UploadSessionStatusCompleted}

	f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)
	f.uow.GetMultipartRepoMock().On("FindBySessionID", f.ctx, session.ID).Return(multipart, nil)
	f.storage.On("CompleteMultipartUpload", f.ctx, session.StorageKey, "upload-1", multipart.UploadedParts()).Return(&domain.CompletedObject{ETag: `"final-10"`}, nil)
	f.completion.On("Complete", f.ctx, port.CompletionRequest{SessionID: session.ID, ETag: `"final-10"`, Source: port.CompletionSourceMultipartComplete}).Return(expected, nil)

	// Act
	result, err := f.service.CompleteMultipart(f.ctx, tenant, session.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, expected, result)
	f.storage.AssertExpectations(t)
	f.completion.AssertExpectations(t)
}

func TestUploadService_CompleteMultipart_MissingParts(t *testing.T) {
	// Arrange
	f := newFixture()
	session := newSession(domain.UploadTypeMultipart, domain.UploadSessionStatusUploading)

	f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)
	f.uow.GetMultipartRepoMock().On("FindBySessionID", f.ctx, session.ID).Return(newMultipart(t, session, 9), nil)

	// Act
	_, err := f.service.CompleteMultipart(f.ctx, tenant, session.ID)

	// Assert
	assert.ErrorIs(t, err, domain.ErrCannotComplete)
	f.storage.AssertNotCalled(t, "CompleteMultipartUpload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestUploadService_CompleteMultipart_AlreadyAssembled(t *testing.T) {
	// Arrange
	f := newFixture()
	session := newSession(domain.UploadTypeMultipart, domain.UploadSessionStatusUploading)
	multipart := newMultipart(t, session, 10)
	expected := &port.CompletionResult{SessionID: session.ID, Status: domain.UploadSessionStatusCompleted}

	f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)
	f.uow.GetMultipartRepoMock().On("FindBySessionID", f.ctx, session.ID).Return(multipart, nil)
	f.storage.On("CompleteMultipartUpload", f.ctx, session.StorageKey, "upload-1", mock.Anything).
		Return((*domain.CompletedObject)(nil), fmt.Errorf("failed to complete multipart upload: %w", domain.ErrMultipartNotFound))
	f.completion.On("Complete", f.ctx, port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceMultipartComplete}).Return(expected, nil)

	// Act
	result, err := f.service.CompleteMultipart(f.ctx, tenant, session.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestUploadService_CompleteMultipart_CompletedSession(t *testing.T) {
	// Arrange
	f := newFixture()
	session := newSession(domain.UploadTypeMultipart, domain.UploadSessionStatusCompleted)
	expected := &port.CompletionResult{SessionID: session.ID, Status: domain.UploadSessionStatusCompleted, AlreadyCompleted: true}

	f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)
	f.completion.On("Complete", f.ctx, port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceMultipartComplete}).Return(expected, nil)

	// Act
	result, err := f.service.CompleteMultipart(f.ctx, tenant, session.ID)

	// Assert
	require.NoError(t, err)
	assert.True(t, result.AlreadyCompleted)
	f.storage.AssertNotCalled(t, "CompleteMultipartUpload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
