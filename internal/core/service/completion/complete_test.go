package completion_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/eventbroker"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/repository"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/storage"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/completion"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/progress"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx       context.Context
	uow       *repository.MockUnitOfWork
	storage   *storage.MockStorage
	tracker   *progress.MockTracker
	publisher *eventbroker.MockPublisher
	service   port.CompletionService
}

func newFixture() *fixture {
	f := &fixture{
		ctx:       context.Background(),
		uow:       repository.NewMockUnitOfWork(),
		storage:   storage.NewMockStorage(),
		tracker:   progress.NewMockTracker(),
		publisher: eventbroker.NewMockPublisher(),
	}
	f.service = completion.NewCompletionService(f.uow, f.storage, f.tracker, f.publisher, slog.Default())
	return f
}

func newSession(uploadType domain.UploadType, status domain.UploadSessionStatus) *domain.UploadSession {
	now := time.Now()
	id := uuid.New()
	s := domain.NewUploadSession(id, "tenant-1", "user-1", "photo.png", 1024, "image/png", nil, "uploads/tenant-1/0a/"+id.String(), uploadType, now.Add(time.Hour), now)
	s.Status = status
	return s
}

func storedObject(session *domain.UploadSession) *domain.ObjectMetadata {
	return &domain.ObjectMetadata{Key: session.StorageKey, ETag: `"ABC123"`, ContentLength: session.FileSizeBytes, ContentType: session.ContentType}
}

// multipartOf plans two halves of the session and records the first uploaded of them
func multipartOf(session *domain.UploadSession, uploaded int) *domain.MultipartUpload {
	half := session.FileSizeBytes / 2
	plan := []domain.PartSpec{
		{PartNumber: 1, StartByte: 0, EndByte: half - 1, SizeBytes: half},
		{PartNumber: 2, StartByte: half, EndByte: session.FileSizeBytes - 1, SizeBytes: session.FileSizeBytes - half},
	}
	multipart := domain.NewMultipartUpload(session.ID, "provider-upload-1", plan, time.Now())
	for _, part := range plan[:uploaded] {
		multipart.AddPart(domain.UploadedPart{PartNumber: part.PartNumber, ETag: "etag", SizeBytes: part.SizeBytes})
	}
	return multipart
}

func eventOfType(eventType domain.UploadEventType) interface{} {
	return mock.MatchedBy(func(e domain.UploadEvent) bool { return e.Type == eventType })
}

func TestCompletionService_Complete_ClientConfirm(t *testing.T) {
	// Arrange
	f := newFixture()
	session := newSession(domain.UploadTypeSingle, domain.UploadSessionStatusPending)
	sessionRepo := f.uow.GetUploadSessionRepoMock()
	assetRepo := f.uow.GetFileAssetRepoMock()

	sessionRepo.On("FindByID", f.ctx, session.ID).Return(session, nil)
	f.storage.On("HeadObject", f.ctx, session.StorageKey).Return(storedObject(session), nil)
	f.uow.On("Execute", f.ctx, mock.Anything).Return(nil)
	assetRepo.On("Create", f.ctx, mock.MatchedBy(func(a domain.FileAsset) bool {
		return a.SessionID == session.ID && a.ETag == "abc123" && a.SizeBytes == 1024
	})).Return(nil)
	sessionRepo.On("Update", f.ctx, session).Return(nil)
	f.tracker.On("Clear", f.ctx, session.ID).Return()
	f.publisher.On("Publish", f.ctx, eventOfType(domain.UploadEventCompleted)).Return(nil)

	// Act
	result, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, ETag: "abc123", Source: port.CompletionSourceClientConfirm})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.UploadSessionStatusCompleted, result.Status)
	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, "abc123", result.ETag)
	assert.Equal(t, *session.FileAssetID, result.FileAssetID)
	sessionRepo.AssertExpectations(t)
	assetRepo.AssertExpectations(t)
	f.tracker.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCompletionService_Complete_IsIdempotentAcrossPaths(t *testing.T) {
	// Arrange
	f := newFixture()
	session := newSession(domain.UploadTypeMultipart, domain.UploadSessionStatusUploading)
	sessionRepo := f.uow.GetUploadSessionRepoMock()
	assetRepo := f.uow.GetFileAssetRepoMock()
	multipartRepo := f.uow.GetMultipartRepoMock()

	var created domain.FileAsset
	sessionRepo.On("FindByID", f.ctx, session.ID).Return(session, nil)
	f.storage.On("HeadObject", f.ctx, session.StorageKey).Return(storedObject(session), nil)
	f.uow.On("Execute", f.ctx, mock.Anything).Return(nil)
	assetRepo.On("Create", f.ctx, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(domain.FileAsset)
	}).Return(nil)
	multipart := multipartOf(session, 2)
	multipartRepo.On("FindBySessionID", f.ctx, session.ID).Return(multipart, nil).Once()
	multipartRepo.On("UpdateStatus", f.ctx, session.ID, domain.MultipartStatusCompleted).Return(nil)
	sessionRepo.On("Update", f.ctx, session).Return(nil)
	f.tracker.On("Clear", f.ctx, session.ID).Return()
	f.publisher.On("Publish", f.ctx, mock.Anything).Return(nil)
	assetRepo.On("FindBySessionID", f.ctx, session.ID).Return(&created, nil)

	// Act
	first, firstErr := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, ETag: "abc123", Source: port.CompletionSourceMultipartComplete})
	second, secondErr := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceStorageEvent})

	// Assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.False(t, first.AlreadyCompleted)
	assert.True(t, second.AlreadyCompleted)
	assert.Equal(t, first.FileAssetID, second.FileAssetID)
	assetRepo.AssertNumberOfCalls(t, "Create", 1)
	f.storage.AssertNumberOfCalls(t, "HeadObject", 1)
	f.publisher.AssertNumberOfCalls(t, "Publish", 1)
	multipartRepo.AssertExpectations(t)
	assert.Equal(t, domain.MultipartStatusCompleted, multipart.Status)
}

func TestCompletionService_Complete_MultipartMissingParts(t *testing.T) {
	sources := []port.CompletionSource{port.CompletionSourceStorageEvent, port.CompletionSourceMultipartComplete}

	for _, source := range sources {
		t.Run(string(source), func(t *testing.T) {
			// Arrange
			f := newFixture()
			session := newSession(domain.UploadTypeMultipart, domain.UploadSessionStatusUploading)
			f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)
			f.uow.GetMultipartRepoMock().On("FindBySessionID", f.ctx, session.ID).Return(multipartOf(session, 1), nil)

			// Act
			result, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, Source: source})

			// Assert
			assert.Nil(t, result)
			require.ErrorIs(t, err, domain.ErrCannotComplete)
			assert.False(t, domain.IsRetryable(err))
			assert.Equal(t, domain.UploadSessionStatusUploading, session.Status)
			f.storage.AssertNotCalled(t, "HeadObject", mock.Anything, mock.Anything)
			f.uow.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
			f.uow.GetMultipartRepoMock().AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCompletionService_Complete_AlreadyCompleted(t *testing.T) {
	// Arrange
	f := newFixture()
	session := newSession(domain.UploadTypeSingle, domain.UploadSessionStatusCompleted)
	assetID := uuid.New()
	session.FileAssetID = &assetID
	asset := &domain.FileAsset{ID: assetID, SessionID: session.ID, ETag: "abc123"}

	f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)
	f.uow.GetFileAssetRepoMock().On("FindBySessionID", f.ctx, session.ID).Return(asset, nil)

	// Act
	result, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceClientConfirm})

	// Assert
	require.NoError(t, err)
	assert.True(t, result.AlreadyCompleted)
	assert.Equal(t, assetID, result.FileAssetID)
	f.storage.AssertNotCalled(t, "HeadObject", mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestCompletionService_Complete_LostRace(t *testing.T) {
	losers := map[string]func(f *fixture){
		"version conflict": func(f *fixture) {
			f.uow.GetFileAssetRepoMock().On("Create", f.ctx, mock.Anything).Return(nil)
			f.uow.GetUploadSessionRepoMock().On("Update", f.ctx, mock.Anything).Return(domain.ErrConcurrentUpdate)
		},
		"duplicate file record": func(f *fixture) {
			f.uow.GetFileAssetRepoMock().On("Create", f.ctx, mock.Anything).Return(domain.ErrAlreadyExists)
		},
	}

	for name, lose := range losers {
		t.Run(name, func(t *testing.T) {
			// Arrange
			f := newFixture()
			session := newSession(domain.UploadTypeSingle, domain.UploadSessionStatusPending)
			winner := *session
			winnerAssetID := uuid.New()
			winner.Status = domain.UploadSessionStatusCompleted
			winner.FileAssetID = &winnerAssetID
			sessionRepo := f.uow.GetUploadSessionRepoMock()

			sessionRepo.On("FindByID", f.ctx, session.ID).Return(session, nil).Once()
			sessionRepo.On("FindByID", f.ctx, session.ID).Return(&winner, nil).Once()
			f.storage.On("HeadObject", f.ctx, session.StorageKey).Return(storedObject(session), nil)
			f.uow.On("Execute", f.ctx, mock.Anything).Return(nil)
			lose(f)
			f.uow.GetFileAssetRepoMock().On("FindBySessionID", f.ctx, session.ID).Return(&domain.FileAsset{ID: winnerAssetID, ETag: "abc123"}, nil)

			// Act
			result, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceStorageEvent})

			// Assert
			require.NoError(t, err)
			assert.True(t, result.AlreadyCompleted)
			assert.Equal(t, winnerAssetID, result.FileAssetID)
			f.tracker.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
			f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestCompletionService_Complete_IntegrityFailuresKeepState(t *testing.T) {
	sha := &domain.Checksum{Algorithm: domain.ChecksumSHA256, Value: "declared=="}

	cases := []struct {
		name     string
		etag     string
		checksum *domain.Checksum
		object   func(s *domain.UploadSession) *domain.ObjectMetadata
		wantErr  error
	}{
		{
			name:    "etag mismatch",
			etag:    "other",
			object:  storedObject,
			wantErr: domain.ErrChecksumMismatch,
		},
		{
			name: "size mismatch",
			object: func(s *domain.UploadSession) *domain.ObjectMetadata {
				o := storedObject(s)
				o.ContentLength = s.FileSizeBytes - 1
				return o
			},
			wantErr: domain.ErrSizeMismatch,
		},
		{
			name:     "checksum metadata missing",
			checksum: sha,
			object:   storedObject,
			wantErr:  domain.ErrChecksumMetadataMissing,
		},
		{
			name:     "checksum value mismatch",
			checksum: sha,
			object: func(s *domain.UploadSession) *domain.ObjectMetadata {
				o := storedObject(s)
				o.Checksum = &domain.Checksum{Algorithm: domain.ChecksumSHA256, Value: "stored=="}
				return o
			},
			wantErr: domain.ErrChecksumMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			f := newFixture()
			session := newSession(domain.UploadTypeSingle, domain.UploadSessionStatusPending)
			session.Checksum = tc.checksum

			f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)
			f.storage.On("HeadObject", f.ctx, session.StorageKey).Return(tc.object(session), nil)

			// Act
			_, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, ETag: tc.etag, Source: port.CompletionSourceClientConfirm})

			// Assert
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, domain.KindIntegrity, domain.KindOf(err))
			assert.Equal(t, domain.UploadSessionStatusPending, session.Status)
			f.uow.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
		})
	}
}

func TestCompletionService_Complete_RejectedStates(t *testing.T) {
	t.Run("client confirm on uploading session", func(t *testing.T) {
		f := newFixture()
		session := newSession(domain.UploadTypeMultipart, domain.UploadSessionStatusUploading)
		f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)

		_, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceClientConfirm})

		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
		f.storage.AssertNotCalled(t, "HeadObject", mock.Anything, mock.Anything)
	})

	t.Run("cancelled session", func(t *testing.T) {
		f := newFixture()
		session := newSession(domain.UploadTypeSingle, domain.UploadSessionStatusCancelled)
		f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)

		_, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceStorageEvent})

		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
		assert.False(t, domain.IsRetryable(err))
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, id).Return((*domain.UploadSession)(nil), domain.ErrSessionNotFound)

		_, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: id, Source: port.CompletionSourceStorageEvent})

		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("object absent from storage", func(t *testing.T) {
		f := newFixture()
		session := newSession(domain.UploadTypeSingle, domain.UploadSessionStatusPending)
		f.uow.GetUploadSessionRepoMock().On("FindByID", f.ctx, session.ID).Return(session, nil)
		f.storage.On("HeadObject", f.ctx, session.StorageKey).Return((*domain.ObjectMetadata)(nil), domain.ErrFileNotFoundInStorage)

		_, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceClientConfirm})

		assert.ErrorIs(t, err, domain.ErrFileNotFoundInStorage)
		assert.Equal(t, domain.UploadSessionStatusPending, session.Status)
	})
}

func TestCompletionService_Complete_CommitFailureIsCompensated(t *testing.T) {
	// Arrange
	f := newFixture()
	session := newSession(domain.UploadTypeSingle, domain.UploadSessionStatusPending)
	reloaded := *session
	sessionRepo := f.uow.GetUploadSessionRepoMock()
	dbErr := errors.New("connection reset")

	sessionRepo.On("FindByID", f.ctx, session.ID).Return(session, nil).Once()
	f.storage.On("HeadObject", f.ctx, session.StorageKey).Return(storedObject(session), nil)
	f.uow.On("Execute", f.ctx, mock.Anything).Return(nil)
	f.uow.GetFileAssetRepoMock().On("Create", f.ctx, mock.Anything).Return(nil)
	sessionRepo.On("Update", f.ctx, mock.Anything).Return(dbErr).Once()
	sessionRepo.On("FindByID", f.ctx, session.ID).Return(&reloaded, nil).Once()
	sessionRepo.On("Update", f.ctx, mock.Anything).Return(nil).Once()
	f.tracker.On("Clear", f.ctx, session.ID).Return()
	f.publisher.On("Publish", f.ctx, eventOfType(domain.UploadEventFailed)).Return(nil)

	// Act
	_, err := f.service.Complete(f.ctx, port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceClientConfirm})

	// Assert
	assert.Equal(t, dbErr, err)
	assert.Equal(t, domain.UploadSessionStatusFailed, reloaded.Status)
	assert.NotEmpty(t, reloaded.FailureReason)
	sessionRepo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}
