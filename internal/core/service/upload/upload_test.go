package upload_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/eventbroker"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/repository"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/storage"
	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/completion"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/progress"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/ratelimit"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/upload"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	mib    = int64(1024 * 1024)
	tenant = "tenant-1"
)

var defaultCfg = config.UploadConfig{
	MultipartThreshold:         100 * mib,
	MaxFileSize:                domain.MaxParts * domain.TargetPartSize,
	SessionTTL:                 15 * time.Minute,
	MaxActiveSessionsPerTenant: 10,
}

type fixture struct {
	ctx        context.Context
	uow        *repository.MockUnitOfWork
	storage    *storage.MockStorage
	limiter    *ratelimit.MockRateLimiter
	tracker    *progress.MockTracker
	completion *completion.MockCompletionService
	publisher  *eventbroker.MockPublisher
	service    port.UploadService
}

func newFixture() *fixture {
	f := &fixture{
		ctx:        context.Background(),
		uow:        repository.NewMockUnitOfWork(),
		storage:    storage.NewMockStorage(),
		limiter:    ratelimit.NewMockRateLimiter(),
		tracker:    progress.NewMockTracker(),
		completion: completion.NewMockCompletionService(),
		publisher:  eventbroker.NewMockPublisher(),
	}
	f.service = upload.NewUploadService(f.uow, f.storage, f.limiter, f.tracker, f.completion, f.publisher, defaultCfg, slog.Default())
	return f
}

func newSession(uploadType domain.UploadType, status domain.UploadSessionStatus) *domain.UploadSession {
	now := time.Now()
	id := uuid.New()
	size := 1 * mib
	if uploadType == domain.UploadTypeMultipart {
		size = 100 * mib
	}
	s := domain.NewUploadSession(id, tenant, "user-1", "clip.mp4", size, "video/mp4", nil, "uploads/tenant-1/0a/"+id.String(), uploadType, now.Add(time.Hour), now)
	s.Status = status
	return s
}

func newMultipart(t *testing.T, session *domain.UploadSession, uploaded int) *domain.MultipartUpload {
	t.Helper()
	plan, err := domain.PlanParts(session.FileSizeBytes)
	require.NoError(t, err)
	m := domain.NewMultipartUpload(session.ID, "upload-1", plan, time.Now())
	for n := 1; n <= uploaded; n++ {
		m.AddPart(domain.UploadedPart{PartNumber: n, ETag: "etag", SizeBytes: plan[n-1].SizeBytes})
	}
	return m
}

func testGrant() *domain.PresignedGrant {
	return &domain.PresignedGrant{URL: "https://storage.local/put", Method: "PUT", ExpiresAt: time.Now().Add(15 * time.Minute)}
}
