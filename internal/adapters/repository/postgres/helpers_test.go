package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/bootstrap"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const mib = int64(1024 * 1024)

// newTestDB starts postgres in a container with the schema applied.
// The returned func empties every upload table.
func newTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "fileflow",
				"POSTGRES_PASSWORD": "fileflow",
				"POSTGRES_DB":       "fileflow",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "could not start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://fileflow:fileflow@%s:%s/fileflow?sslmode=disable", host, mapped.Port())

	// the package directory is four levels below the module root
	source, err := filepath.Abs(filepath.Join("..", "..", "..", "..", "db", "migrations"))
	require.NoError(t, err)

	// the migrator owns and closes its own pool
	migrationDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := bootstrap.NewMigrator(migrationDB, source)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("failed to run up migrations: %v", err)
	}
	m.Close()

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	truncate := func() {
		_, err := db.Exec(`TRUNCATE TABLE file_asset, multipart_part, multipart_upload, upload_session CASCADE`)
		require.NoError(t, err, "failed to truncate upload tables")
	}
	return db, truncate
}

func newSession(tenantID string, size int64, uploadType domain.UploadType, expiresAt time.Time) *domain.UploadSession {
	id := uuid.New()
	now := time.Now().Round(time.Microsecond)
	checksum := &domain.Checksum{Algorithm: domain.ChecksumSHA256, Value: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"}
	return domain.NewUploadSession(id, tenantID, "user-1", "video.mp4", size, "video/mp4", checksum, "uploads/"+tenantID+"/00/"+id.String(), uploadType, expiresAt.Round(time.Microsecond), now)
}

func createSession(t *testing.T, repo port.UploadSessionRepository, session *domain.UploadSession) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), session))
}
