package nats_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	natsbroker "github.com/ryu-qqq/FileFlow-sub002/internal/adapters/eventbroker/nats"
	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// recordingHandler keeps every payload it receives and signals each delivery
type recordingHandler struct {
	mu        sync.Mutex
	payloads  [][]byte
	delivered chan []byte
	err       error
}

func newRecordingHandler(buffer int, err error) *recordingHandler {
	return &recordingHandler{delivered: make(chan []byte, buffer), err: err}
}

func (h *recordingHandler) HandleMessage(_ context.Context, data []byte) error {
	h.mu.Lock()
	h.payloads = append(h.payloads, data)
	h.mu.Unlock()

	select {
	case h.delivered <- data:
	default:
	}
	return h.err
}

func (h *recordingHandler) await(t *testing.T, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for i := 0; i < n; i++ {
		select {
		case <-h.delivered:
		case <-deadline:
			t.Fatalf("got %d deliveries, want %d", i, n)
		}
	}
}

type gatedHandler struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedHandler) HandleMessage(context.Context, []byte) error {
	g.started <- struct{}{}
	<-g.release
	return nil
}

type testBroker struct {
	url string
	nc  *nats.Conn
	js  jetstream.JetStream
}

// startBroker runs a JetStream enabled nats-server for the whole test
func startBroker(t *testing.T) *testBroker {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			Cmd:          []string{"--jetstream"},
			WaitingFor:   wait.ForListeningPort("4222/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	url := fmt.Sprintf("nats://%s:%s", host, mapped.Port())
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	return &testBroker{url: url, nc: nc, js: js}
}

// consumer creates a dedicated stream and returns a consumer bound to it
func (b *testBroker) consumer(t *testing.T, name string, workers int) (*natsbroker.Consumer, string) {
	t.Helper()
	subject := "minio." + name
	_, err := b.js.CreateStream(context.Background(), jetstream.StreamConfig{
		Name:     "EVENTS_" + name,
		Subjects: []string{subject},
	})
	require.NoError(t, err)

	cfg := config.NATSConfig{
		URL:          b.url,
		StreamName:   "EVENTS_" + name,
		Subject:      subject,
		ConsumerName: name + "-worker",
	}
	consumer, err := natsbroker.NewNATSConsumer(cfg, workers, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return consumer, subject
}

func TestConsumer(t *testing.T) {
	broker := startBroker(t)
	ctx := context.Background()

	t.Run("hands notifications to the handler", func(t *testing.T) {
		// Arrange
		consumer, subject := broker.consumer(t, "delivery", 1)
		defer consumer.Close()
		handler := newRecordingHandler(1, nil)
		payload := []byte(`{"EventName":"s3:ObjectCreated:Put","Key":"uploads/tenant-1/0a/key","Records":[]}`)

		// Act
		require.NoError(t, consumer.Subscribe(ctx, handler))
		_, err := broker.js.Publish(ctx, subject, payload)
		require.NoError(t, err)

		// Assert
		handler.await(t, 1, 3*time.Second)
		handler.mu.Lock()
		defer handler.mu.Unlock()
		require.Len(t, handler.payloads, 1)
		assert.Equal(t, payload, handler.payloads[0])
	})

	t.Run("redelivers while the handler fails", func(t *testing.T) {
		// Arrange
		consumer, subject := broker.consumer(t, "redelivery", 1)
		defer consumer.Close()
		handler := newRecordingHandler(3, assert.AnError)

		// Act
		require.NoError(t, consumer.Subscribe(ctx, handler))
		_, err := broker.js.Publish(ctx, subject, []byte("not-json"))
		require.NoError(t, err)

		// Assert
		handler.await(t, 3, 5*time.Second)
	})

	t.Run("stops receiving after Close", func(t *testing.T) {
		// Arrange
		consumer, subject := broker.consumer(t, "shutdown", 1)
		handler := newRecordingHandler(1, nil)
		require.NoError(t, consumer.Subscribe(ctx, handler))

		// Act
		require.NoError(t, consumer.Close())
		_, err := broker.js.Publish(ctx, subject, []byte("late"))
		require.NoError(t, err)

		// Assert
		select {
		case <-handler.delivered:
			t.Fatal("message handled after Close")
		case <-time.After(500 * time.Millisecond):
		}
	})

	t.Run("stops receiving when the context ends", func(t *testing.T) {
		// Arrange
		consumer, subject := broker.consumer(t, "cancel", 1)
		defer consumer.Close()
		handler := newRecordingHandler(1, nil)
		subCtx, cancel := context.WithCancel(ctx)
		require.NoError(t, consumer.Subscribe(subCtx, handler))

		// Act
		cancel()
		time.Sleep(100 * time.Millisecond)
		_, err := broker.js.Publish(ctx, subject, []byte("late"))
		require.NoError(t, err)

		// Assert
		select {
		case <-handler.delivered:
			t.Fatal("message handled after cancellation")
		case <-time.After(500 * time.Millisecond):
		}
	})

	t.Run("runs one handler per worker", func(t *testing.T) {
		// Arrange
		const workers = 4
		consumer, subject := broker.consumer(t, "pool", workers)
		handler := &gatedHandler{started: make(chan struct{}, workers), release: make(chan struct{})}
		require.NoError(t, consumer.Subscribe(ctx, handler))

		// Act
		for i := 0; i < workers; i++ {
			_, err := broker.js.Publish(ctx, subject, []byte(fmt.Sprintf("object-%d", i)))
			require.NoError(t, err)
		}

		// Assert
		for i := 0; i < workers; i++ {
			select {
			case <-handler.started:
			case <-time.After(3 * time.Second):
				t.Fatalf("only %d of %d handlers ran concurrently", i, workers)
			}
		}
		close(handler.release)
		require.NoError(t, consumer.Close())
	})
}

func TestPublisher_Publish(t *testing.T) {
	// Arrange
	broker := startBroker(t)
	sub, err := broker.nc.SubscribeSync("fileflow.>")
	require.NoError(t, err)
	require.NoError(t, broker.nc.Flush())

	publisher, err := natsbroker.NewPublisher(config.NATSConfig{URL: broker.url, EventsSubjectPrefix: "fileflow"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer publisher.Close()

	event := domain.UploadEvent{
		Type:       domain.UploadEventCompleted,
		SessionID:  uuid.New(),
		TenantID:   "tenant-1",
		StorageKey: "uploads/tenant-1/00/key",
		OccurredAt: time.Now().UTC().Truncate(time.Second),
	}

	// Act
	err = publisher.Publish(context.Background(), event)

	// Assert
	require.NoError(t, err)
	msg, err := sub.NextMsg(3 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, natsbroker.Subject("fileflow", domain.UploadEventCompleted), msg.Subject)
	var received domain.UploadEvent
	require.NoError(t, json.Unmarshal(msg.Data, &received))
	assert.Equal(t, event.SessionID, received.SessionID)
	assert.Equal(t, event.Type, received.Type)
	assert.True(t, event.OccurredAt.Equal(received.OccurredAt))
}
