package nats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedIterator replays steps: a nil step yields a message, any other step is returned as error.
// Once the steps run out the iterator reports itself closed.
type scriptedIterator struct {
	mu    sync.Mutex
	steps []error
	loop  error
}

func (s *scriptedIterator) Next() (jetstream.Msg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		if s.loop != nil {
			return nil, s.loop
		}
		return nil, jetstream.ErrMsgIteratorClosed
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	if step != nil {
		return nil, step
	}
	return stubMsg{data: []byte("object-created")}, nil
}

func (s *scriptedIterator) Stop()  {}
func (s *scriptedIterator) Drain() {}

type stubMsg struct {
	jetstream.Msg
	data []byte
}

func (m stubMsg) Data() []byte { return m.data }

func newTestConsumer() *Consumer {
	return &Consumer{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		retryPause: time.Millisecond,
	}
}

func collect(t *testing.T, jobs <-chan jetstream.Msg) []jetstream.Msg {
	t.Helper()
	var received []jetstream.Msg
	timeout := time.After(3 * time.Second)
	for {
		select {
		case msg, ok := <-jobs:
			if !ok {
				return received
			}
			received = append(received, msg)
		case <-timeout:
			t.Fatal("fetch did not stop")
		}
	}
}

func TestConsumer_Fetch(t *testing.T) {
	t.Run("keeps fetching after transient errors", func(t *testing.T) {
		// Arrange
		consumer := newTestConsumer()
		iter := &scriptedIterator{steps: []error{nil, jetstream.ErrNoHeartbeat, errors.New("connection reset"), nil}}
		jobs := make(chan jetstream.Msg, 4)

		// Act
		go consumer.fetch(context.Background(), iter, jobs)
		received := collect(t, jobs)

		// Assert
		require.Len(t, received, 2)
		assert.Equal(t, []byte("object-created"), received[1].Data())
	})

	t.Run("stops when the iterator is closed", func(t *testing.T) {
		// Arrange
		consumer := newTestConsumer()
		iter := &scriptedIterator{}
		jobs := make(chan jetstream.Msg, 1)

		// Act
		go consumer.fetch(context.Background(), iter, jobs)
		received := collect(t, jobs)

		// Assert
		assert.Empty(t, received)
	})

	t.Run("stops when the context ends while retrying", func(t *testing.T) {
		// Arrange
		consumer := newTestConsumer()
		consumer.retryPause = time.Hour
		iter := &scriptedIterator{loop: jetstream.ErrNoHeartbeat}
		jobs := make(chan jetstream.Msg, 1)
		ctx, cancel := context.WithCancel(context.Background())

		// Act
		go consumer.fetch(ctx, iter, jobs)
		time.Sleep(20 * time.Millisecond)
		cancel()
		received := collect(t, jobs)

		// Assert
		assert.Empty(t, received)
	})
}

func TestRedeliveryDelay(t *testing.T) {
	cases := map[uint64]time.Duration{
		1:  100 * time.Millisecond,
		2:  200 * time.Millisecond,
		4:  800 * time.Millisecond,
		9:  25600 * time.Millisecond,
		10: maxRedeliveryDelay,
		50: maxRedeliveryDelay,
	}

	for delivered, want := range cases {
		assert.Equal(t, want, redeliveryDelay(delivered), "delivery %d", delivered)
	}
}
