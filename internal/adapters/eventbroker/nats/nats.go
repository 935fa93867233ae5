package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Consumer reads storage notifications from a JetStream stream and hands them to a pool of workers
type Consumer struct {
	logger  *slog.Logger
	conn    *nats.Conn
	js      jetstream.JetStream
	config  config.NATSConfig
	workers int
	iter    jetstream.MessagesContext
	stop    func() bool
	wg      sync.WaitGroup

	// retryPause separates fetch attempts after an iterator error
	retryPause time.Duration
}

func connect(cfg config.NATSConfig, name string, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// NewNATSConsumer creates a new consumer handling up to workers messages at once
func NewNATSConsumer(cfg config.NATSConfig, workers int, logger *slog.Logger) (*Consumer, error) {
	if workers < 1 {
		workers = 1
	}

	conn, err := connect(cfg, cfg.ConsumerName, logger)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}

	return &Consumer{
		conn:       conn,
		js:         js,
		config:     cfg,
		workers:    workers,
		retryPause: time.Second,
		logger:     logger,
	}, nil
}

// Subscribe subscribes to stream and handles messages.
// A message is acked when handler succeeds and nacked for redelivery otherwise.
// Redelivery pacing comes from the delayed nak; AckWait only bounds a single handling.
func (n *Consumer) Subscribe(ctx context.Context, handler port.MessageService) error {
	consumerCfg := jetstream.ConsumerConfig{
		Durable:       n.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: n.config.Subject,
		AckWait:       30 * time.Second,
		MaxDeliver:    maxDeliver,
		MaxAckPending: n.workers * 4,
	}

	cons, err := n.js.CreateOrUpdateConsumer(ctx, n.config.StreamName, consumerCfg)
	if err != nil {
		return err
	}

	iter, err := cons.Messages()
	if err != nil {
		return err
	}
	n.iter = iter
	n.stop = context.AfterFunc(ctx, iter.Stop)

	jobs := make(chan jetstream.Msg)
	for i := 0; i < n.workers; i++ {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			for msg := range jobs {
				n.handle(ctx, handler, msg)
			}
		}()
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.logger.Info("NATS subscription started", "stream", n.config.StreamName, "workers", n.workers)
		n.fetch(ctx, iter, jobs)
	}()
	return nil
}

// fetch feeds jobs until the iterator is closed or ctx is done.
// Other iterator errors, such as missed heartbeats, are transient.
func (n *Consumer) fetch(ctx context.Context, iter jetstream.MessagesContext, jobs chan<- jetstream.Msg) {
	defer close(jobs)
	for {
		msg, err := iter.Next()
		if err == nil {
			jobs <- msg
			continue
		}
		if ctx.Err() != nil || errors.Is(err, jetstream.ErrMsgIteratorClosed) {
			n.logger.Info("NATS subscription stopped")
			return
		}

		n.logger.Warn("failed to receive message, retrying", "error", err, "retry_in", n.retryPause)
		select {
		case <-ctx.Done():
			n.logger.Info("NATS subscription stopped")
			return
		case <-time.After(n.retryPause):
		}
	}
}

func (n *Consumer) handle(ctx context.Context, handler port.MessageService, msg jetstream.Msg) {
	handleErr := handler.HandleMessage(ctx, msg.Data())
	if handleErr == nil {
		if err := msg.Ack(); err != nil {
			n.logger.Error("failed to ack message", "error", err)
		}
		return
	}

	var delivered uint64 = 1
	if meta, err := msg.Metadata(); err == nil {
		delivered = meta.NumDelivered
	}
	delay := redeliveryDelay(delivered)
	n.logger.Warn("failed to handle message",
		"error", handleErr,
		"subject", msg.Subject(),
		"delivered", delivered,
		"retry_in", delay)
	if err := msg.NakWithDelay(delay); err != nil {
		n.logger.Error("failed to nak message", "error", err)
	}
}

const (
	maxDeliver         = 10
	maxRedeliveryDelay = 30 * time.Second
)

// redeliveryDelay doubles from 100ms with every delivery, up to maxRedeliveryDelay
func redeliveryDelay(delivered uint64) time.Duration {
	delay := 100 * time.Millisecond
	for i := uint64(1); i < delivered && delay < maxRedeliveryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRedeliveryDelay)
}

// Close graceful shutdown. In flight messages are finished first.
func (n *Consumer) Close() error {
	if n.stop != nil {
		n.stop()
	}
	if n.iter != nil {
		n.iter.Stop()
	}

	n.wg.Wait()

	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
