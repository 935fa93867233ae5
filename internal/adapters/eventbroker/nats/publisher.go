package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/nats-io/nats.go"
)

// Publisher publishes upload events as JSON on <prefix>.<event type>
type Publisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

var _ port.EventPublisher = (*Publisher)(nil)

// NewPublisher connects a publisher
func NewPublisher(cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	conn, err := connect(cfg, cfg.EventsSubjectPrefix+"-publisher", logger)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, prefix: cfg.EventsSubjectPrefix, logger: logger}, nil
}

// Subject returns the subject an event type is published on
func Subject(prefix string, eventType domain.UploadEventType) string {
	return prefix + "." + string(eventType)
}

func (p *Publisher) Publish(ctx context.Context, event domain.UploadEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := Subject(p.prefix, event.Type)
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(nats.MsgIdHdr, event.SessionID.String()+"."+string(event.Type))

	if err := p.conn.PublishMsg(msg); err != nil {
		return domain.NewDependencyError("publish "+subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return domain.NewDependencyError("flush "+subject, err)
	}

	p.logger.Debug("upload event published", "subject", subject, "session_id", event.SessionID)
	return nil
}

// Close drains pending messages and closes the connection
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
