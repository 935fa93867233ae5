package port

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
)

// EventConsumer is an interface to define an event consumer (nats, sqs, ...)
type EventConsumer interface {
	Subscribe(ctx context.Context, handler MessageService) error
	Close() error
}

// MessageService is an interface to define message handling.
// Returning an error asks the broker to redeliver the message.
type MessageService interface {
	HandleMessage(ctx context.Context, data []byte) error
}

// EventPublisher is an interface to publish upload events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event domain.UploadEvent) error
}
