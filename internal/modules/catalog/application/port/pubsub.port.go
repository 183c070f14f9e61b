package port

import (
	"context"

	"lmsWs/internal/modules/catalog/domain"
)

// Broadcaster sends messages to websocket clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}

// TopicHandler handles the messages of one kafka topic.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *domain.Message) error
}
