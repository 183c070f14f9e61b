package handler

import (
	"context"
	"log/slog"
	"strings"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/shared/normalization"
)

// Invalidator drops cached pages of an entity and refreshes its open lists.
type Invalidator interface {
	Invalidate(ctx context.Context, entity string)
}

// EntityStreamHandler forwards the change events of one kafka topic to websocket clients
// and refreshes the lists that may now be stale. Actions outside allowedActions are
// dropped.
type EntityStreamHandler struct {
	entity         string
	kafkaTopic     string
	allowedActions map[string]struct{}
	broadcaster    port.Broadcaster
	invalidator    Invalidator
}

func NewEntityStreamHandler(entity, kafkaTopic string, allowedActions []string, broadcaster port.Broadcaster, invalidator Invalidator) *EntityStreamHandler {
	actionSet := make(map[string]struct{}, len(allowedActions))
	for _, a := range allowedActions {
		if v := strings.TrimSpace(strings.ToLower(a)); v != "" {
			actionSet[v] = struct{}{}
		}
	}
	return &EntityStreamHandler{
		entity:         normalization.NormalizeEntity(entity),
		kafkaTopic:     strings.TrimSpace(kafkaTopic),
		allowedActions: actionSet,
		broadcaster:    broadcaster,
		invalidator:    invalidator,
	}
}

func (h *EntityStreamHandler) Topic() string { return h.kafkaTopic }

func (h *EntityStreamHandler) Handle(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	if len(h.allowedActions) > 0 {
		if _, ok := h.allowedActions[strings.ToLower(msg.Action)]; !ok {
			slog.Debug("entity-stream action skipped", slog.String("topic", h.kafkaTopic), slog.String("action", msg.Action))
			return nil
		}
	}
	entityName := h.entity
	if entityName == "" {
		entityName = normalization.NormalizeEntity(msg.Entity)
	}
	if entityName == "" {
		return nil
	}
	msg.Entity = entityName
	msg.Topic = domain.CustomTopic(entityName, msg.Action)

	if h.invalidator != nil {
		slog.Info("entity-stream refresh", slog.String("entity", entityName), slog.String("action", msg.Action), slog.String("resourceId", msg.ResourceID))
		h.invalidator.Invalidate(ctx, entityName)
	}
	if h.broadcaster != nil {
		h.broadcaster.Broadcast(ctx, msg)
	}
	return nil
}

var _ port.TopicHandler = (*EntityStreamHandler)(nil)
