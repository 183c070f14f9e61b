package handler

import (
	"context"
	"testing"

	"lmsWs/internal/modules/catalog/domain"
)

type recordingBroadcaster struct {
	messages []*domain.Message
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, msg *domain.Message) {
	b.messages = append(b.messages, msg)
}

type recordingInvalidator struct {
	entities []string
}

func (i *recordingInvalidator) Invalidate(_ context.Context, entity string) {
	i.entities = append(i.entities, entity)
}

func TestEntityStreamHandlerForwardsAllowedActions(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	invalidator := &recordingInvalidator{}
	h := NewEntityStreamHandler("Course", "lms.course.changed", []string{"created", "Updated"}, broadcaster, invalidator)

	if h.Topic() != "lms.course.changed" {
		t.Fatalf("unexpected topic %s", h.Topic())
	}

	if err := h.Handle(context.Background(), &domain.Message{Entity: "course", Action: "updated", ResourceID: "7"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Handle(context.Background(), &domain.Message{Entity: "course", Action: "viewed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(broadcaster.messages) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(broadcaster.messages))
	}
	if got := broadcaster.messages[0]; got.Topic != "courses.updated" || got.Entity != "courses" {
		t.Fatalf("unexpected message %+v", got)
	}
	if len(invalidator.entities) != 1 || invalidator.entities[0] != "courses" {
		t.Fatalf("expected courses invalidated, got %v", invalidator.entities)
	}
}

func TestEntityStreamHandlerFallsBackToMessageEntity(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	h := NewEntityStreamHandler("", "lms.events", nil, broadcaster, nil)

	_ = h.Handle(context.Background(), &domain.Message{Entity: "blog", Action: "deleted"})

	if len(broadcaster.messages) != 1 || broadcaster.messages[0].Topic != "blogs.deleted" {
		t.Fatalf("unexpected broadcasts %+v", broadcaster.messages)
	}
}
