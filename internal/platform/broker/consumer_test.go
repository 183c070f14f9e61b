package broker

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestDecodeMessageFromEvent(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := decodeMessage(kafka.Message{
		Topic: "lms.course.changed",
		Time:  at,
		Value: []byte(`{"entity":"Course","action":"UPDATED","data":{"id":42,"title":"Go"}}`),
	})

	if msg.Entity != "courses" || msg.Action != "updated" {
		t.Fatalf("unexpected entity/action %s/%s", msg.Entity, msg.Action)
	}
	if msg.Topic != "courses.updated" {
		t.Fatalf("unexpected topic %s", msg.Topic)
	}
	if msg.ResourceID != "42" {
		t.Fatalf("expected resource id from data, got %q", msg.ResourceID)
	}
	if !msg.Timestamp.Equal(at) {
		t.Fatalf("expected kafka timestamp, got %s", msg.Timestamp)
	}
}

func TestDecodeMessageInfersFromTopic(t *testing.T) {
	msg := decodeMessage(kafka.Message{Topic: "lms.problem.deleted", Value: []byte("not json")})

	if msg.Entity != "problems" || msg.Action != "deleted" {
		t.Fatalf("unexpected entity/action %s/%s", msg.Entity, msg.Action)
	}
	if msg.Data != "not json" {
		t.Fatalf("expected raw payload, got %v", msg.Data)
	}
}

func TestInferEntityActionFromTopic(t *testing.T) {
	cases := map[string][2]string{
		"lms.lesson.created": {"lesson", "created"},
		"blogs":              {"blogs", "unknown"},
		"":                   {"", "unknown"},
	}
	for topic, want := range cases {
		entity, action := inferEntityActionFromTopic(topic)
		if entity != want[0] || action != want[1] {
			t.Fatalf("%q: expected %v, got %s/%s", topic, want, entity, action)
		}
	}
}
