package domain

import (
	"strconv"
	"strings"
	"time"
)

// Metadata carries flat string attributes used by the hub for routing and by clients
// for bookkeeping.
type Metadata map[string]string

// Message is the envelope pushed to websocket clients and decoded from kafka events.
type Message struct {
	Topic      string    `json:"topic"`
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	ResourceID string    `json:"resourceId,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	Data       any       `json:"data,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// BuildStateMessage publishes a list controller snapshot.
func BuildStateMessage(entity, listID string, state ListState, at time.Time) *Message {
	entityName := strings.TrimSpace(entity)
	metadata := state.Query.Metadata()
	metadata["listId"] = strings.TrimSpace(listID)
	metadata["status"] = string(state.Status)
	metadata["mode"] = string(state.Mode)
	metadata["generation"] = strconv.FormatUint(state.Generation, 10)
	metadata["revision"] = strconv.FormatUint(state.Revision, 10)
	metadata["itemsCount"] = strconv.Itoa(len(state.Items))
	return &Message{
		Topic:      StateTopic(entityName),
		Entity:     entityName,
		Action:     ActionState,
		ResourceID: strings.TrimSpace(listID),
		Metadata:   metadata,
		Data:       state,
		Timestamp:  at.UTC(),
	}
}

// BuildRecordMessage publishes a single record for detail reads and writes.
func BuildRecordMessage(entity, action, resourceID string, record Record, at time.Time) *Message {
	entityName := strings.TrimSpace(entity)
	id := strings.TrimSpace(resourceID)
	if id == "" && record != nil {
		id = record.ID()
	}
	metadata := Metadata{}
	if id != "" {
		metadata["id"] = id
	}
	var data any
	if record != nil {
		data = record
	}
	return &Message{
		Topic:      CustomTopic(entityName, action),
		Entity:     entityName,
		Action:     strings.ToLower(strings.TrimSpace(action)),
		ResourceID: id,
		Metadata:   metadata,
		Data:       data,
		Timestamp:  at.UTC(),
	}
}

// BuildErrorMessage reports a failed command; the client shows it as a toast.
func BuildErrorMessage(entity, listID, action, reason string, fields map[string]string, at time.Time) *Message {
	entityName := strings.TrimSpace(entity)
	metadata := Metadata{"action": strings.TrimSpace(action)}
	if id := strings.TrimSpace(listID); id != "" {
		metadata["listId"] = id
	}
	if strings.TrimSpace(reason) != "" {
		metadata["reason"] = reason
	}
	data := map[string]any{"error": reason}
	if len(fields) > 0 {
		data["fields"] = fields
	}
	topic := ErrorTopic(entityName)
	if topic == "" {
		topic = TopicSystemError
		entityName = SystemEntity
	}
	return &Message{
		Topic:      topic,
		Entity:     entityName,
		Action:     ActionError,
		ResourceID: strings.TrimSpace(listID),
		Metadata:   metadata,
		Data:       data,
		Timestamp:  at.UTC(),
	}
}
