package domain

import "strings"

const (
	SystemEntity = "system"

	TopicSystemConnected = SystemEntity + ".connected"
	TopicSystemPong      = SystemEntity + ".pong"
	TopicSystemError     = SystemEntity + ".error"
	TopicSystemProgress  = SystemEntity + ".progress"

	ActionConnected = "connected"
	ActionPong      = "pong"
	ActionError     = "error"
	ActionProgress  = "progress"
	ActionState     = "state"
	ActionDetail    = "detail"
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
)

func StateTopic(entity string) string {
	return CustomTopic(entity, ActionState)
}

func DetailTopic(entity string) string {
	return CustomTopic(entity, ActionDetail)
}

func ErrorTopic(entity string) string {
	return CustomTopic(entity, ActionError)
}

// CustomTopic returns "<entity>.<action>", or "" when either part is blank.
func CustomTopic(entity, action string) string {
	cleanEntity := strings.TrimSpace(entity)
	cleanAction := strings.ToLower(strings.TrimSpace(action))
	if cleanEntity == "" || cleanAction == "" {
		return ""
	}
	return cleanEntity + "." + cleanAction
}

// EntityTopics lists the topics a list session for entity listens on.
func EntityTopics(entity string, actions []string) []string {
	topics := []string{StateTopic(entity), DetailTopic(entity), ErrorTopic(entity)}
	seen := map[string]struct{}{}
	for _, topic := range topics {
		seen[topic] = struct{}{}
	}
	for _, action := range actions {
		topic := CustomTopic(entity, action)
		if topic == "" {
			continue
		}
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics
}
