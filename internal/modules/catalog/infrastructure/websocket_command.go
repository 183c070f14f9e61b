package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"lmsWs/internal/modules/catalog/domain"
)

type Command struct {
	Action  string          `json:"action"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (c Command) actionKey() string {
	return normalizeAction(c.Action)
}

type CommandHandler func(ctx context.Context, client *Client, cmd Command)

type registeredHandler struct {
	handle CommandHandler
	async  bool
}

// CommandProcessor dispatches client commands. Synchronous handlers run on the read
// goroutine; async handlers get their own goroutine bounded by asyncTimeout.
type CommandProcessor struct {
	hub          *Hub
	handlers     map[string]registeredHandler
	fallback     CommandHandler
	asyncTimeout time.Duration
}

func NewCommandProcessor(hub *Hub, fallback CommandHandler) *CommandProcessor {
	processor := &CommandProcessor{
		hub:          hub,
		handlers:     make(map[string]registeredHandler),
		fallback:     fallback,
		asyncTimeout: 10 * time.Second,
	}
	processor.Register("subscribe", processor.handleSubscribe)
	processor.Register("unsubscribe", processor.handleUnsubscribe)
	processor.Register("ping", processor.handlePing)
	return processor
}

// SetAsyncTimeout bounds async handlers; non-positive values are ignored.
func (p *CommandProcessor) SetAsyncTimeout(timeout time.Duration) {
	if timeout > 0 {
		p.asyncTimeout = timeout
	}
}

func (p *CommandProcessor) Register(action string, handler CommandHandler) {
	p.register(action, handler, false)
}

// RegisterAsync registers a handler that performs network calls.
func (p *CommandProcessor) RegisterAsync(action string, handler CommandHandler) {
	p.register(action, handler, true)
}

func (p *CommandProcessor) register(action string, handler CommandHandler, async bool) {
	if handler == nil {
		return
	}
	key := normalizeAction(action)
	if key == "" {
		return
	}
	p.handlers[key] = registeredHandler{handle: handler, async: async}
}

func (p *CommandProcessor) Process(client *Client, cmd Command) {
	if client == nil {
		return
	}

	action := cmd.actionKey()
	if action == "" {
		return
	}

	handler, ok := p.handlers[action]
	if !ok {
		if p.fallback == nil {
			slog.Debug("ws command ignored", slog.String("userId", client.userID), slog.String("sessionId", client.sessionID), slog.String("action", action))
			return
		}
		handler = registeredHandler{handle: p.fallback, async: true}
	}

	if !handler.async {
		handler.handle(context.Background(), client, cmd)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.asyncTimeout)
	go func() {
		defer cancel()
		handler.handle(ctx, client, cmd)
	}()
}

func (p *CommandProcessor) handleSubscribe(_ context.Context, client *Client, cmd Command) {
	topic := strings.TrimSpace(cmd.Topic)
	if topic == "" {
		slog.Debug("ws subscribe ignored empty topic", slog.String("userId", client.userID), slog.String("sessionId", client.sessionID))
		return
	}
	p.hub.subscribe(client, topic)
	slog.Debug("ws subscribe", slog.String("userId", client.userID), slog.String("sessionId", client.sessionID), slog.String("topic", topic))
}

func (p *CommandProcessor) handleUnsubscribe(_ context.Context, client *Client, cmd Command) {
	topic := strings.TrimSpace(cmd.Topic)
	if topic == "" {
		return
	}
	p.hub.unsubscribe(client, topic)
}

func (p *CommandProcessor) handlePing(_ context.Context, client *Client, _ Command) {
	ack := domain.Message{
		Topic:     domain.TopicSystemPong,
		Entity:    domain.SystemEntity,
		Action:    domain.ActionPong,
		Timestamp: time.Now().UTC(),
	}
	client.SendDomainMessage(&ack)
}

func normalizeAction(action string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(action)), "-", "_")
}
