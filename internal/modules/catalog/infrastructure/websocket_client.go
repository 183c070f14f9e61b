package infrastructure

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lmsWs/internal/modules/catalog/domain"
)

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	userID     string
	sessionID  string
	entity     string
	token      string
	commands   *CommandProcessor
	subscribed map[string]struct{}
	closeOnce  sync.Once
	closed     bool
	sendMu     sync.RWMutex
	closeHooks []func(*Client)
	hookMu     sync.Mutex

	// newest unsent state per list id, written in first-queued order
	stateMu    sync.Mutex
	stateOrder []string
	states     map[string][]byte
	stateReady chan struct{}
}

// NewClient creates a websocket client. sessionID identifies this connection; userID is
// shared by every connection of the same user.
func NewClient(hub *Hub, conn *websocket.Conn, userID, sessionID, entity, token string, buf int, commands *CommandProcessor) *Client {
	if buf <= 0 {
		buf = 16
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, buf),
		userID:     strings.TrimSpace(userID),
		sessionID:  strings.TrimSpace(sessionID),
		entity:     strings.TrimSpace(entity),
		token:      token,
		commands:   commands,
		subscribed: make(map[string]struct{}),
		states:     make(map[string][]byte),
		stateReady: make(chan struct{}, 1),
	}
}

func (c *Client) UserID() string    { return c.userID }
func (c *Client) SessionID() string { return c.sessionID }
func (c *Client) Entity() string    { return c.entity }
func (c *Client) Token() string     { return c.token }

func (c *Client) key() string {
	return c.userID + ":" + c.sessionID
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.invokeCloseHooks()
	})
}

// AddCloseHook registers a callback that will be executed once when the client closes.
func (c *Client) AddCloseHook(fn func(*Client)) {
	if fn == nil {
		return
	}
	c.hookMu.Lock()
	c.closeHooks = append(c.closeHooks, fn)
	c.hookMu.Unlock()
}

func (c *Client) invokeCloseHooks() {
	c.hookMu.Lock()
	hooks := append([]func(*Client){}, c.closeHooks...)
	c.closeHooks = nil
	c.hookMu.Unlock()

	for _, hook := range hooks {
		func(h func(*Client)) {
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("ws close hook panic", slog.Any("error", r))
				}
			}()
			h(c)
		}(hook)
	}
}

// enqueue queues data without blocking; false means the buffer is full.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) SendDomainMessage(msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal error", slog.Any("error", err))
		return
	}
	if !c.enqueue(data) {
		slog.Warn("websocket send buffer full", slog.String("userId", c.userID), slog.String("sessionId", c.sessionID))
		go c.hub.detachClient(c)
	}
}

// SendListState queues a list snapshot. A snapshot of the same list still waiting for
// the writer is replaced, so a slow reader skips intermediate states instead of
// filling its buffer with them.
func (c *Client) SendListState(listID string, msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal error", slog.Any("error", err))
		return
	}
	c.sendMu.RLock()
	closed := c.closed
	c.sendMu.RUnlock()
	if closed {
		return
	}

	c.stateMu.Lock()
	if _, queued := c.states[listID]; queued {
		slog.Debug("ws list state coalesced", slog.String("sessionId", c.sessionID), slog.String("listId", listID))
	} else {
		c.stateOrder = append(c.stateOrder, listID)
	}
	c.states[listID] = data
	c.stateMu.Unlock()

	select {
	case c.stateReady <- struct{}{}:
	default:
	}
}

// takeStates hands the queued list snapshots to the writer and empties the queue.
func (c *Client) takeStates() [][]byte {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	out := make([][]byte, 0, len(c.stateOrder))
	for _, listID := range c.stateOrder {
		out = append(out, c.states[listID])
	}
	c.stateOrder = c.stateOrder[:0]
	clear(c.states)
	return out
}

func (c *Client) WritePump() {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Warn("websocket write error", slog.Any("error", err))
				return
			}
		case <-c.stateReady:
			for _, state := range c.takeStates() {
				if err := c.conn.WriteMessage(websocket.TextMessage, state); err != nil {
					slog.Warn("websocket write error", slog.Any("error", err))
					return
				}
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				slog.Warn("websocket ping error", slog.Any("error", err))
				return
			}
		}
	}
}

func (c *Client) ReadPump() {
	c.conn.SetReadLimit(8 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	defer c.hub.detachClient(c)
	for {
		var cmd Command
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read error", slog.String("userId", c.userID), slog.String("sessionId", c.sessionID), slog.Any("error", err))
			}
			return
		}
		c.processCommand(cmd)
	}
}

func (c *Client) processCommand(cmd Command) {
	if c.commands == nil {
		return
	}
	c.commands.Process(c, cmd)
}
