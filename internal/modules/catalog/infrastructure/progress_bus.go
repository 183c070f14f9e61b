package infrastructure

import (
	"context"
	"strconv"
	"sync"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
)

// ProgressBus fans request progress out to the listeners that subscribed to it. Nothing
// is delivered until someone subscribes.
type ProgressBus struct {
	mu        sync.RWMutex
	next      uint64
	listeners map[uint64]port.ProgressListener
}

func NewProgressBus() *ProgressBus {
	return &ProgressBus{listeners: make(map[uint64]port.ProgressListener)}
}

// Subscribe registers listener and returns the function that removes it.
func (b *ProgressBus) Subscribe(listener port.ProgressListener) func() {
	if listener == nil {
		return func() {}
	}
	b.mu.Lock()
	b.next++
	id := b.next
	b.listeners[id] = listener
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *ProgressBus) OnProgress(event port.ProgressEvent) {
	b.mu.RLock()
	listeners := make([]port.ProgressListener, 0, len(b.listeners))
	for _, listener := range b.listeners {
		listeners = append(listeners, listener)
	}
	b.mu.RUnlock()

	for _, listener := range listeners {
		listener.OnProgress(event)
	}
}

func (b *ProgressBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// ProgressBroadcaster republishes progress on the system.progress topic; only websocket
// clients that subscribed to that topic receive it.
func ProgressBroadcaster(broadcaster port.Broadcaster) port.ProgressListener {
	return port.ProgressListenerFunc(func(event port.ProgressEvent) {
		broadcaster.Broadcast(context.Background(), &domain.Message{
			Topic:      domain.TopicSystemProgress,
			Entity:     domain.SystemEntity,
			Action:     domain.ActionProgress,
			ResourceID: event.RequestID,
			Metadata: domain.Metadata{
				"phase":  string(event.Phase),
				"active": strconv.Itoa(event.Active),
			},
			Data:      event,
			Timestamp: event.At,
		})
	})
}

var _ port.ProgressListener = (*ProgressBus)(nil)
