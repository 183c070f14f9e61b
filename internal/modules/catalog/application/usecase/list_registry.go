package usecase

import (
	"strings"
	"sync"
)

// ListRegistry tracks the open list controllers of every websocket session.
type ListRegistry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*ListController
}

func NewListRegistry() *ListRegistry {
	return &ListRegistry{sessions: make(map[string]map[string]*ListController)}
}

// Open stores controller under its id, closing any list it replaces.
func (r *ListRegistry) Open(sessionID string, controller *ListController) {
	if controller == nil {
		return
	}
	session := strings.TrimSpace(sessionID)
	r.mu.Lock()
	lists := r.sessions[session]
	if lists == nil {
		lists = make(map[string]*ListController)
		r.sessions[session] = lists
	}
	previous := lists[controller.ID()]
	lists[controller.ID()] = controller
	r.mu.Unlock()

	if previous != nil && previous != controller {
		previous.Close()
	}
}

func (r *ListRegistry) Get(sessionID, listID string) (*ListController, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	controller, ok := r.sessions[strings.TrimSpace(sessionID)][strings.TrimSpace(listID)]
	return controller, ok
}

// Close closes one list and reports whether it was open.
func (r *ListRegistry) Close(sessionID, listID string) bool {
	session := strings.TrimSpace(sessionID)
	list := strings.TrimSpace(listID)
	r.mu.Lock()
	controller, ok := r.sessions[session][list]
	if ok {
		delete(r.sessions[session], list)
		if len(r.sessions[session]) == 0 {
			delete(r.sessions, session)
		}
	}
	r.mu.Unlock()

	if ok {
		controller.Close()
	}
	return ok
}

// CloseSession closes every list of a disconnected session.
func (r *ListRegistry) CloseSession(sessionID string) int {
	r.mu.Lock()
	lists := r.sessions[strings.TrimSpace(sessionID)]
	delete(r.sessions, strings.TrimSpace(sessionID))
	r.mu.Unlock()

	for _, controller := range lists {
		controller.Close()
	}
	return len(lists)
}

// RefreshEntity re-fetches every open list of entity and returns how many it touched.
func (r *ListRegistry) RefreshEntity(entity string) int {
	name := strings.TrimSpace(entity)
	r.mu.RLock()
	var targets []*ListController
	for _, lists := range r.sessions {
		for _, controller := range lists {
			if strings.EqualFold(controller.Entity(), name) {
				targets = append(targets, controller)
			}
		}
	}
	r.mu.RUnlock()

	for _, controller := range targets {
		controller.Refresh()
	}
	return len(targets)
}

func (r *ListRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, lists := range r.sessions {
		total += len(lists)
	}
	return total
}
