// Package events implements the event stream manager (§4.5(F), §8): a
// pub/sub fan-out over a closed event vocabulary with per-subscriber
// filtering.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Type is one of the closed set of event tags the gateway emits.
type Type string

const (
	TypeServerStarted Type = "mcp_server_started"
	TypeServerStopped Type = "mcp_server_stopped"
	TypeToolExecuted  Type = "mcp_tool_executed"
	TypeMessage       Type = "mcp_message"
	TypeSystemHealth  Type = "system_health"
	TypeError         Type = "error"
)

// Event is one item in the gateway's event vocabulary. BackendID is the
// zero UUID when the event carries no backend association (system_health,
// error).
type Event struct {
	Type      Type
	BackendID uuid.UUID
	Payload   map[string]any
}

// Filter is a SubscriberSession's three-dimensional event filter (§4.5).
type Filter struct {
	Types         map[Type]bool
	BackendIDs    map[uuid.UUID]bool
	IncludeSystem bool
}

// ShouldSend reports whether event e passes filter f, per §4.5's and §8's
// precedence rules: type admission, then the include_system override for
// system_health, then backend-id scoping.
func (f Filter) ShouldSend(e Event) bool {
	if len(f.Types) > 0 && !f.Types[e.Type] {
		return false
	}
	if e.Type == TypeSystemHealth && !f.IncludeSystem {
		return false
	}
	if len(f.BackendIDs) > 0 && e.BackendID != uuid.Nil && !f.BackendIDs[e.BackendID] {
		return false
	}
	return true
}

const subscriberQueueCapacity = 256

type subscriber struct {
	id     uuid.UUID
	filter Filter
	queue  chan Event
}

// Manager is the gateway's pub/sub fan-out. Per-backend scoping (§4.5)
// is implemented as a Filter dimension evaluated per subscriber rather
// than as a separate physical channel per backend: Broadcast already
// walks every subscriber's filter, so a subscriber scoped to one backend
// id simply never matches events carrying a different one.
type Manager struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*subscriber
}

// NewManager builds an empty event Manager.
func NewManager() *Manager {
	return &Manager{subscribers: make(map[uuid.UUID]*subscriber)}
}

// RegisterSubscriber creates a bounded queue and records filter, returning
// a stable id and the receive side of the queue.
func (m *Manager) RegisterSubscriber(filter Filter) (uuid.UUID, <-chan Event) {
	id := uuid.New()
	sub := &subscriber{id: id, filter: filter, queue: make(chan Event, subscriberQueueCapacity)}

	m.mu.Lock()
	m.subscribers[id] = sub
	m.mu.Unlock()

	return id, sub.queue
}

// Unregister drops a subscriber's queue immediately; the broadcaster
// never blocks on a disconnected subscriber (§5).
func (m *Manager) Unregister(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subscribers[id]; ok {
		close(sub.queue)
		delete(m.subscribers, id)
	}
}

// Broadcast delivers event to every subscriber whose filter admits it. A
// full subscriber queue drops the event for that subscriber only; the
// broadcaster never blocks.
func (m *Manager) Broadcast(e Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subscribers {
		if !sub.filter.ShouldSend(e) {
			continue
		}
		select {
		case sub.queue <- e:
		default:
		}
	}
}

// PublishServerScoped stamps event with backendID and delivers it through
// the normal filter evaluation. For server_started/server_stopped this is
// already the "broadcast globally too" behavior of §4.5: any subscriber
// with an empty backend-id filter set receives it regardless of origin.
func (m *Manager) PublishServerScoped(backendID uuid.UUID, e Event) {
	e.BackendID = backendID
	m.Broadcast(e)
}
