package outbox

import "sync"

// Monitor tracks network reachability as observable state and
// notifies subscribers on online/offline transitions. The platform
// adapter that detects actual connectivity is an external
// collaborator; it reports through SetOnline.
type Monitor struct {
	mu       sync.RWMutex
	online   bool
	handlers []func(online bool)
}

// NewMonitor creates a monitor with the platform's known connectivity
// at startup.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// Online returns current reachability.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// OnTransition registers a handler invoked on every reachability
// change. Handlers run on the goroutine calling SetOnline.
func (m *Monitor) OnTransition(handler func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// SetOnline records a reachability change and fires transition
// handlers. Setting the current state again is a no-op.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	handlers := make([]func(online bool), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, handler := range handlers {
		handler(online)
	}
}
