package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// subscriberBuffer is the per-subscriber queue length. Events for a full
// subscriber are dropped.
const subscriberBuffer = 64

// Emitter is what services need to publish events
type Emitter interface {
	Emit(module string, data EventData)
}

// Manager fans emitted events out to subscribers and logs them
type Manager struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	now         func() time.Time
	log         zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		subscribers: make(map[int]chan Event),
		now:         time.Now,
		log:         log.With().Str("service", "events").Logger(),
	}
}

// Emit publishes data to every subscriber without blocking
func (m *Manager) Emit(module string, data EventData) {
	if data == nil {
		return
	}
	event := Event{
		Type:      data.EventType(),
		Module:    module,
		Timestamp: m.now(),
		Data:      data,
	}

	m.mu.RLock()
	dropped := 0
	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	m.mu.RUnlock()

	logEvent := m.log.Info()
	if event.Type == ErrorOccurred {
		logEvent = m.log.Warn()
	}
	logEvent.
		Str("event_type", string(event.Type)).
		Str("module", module).
		Int("dropped", dropped).
		Msg("Event emitted")
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.Emit(module, &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	})
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes the channel; it is safe to call more than once.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// SubscriberCount returns the number of active subscribers
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}
