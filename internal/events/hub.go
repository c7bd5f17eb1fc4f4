package events

import (
	"sync"
	"sync/atomic"

	"grimm.is/swarmctl/internal/clock"
)

// DefaultBuffer is the channel size used when Subscribe is given none.
const DefaultBuffer = 256

// subscriber is one channel plus the event types it wants. A nil filter
// means every type.
type subscriber struct {
	ch      chan Event
	filter  map[EventType]struct{}
	dropped atomic.Uint64
}

func (s *subscriber) wants(t EventType) bool {
	if s.filter == nil {
		return true
	}
	_, ok := s.filter[t]
	return ok
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithClock stamps events from c instead of the wall clock.
func WithClock(c clock.Clock) HubOption {
	return func(h *Hub) { h.clock = c }
}

// Hub is the status bus. Delivery never blocks the publisher: a full
// subscriber channel loses the event and the drop is counted.
type Hub struct {
	mu    sync.RWMutex
	subs  []*subscriber
	clock clock.Clock

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{clock: clock.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish fans e out to every interested subscriber. Publishing on a nil
// hub is a no-op so components can run without one.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = h.clock.Now()
	}
	h.published.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if !s.wants(e.Type) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			s.dropped.Add(1)
			h.dropped.Add(1)
		}
	}
}

// Subscribe returns a channel receiving the given event types, or every
// event when none are given. The caller must keep draining it.
func (h *Hub) Subscribe(bufSize int, types ...EventType) <-chan Event {
	if bufSize <= 0 {
		bufSize = DefaultBuffer
	}
	s := &subscriber{ch: make(chan Event, bufSize)}
	if len(types) > 0 {
		s.filter = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			s.filter[t] = struct{}{}
		}
	}

	h.mu.Lock()
	h.subs = append(h.subs, s)
	h.mu.Unlock()
	return s.ch
}

// Unsubscribe detaches ch. The channel is not closed. It reports whether
// ch was subscribed.
func (h *Hub) Unsubscribe(ch <-chan Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s.ch == ch {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Dropped returns how many events ch has lost to a full buffer.
func (h *Hub) Dropped(ch <-chan Event) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if s.ch == ch {
			return s.dropped.Load()
		}
	}
	return 0
}

// Stats returns total publish and drop counts.
func (h *Hub) Stats() (published, dropped uint64) {
	return h.published.Load(), h.dropped.Load()
}

// EmitConnection publishes a session lifecycle event.
func (h *Hub) EmitConnection(t EventType, data ConnectionData) {
	h.Publish(Event{Type: t, Source: "session", Data: data})
}

// EmitFault publishes a fault event.
func (h *Hub) EmitFault(t EventType, source, messageType, name string, err error) {
	data := FaultData{MessageType: messageType, Name: name}
	if err != nil {
		data.Error = err.Error()
	}
	h.Publish(Event{Type: t, Source: source, Data: data})
}

// EmitIntent publishes an outbound traffic event.
func (h *Hub) EmitIntent(t EventType, source string, data IntentData) {
	h.Publish(Event{Type: t, Source: source, Data: data})
}
