// Package router classifies inbound frames and fans them out to subscribers.
//
// State updates go to state subscribers as decoded snapshots; every other
// frame type goes to message subscribers with its raw bytes. Malformed
// frames are reported and discarded, and a failing subscriber never stops
// delivery to the others.
package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"grimm.is/swarmctl/internal/clock"
	"grimm.is/swarmctl/internal/events"
	"grimm.is/swarmctl/internal/logging"
	"grimm.is/swarmctl/internal/protocol"
	"grimm.is/swarmctl/internal/ratelimit"
)

// RateWindow is how many state updates separate two rate measurements.
const RateWindow = 100

var (
	// ErrMissingType marks a frame without a usable type field.
	ErrMissingType = errors.New("frame has no type")

	// ErrAgentsNotArray marks a state_update whose agents field is not a list.
	ErrAgentsNotArray = errors.New("state_update agents is not a list")
)

// Class selects which frames a subscription receives.
type Class int

const (
	ClassState Class = iota
	ClassMessage
)

func (c Class) String() string {
	if c == ClassState {
		return "state"
	}
	return "message"
}

// StateHandler receives each valid state update.
type StateHandler func(*protocol.StateUpdate) error

// MessageHandler receives every non-state frame.
type MessageHandler func(protocol.Message) error

// Subscription identifies a registered handler.
type Subscription struct {
	id    uint64
	class Class
	name  string
}

// Class returns the class the subscription was registered for.
func (s Subscription) Class() Class { return s.class }

// Name returns the subscriber name used in fault reports.
func (s Subscription) Name() string { return s.name }

type stateSub struct {
	Subscription
	fn StateHandler
}

type messageSub struct {
	Subscription
	fn MessageHandler
}

// Option configures a Router.
type Option func(*Router)

// WithHub sets the events hub for faults and diagnostics.
func WithHub(h *events.Hub) Option {
	return func(r *Router) { r.hub = h }
}

// WithClock sets the clock used for rate measurement.
func WithClock(c clock.Clock) Option {
	return func(r *Router) { r.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// Router dispatches frames. Dispatch must not be called concurrently with
// itself; the session's single reader guarantees that.
type Router struct {
	hub     *events.Hub
	clock   clock.Clock
	logger  *logging.Logger
	limiter *ratelimit.Limiter

	mu       sync.RWMutex
	nextID   uint64
	state    []stateSub
	messages []messageSub
	latest   *protocol.StateUpdate

	updates    uint64
	discarded  uint64
	checkpoint time.Time
}

// New creates a router.
func New(opts ...Option) *Router {
	r := &Router{
		clock:  clock.Default(),
		logger: logging.WithComponent("router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.limiter = ratelimit.NewLimiter(r.clock, 5, 10*time.Second)
	r.checkpoint = r.clock.Now()
	return r
}

// SubscribeState registers fn for state updates. Handlers run in
// registration order.
func (r *Router) SubscribeState(name string, fn StateHandler) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sub := Subscription{id: r.nextID, class: ClassState, name: name}
	r.state = append(r.state, stateSub{sub, fn})
	return sub
}

// SubscribeMessage registers fn for every non-state frame.
func (r *Router) SubscribeMessage(name string, fn MessageHandler) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sub := Subscription{id: r.nextID, class: ClassMessage, name: name}
	r.messages = append(r.messages, messageSub{sub, fn})
	return sub
}

// Unsubscribe removes sub. It reports whether the subscription was found.
func (r *Router) Unsubscribe(sub Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch sub.class {
	case ClassState:
		for i, s := range r.state {
			if s.id == sub.id {
				r.state = append(r.state[:i:i], r.state[i+1:]...)
				return true
			}
		}
	case ClassMessage:
		for i, s := range r.messages {
			if s.id == sub.id {
				r.messages = append(r.messages[:i:i], r.messages[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Latest returns a copy of the last valid state update, or nil before the
// first. Discarded frames never replace it.
func (r *Router) Latest() *protocol.StateUpdate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest.Clone()
}

// Stats returns how many state updates were accepted and how many frames
// were discarded as malformed.
func (r *Router) Stats() (updates, discarded uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updates, r.discarded
}

// Dispatch classifies one raw frame and delivers it.
func (r *Router) Dispatch(raw []byte) {
	var env struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		r.discard("", fmt.Errorf("malformed frame: %w", err))
		return
	}
	if env.Type == nil || *env.Type == "" {
		r.discard("", ErrMissingType)
		return
	}

	msgType := *env.Type
	r.hub.Publish(events.Event{
		Type:   events.EventFrameReceived,
		Source: "router",
		Data:   events.FrameData{MessageType: msgType, Bytes: len(raw)},
	})

	if msgType == protocol.TypeStateUpdate {
		r.dispatchState(raw)
		return
	}
	r.dispatchMessage(protocol.Message{Type: msgType, Raw: json.RawMessage(raw)})
}

func (r *Router) dispatchState(raw []byte) {
	update, err := DecodeStateUpdate(raw)
	if err != nil {
		r.discard(protocol.TypeStateUpdate, err)
		return
	}

	r.mu.Lock()
	r.latest = update
	r.updates++
	total := r.updates
	subs := make([]stateSub, len(r.state))
	copy(subs, r.state)
	r.mu.Unlock()

	// Each subscriber gets its own copy; the router keeps the original.
	for _, s := range subs {
		fn := s.fn
		view := update.Clone()
		r.invoke(s.Subscription, protocol.TypeStateUpdate, func() error { return fn(view) })
	}

	if total%RateWindow == 0 {
		r.measureRate(total, len(update.Agents))
	}
}

func (r *Router) dispatchMessage(msg protocol.Message) {
	r.mu.RLock()
	subs := make([]messageSub, len(r.messages))
	copy(subs, r.messages)
	r.mu.RUnlock()

	for _, s := range subs {
		fn := s.fn
		r.invoke(s.Subscription, msg.Type, func() error { return fn(msg) })
	}
}

// invoke runs one handler, converting errors and panics into consumer faults.
func (r *Router) invoke(sub Subscription, msgType string, call func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.fault(events.EventConsumerFault, msgType, sub.name, fmt.Errorf("panic: %v", p))
		}
	}()
	if err := call(); err != nil {
		r.fault(events.EventConsumerFault, msgType, sub.name, err)
	}
}

func (r *Router) measureRate(total uint64, agents int) {
	now := r.clock.Now()
	r.mu.Lock()
	elapsed := now.Sub(r.checkpoint)
	r.checkpoint = now
	r.mu.Unlock()

	fps := 0.0
	if elapsed > 0 {
		fps = float64(RateWindow) / elapsed.Seconds()
	}
	r.logger.Debug("update rate", "fps", fmt.Sprintf("%.1f", fps), "agents", agents)
	r.limiter.CleanupExpired(time.Minute)
	r.hub.Publish(events.Event{
		Type:   events.EventUpdateRate,
		Source: "router",
		Data:   events.UpdateRateData{FramesPerSecond: fps, Agents: agents, Total: total},
	})
}

func (r *Router) discard(msgType string, err error) {
	r.mu.Lock()
	r.discarded++
	r.mu.Unlock()
	r.fault(events.EventProtocolFault, msgType, "", err)
}

func (r *Router) fault(t events.EventType, msgType, name string, err error) {
	r.hub.EmitFault(t, "router", msgType, name, err)

	key := string(t) + "/" + name
	if ok, suppressed := r.limiter.Allow(key); ok {
		args := []any{"fault", string(t), "error", err}
		if msgType != "" {
			args = append(args, "type", msgType)
		}
		if name != "" {
			args = append(args, "subscriber", name)
		}
		if suppressed > 0 {
			args = append(args, "suppressed", suppressed)
		}
		r.logger.Warn("frame fault", args...)
	}
}

// DecodeStateUpdate validates and decodes a state_update frame. The agents
// field must be a JSON array; a missing role is read as normal. Other roles
// pass through unchanged.
func DecodeStateUpdate(raw []byte) (*protocol.StateUpdate, error) {
	var probe struct {
		Agents json.RawMessage `json:"agents"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("malformed state_update: %w", err)
	}
	if a := bytes.TrimSpace(probe.Agents); len(a) == 0 || a[0] != '[' {
		return nil, ErrAgentsNotArray
	}

	var update protocol.StateUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		return nil, fmt.Errorf("malformed state_update: %w", err)
	}
	for i := range update.Agents {
		if update.Agents[i].Role == "" {
			update.Agents[i].Role = protocol.RoleNormal
		}
	}
	return &update, nil
}
