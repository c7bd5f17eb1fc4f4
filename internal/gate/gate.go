// Package gate paces and validates outbound control intents.
//
// Discrete commands go straight to the session. Parameter changes are range
// checked against a rule table and then either sent immediately or
// debounced per parameter so that a burst of slider movement produces one
// message carrying the final value.
package gate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"grimm.is/swarmctl/internal/clock"
	"grimm.is/swarmctl/internal/events"
	"grimm.is/swarmctl/internal/logging"
	"grimm.is/swarmctl/internal/protocol"
)

// DefaultDebounceWindow is the trailing quiet period for debounced parameters.
const DefaultDebounceWindow = 100 * time.Millisecond

var (
	ErrOutOfRange       = errors.New("parameter value out of range")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrInvalidAction    = errors.New("invalid action")
)

// Sender delivers an intent. *session.Session satisfies it.
type Sender interface {
	Send(intent protocol.Intent) error
}

// DisplayHook mirrors a requested parameter value in the UI. It runs for
// every SetParameter call, before validation.
type DisplayHook func(name string, value float64)

// Option configures a Gate.
type Option func(*Gate)

// WithRules replaces the parameter table.
func WithRules(rules []Rule) Option {
	return func(g *Gate) { g.setRules(rules) }
}

// WithDebounceWindow sets the trailing window for debounced parameters.
func WithDebounceWindow(d time.Duration) Option {
	return func(g *Gate) { g.window = d }
}

// WithClock sets the clock that owns debounce timers.
func WithClock(c clock.Clock) Option {
	return func(g *Gate) { g.clock = c }
}

// WithHub sets the events hub for validation faults and coalescing.
func WithHub(h *events.Hub) Option {
	return func(g *Gate) { g.hub = h }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// WithDisplayHook installs the display hook.
func WithDisplayHook(fn DisplayHook) Option {
	return func(g *Gate) { g.display = fn }
}

type pendingValue struct {
	value float64
	timer clock.Timer
}

// Gate is the single outbound path for control intents.
type Gate struct {
	sender  Sender
	clock   clock.Clock
	hub     *events.Hub
	logger  *logging.Logger
	window  time.Duration
	display DisplayHook

	rules map[string]Rule
	order []string

	mu      sync.Mutex
	pending map[string]*pendingValue
}

// New creates a gate that sends through sender.
func New(sender Sender, opts ...Option) *Gate {
	g := &Gate{
		sender:  sender,
		clock:   clock.Default(),
		logger:  logging.WithComponent("gate"),
		window:  DefaultDebounceWindow,
		pending: make(map[string]*pendingValue),
	}
	g.setRules(DefaultRules())
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) setRules(rules []Rule) {
	g.rules = make(map[string]Rule, len(rules))
	g.order = g.order[:0]
	for _, r := range rules {
		if _, dup := g.rules[r.Name]; !dup {
			g.order = append(g.order, r.Name)
		}
		g.rules[r.Name] = r
	}
}

// Rules returns the parameter table in declaration order.
func (g *Gate) Rules() []Rule {
	out := make([]Rule, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.rules[name])
	}
	return out
}

// Rule looks up one parameter.
func (g *Gate) Rule(name string) (Rule, bool) {
	r, ok := g.rules[name]
	return r, ok
}

// Command sends a simulation command. recording is only meaningful for
// start_playback and may be nil.
func (g *Gate) Command(action string, recording json.RawMessage) error {
	if !protocol.IsCommandAction(action) {
		err := fmt.Errorf("%w: command %q", ErrInvalidAction, action)
		g.reject(protocol.TypeCommand, action, err)
		return err
	}
	return g.send(protocol.Command{Action: action, Recording: recording})
}

// RequestRecording asks the server for its current recording.
func (g *Gate) RequestRecording() error {
	return g.send(protocol.GetRecording{})
}

// Pattern selects a movement pattern.
func (g *Gate) Pattern(name string) error {
	if name == "" {
		err := fmt.Errorf("%w: empty pattern name", ErrInvalidAction)
		g.reject(protocol.TypePattern, name, err)
		return err
	}
	return g.send(protocol.Pattern{Name: name})
}

// CustomBehavior submits behavior source for saving or a test run.
func (g *Gate) CustomBehavior(action, code string) error {
	if action != protocol.BehaviorSave && action != protocol.BehaviorTest {
		err := fmt.Errorf("%w: behavior %q", ErrInvalidAction, action)
		g.reject(protocol.TypeCustomBehavior, action, err)
		return err
	}
	return g.send(protocol.CustomBehavior{Action: action, Code: code})
}

// SetParameter requests a parameter change. The display hook always runs
// first. Unknown names and out-of-range values are reported and never sent.
// Debounced parameters return nil once the change is scheduled.
func (g *Gate) SetParameter(name string, value float64) error {
	if g.display != nil {
		g.display(name, value)
	}

	rule, ok := g.rules[name]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownParameter, name)
		g.reject(protocol.TypeParameter, name, err)
		return err
	}
	if math.IsNaN(value) || !rule.Contains(value) {
		err := fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfRange, name, value, rule.Min, rule.Max)
		g.reject(protocol.TypeParameter, name, err)
		return err
	}

	if rule.Policy == PolicyImmediate {
		return g.send(protocol.Parameter{Name: name, Value: value})
	}

	g.mu.Lock()
	if prev, ok := g.pending[name]; ok {
		prev.timer.Stop()
		g.hub.EmitIntent(events.EventCoalesced, "gate", events.IntentData{
			IntentType: protocol.TypeParameter,
			Name:       name,
			Value:      prev.value,
		})
	}
	p := &pendingValue{value: value}
	p.timer = g.clock.AfterFunc(g.window, func() { g.fire(name, p) })
	g.pending[name] = p
	g.mu.Unlock()
	return nil
}

func (g *Gate) fire(name string, p *pendingValue) {
	g.mu.Lock()
	if g.pending[name] != p {
		g.mu.Unlock()
		return
	}
	delete(g.pending, name)
	g.mu.Unlock()

	_ = g.send(protocol.Parameter{Name: name, Value: p.value})
}

// Pending returns the debounced values not yet sent.
func (g *Gate) Pending() map[string]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]float64, len(g.pending))
	for name, p := range g.pending {
		out[name] = p.value
	}
	return out
}

// Flush sends every pending debounced value now, in table order.
func (g *Gate) Flush() error {
	g.mu.Lock()
	batch := g.pending
	g.pending = make(map[string]*pendingValue)
	g.mu.Unlock()

	var errs []error
	for _, name := range g.order {
		p, ok := batch[name]
		if !ok {
			continue
		}
		p.timer.Stop()
		if err := g.send(protocol.Parameter{Name: name, Value: p.value}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop cancels every pending debounced value without sending.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for name, p := range g.pending {
		p.timer.Stop()
		delete(g.pending, name)
	}
}

func (g *Gate) send(intent protocol.Intent) error {
	if err := g.sender.Send(intent); err != nil {
		g.logger.Debug("intent not sent", "type", intent.Type(), "error", err)
		return err
	}
	return nil
}

func (g *Gate) reject(intentType, name string, err error) {
	g.logger.Warn("rejected intent", "type", intentType, "name", name, "error", err)
	g.hub.EmitFault(events.EventValidationFault, "gate", intentType, name, err)
}
