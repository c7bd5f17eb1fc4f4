// Package session owns the single live WebSocket connection to the
// simulation server and keeps it alive with capped exponential backoff.
//
// Every socket a Session creates is tagged with a generation number. Only
// the socket of the current generation may deliver frames or trigger a
// reconnect, so a superseded socket can never leak duplicate traffic into
// the router.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"grimm.is/swarmctl/internal/brand"
	"grimm.is/swarmctl/internal/clock"
	"grimm.is/swarmctl/internal/events"
	"grimm.is/swarmctl/internal/logging"
	"grimm.is/swarmctl/internal/protocol"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 32 << 20
)

var (
	// ErrNotOpen is returned by Send when there is no open socket. The
	// intent is dropped, not queued.
	ErrNotOpen = errors.New("session not open")

	// ErrClosed is returned by Connect after Close.
	ErrClosed = errors.New("session closed")

	// ErrNilIntent is returned by Send when given no intent.
	ErrNilIntent = errors.New("nil intent")
)

// State is the connection state.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Config holds session settings.
type Config struct {
	Host             string
	Secure           bool
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	MaxRetries       int
	HandshakeTimeout time.Duration
}

// DefaultConfig returns the stock reconnect policy for host.
func DefaultConfig(host string) Config {
	return Config{
		Host:             host,
		BaseDelay:        time.Second,
		MaxDelay:         30 * time.Second,
		MaxRetries:       10,
		HandshakeTimeout: 10 * time.Second,
	}
}

// FrameHandler receives raw inbound frames in arrival order.
type FrameHandler func(raw []byte)

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for reconnect timers.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithHub sets the events hub that receives lifecycle and fault events.
func WithHub(h *events.Hub) Option {
	return func(s *Session) { s.hub = h }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// Session is one process-wide connection handle.
type Session struct {
	cfg    Config
	url    string
	clock  clock.Clock
	hub    *events.Hub
	logger *logging.Logger
	dialer *websocket.Dialer
	header http.Header

	mu      sync.Mutex
	state   State
	retries int
	gen     uint64
	conn    *websocket.Conn
	timer   clock.Timer
	ctx     context.Context
	gaveUp  bool
	closed  bool
	onFrame FrameHandler

	writeMu   sync.Mutex
	deliverMu sync.Mutex
}

// New creates a session. Nothing is dialed until Connect.
func New(cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		url:    EndpointURL(cfg.Host, cfg.Secure),
		clock:  clock.Default(),
		logger: logging.WithComponent("session"),
		header: http.Header{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dialer == nil {
		s.dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		}
	}
	s.header.Set("User-Agent", brand.UserAgent(brand.Version))
	return s
}

// URL returns the endpoint the session dials.
func (s *Session) URL() string { return s.url }

// OnFrame installs the handler for inbound frames. Set it before Connect.
func (s *Session) OnFrame(fn FrameHandler) {
	s.mu.Lock()
	s.onFrame = fn
	s.mu.Unlock()
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Retries returns the number of consecutive failed attempts.
func (s *Session) Retries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retries
}

// GaveUp reports whether the retry budget is exhausted.
func (s *Session) GaveUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gaveUp
}

// Connect dials a new socket, closing and fencing off any previous one.
// ctx bounds the dial and every automatic reconnect that follows. A failed
// dial is returned and also schedules a reconnect like any other drop.
// Calling Connect after the session gave up starts a fresh retry budget.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.gaveUp {
		s.gaveUp = false
		s.retries = 0
	}
	s.mu.Unlock()
	return s.connect(ctx)
}

func (s *Session) connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	gen := s.gen
	old := s.conn
	s.conn = nil
	s.state = StateConnecting
	s.ctx = ctx
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}

	s.logger.Debug("dialing", "url", s.url, "generation", gen)
	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)

	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.handleClose(gen, err)
		return fmt.Errorf("dial %s: %w", s.url, err)
	}

	conn.SetReadLimit(maxFrameSize)
	s.conn = conn
	s.state = StateOpen
	s.retries = 0
	s.mu.Unlock()

	s.logger.Info("connected", "url", s.url)
	s.hub.EmitConnection(events.EventConnected, events.ConnectionData{URL: s.url})

	go s.readLoop(gen, conn)
	return nil
}

func (s *Session) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleClose(gen, err)
			return
		}
		s.deliver(gen, data)
	}
}

func (s *Session) deliver(gen uint64, data []byte) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	current := gen == s.gen && !s.closed
	fn := s.onFrame
	s.mu.Unlock()

	if current && fn != nil {
		fn(data)
	}
}

// handleClose reacts to the loss of the socket of generation gen. Stale
// generations are ignored.
func (s *Session) handleClose(gen uint64, cause error) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.state = StateClosed
	ctx := s.ctx
	attempt := s.retries

	data := events.ConnectionData{URL: s.url, Retries: attempt}
	if cause != nil {
		data.Error = cause.Error()
	}

	if attempt >= s.cfg.MaxRetries || (ctx != nil && ctx.Err() != nil) {
		exhausted := attempt >= s.cfg.MaxRetries
		s.gaveUp = exhausted
		s.mu.Unlock()

		s.hub.EmitConnection(events.EventDisconnected, data)
		if exhausted {
			s.logger.Error("giving up", "url", s.url, "attempts", attempt)
			s.hub.EmitConnection(events.EventGaveUp, data)
		}
		return
	}

	delay := Backoff(attempt, s.cfg.BaseDelay, s.cfg.MaxDelay)
	s.retries++
	s.timer = s.clock.AfterFunc(delay, func() { s.reconnect(gen) })
	s.mu.Unlock()

	s.logger.Warn("disconnected", "url", s.url, "error", data.Error, "retry_in", delay)
	s.hub.EmitConnection(events.EventDisconnected, data)
	data.Retries = attempt + 1
	data.Delay = delay
	s.hub.EmitConnection(events.EventReconnecting, data)
}

func (s *Session) reconnect(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.connect(ctx); err != nil {
		s.logger.Debug("reconnect failed", "error", err)
	}
}

// Send serializes intent and writes it if the socket is open. When it is
// not, the intent is dropped and ErrNotOpen returned. Serialization errors
// are reported and returned without touching the connection.
func (s *Session) Send(intent protocol.Intent) error {
	if intent == nil {
		s.hub.EmitFault(events.EventSendFault, "session", "", "", ErrNilIntent)
		return ErrNilIntent
	}

	data, err := json.Marshal(intent)
	if err != nil {
		s.hub.EmitFault(events.EventSendFault, "session", intent.Type(), "", err)
		return fmt.Errorf("marshal %s: %w", intent.Type(), err)
	}

	s.mu.Lock()
	conn := s.conn
	open := s.state == StateOpen && conn != nil
	s.mu.Unlock()

	info := describe(intent)
	if !open {
		info.Reason = ErrNotOpen.Error()
		s.hub.EmitIntent(events.EventIntentDropped, "session", info)
		return ErrNotOpen
	}

	s.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		s.hub.EmitFault(events.EventSendFault, "session", intent.Type(), info.Name, err)
		return fmt.Errorf("write %s: %w", intent.Type(), err)
	}

	s.hub.EmitIntent(events.EventIntentSent, "session", info)
	return nil
}

// Close stops reconnecting and closes the socket. The session cannot be
// reused afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	conn := s.conn
	s.conn = nil
	s.state = StateClosed
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	s.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return conn.Close()
}

func describe(intent protocol.Intent) events.IntentData {
	info := events.IntentData{IntentType: intent.Type()}
	switch v := intent.(type) {
	case protocol.Parameter:
		info.Name = v.Name
		info.Value = v.Value
	case protocol.Pattern:
		info.Name = v.Name
	case protocol.Command:
		info.Name = v.Action
	case protocol.CustomBehavior:
		info.Name = v.Action
	}
	return info
}
