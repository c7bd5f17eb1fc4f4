// Package devserver is a local stand-in for the swarm simulation server.
//
// It speaks the same WebSocket protocol on /ws: it streams state_update
// frames from a scripted scene, answers get_recording with recording_data
// and custom_behavior with behavior_response, and replies to every other
// intent with the current state.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"grimm.is/swarmctl/internal/logging"
	"grimm.is/swarmctl/internal/protocol"
)

// DefaultFrameInterval matches the original 30 FPS loop.
const DefaultFrameInterval = time.Second / 30

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Options configures a Server.
type Options struct {
	FrameInterval time.Duration
	Agents        int
	// Autostart begins streaming without waiting for a start command.
	Autostart bool
	Logger    *logging.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server serves the scripted scene to any number of clients.
type Server struct {
	scene    *Scene
	interval time.Duration
	logger   *logging.Logger

	mu      sync.RWMutex
	clients map[*client]bool
}

// New creates a server. Call Run to start broadcasting.
func New(opts Options) *Server {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.WithComponent("devserver")
	}
	s := &Server{
		scene:    NewScene(opts.Agents),
		interval: opts.FrameInterval,
		logger:   opts.Logger,
		clients:  make(map[*client]bool),
	}
	if opts.Autostart {
		s.scene.command(protocol.ActionStart, nil)
	}
	return s
}

// Scene exposes the scripted world.
func (s *Server) Scene() *Scene { return s.scene }

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run broadcasts scene frames until ctx is done.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if frame := s.scene.Step(); frame != nil {
				s.broadcast(frame)
			}
		}
	}
}

// ListenAndServe serves on addr and broadcasts until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.closeAll()
	}()

	s.logger.Info("dev server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256)}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	s.logger.Info("client connected", "remote", r.RemoteAddr, "agent", r.UserAgent())

	go c.writePump()
	s.readPump(c)
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) broadcast(frame []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- frame:
		default:
			// slow client, drop the frame
		}
	}
}

func (s *Server) reply(c *client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshal reply", "error", err)
		return
	}
	s.replyRaw(c, b)
}

func (s *Server) replyRaw(c *client, b []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.clients[c] {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func (s *Server) readPump(c *client) {
	defer s.unregister(c)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			s.logger.Debug("client disconnected", "error", err)
			return
		}
		s.handle(c, message)
	}
}

func (s *Server) handle(c *client, message []byte) {
	var msg struct {
		Type      string          `json:"type"`
		Action    string          `json:"action"`
		Recording json.RawMessage `json:"recording"`
		Name      string          `json:"name"`
		Value     float64         `json:"value"`
		Code      string          `json:"code"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		s.logger.Warn("bad client frame", "error", err)
		return
	}

	s.logger.Debug("intent", "type", msg.Type, "action", msg.Action, "name", msg.Name)

	switch msg.Type {
	case protocol.TypeCommand:
		s.scene.command(msg.Action, msg.Recording)
	case protocol.TypeParameter:
		s.scene.setParameter(msg.Name, msg.Value)
	case protocol.TypePattern:
		s.scene.setPattern(msg.Name)
	case protocol.TypeGetRecording:
		s.reply(c, protocol.RecordingData{
			Type:      protocol.TypeRecordingData,
			Recording: s.scene.recordingPayload(),
		})
		return
	case protocol.TypeCustomBehavior:
		s.reply(c, checkBehavior(msg.Action, msg.Code))
		return
	default:
		return
	}

	s.replyRaw(c, s.scene.Frame())
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
