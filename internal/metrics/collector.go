package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/swarmctl/internal/events"
	"grimm.is/swarmctl/internal/logging"
)

// Collector turns hub events into Prometheus updates and keeps a small
// snapshot that the viewer and the CLI can read without scraping.
type Collector struct {
	registry *Registry
	hub      *events.Hub
	logger   *logging.Logger

	mu       sync.RWMutex
	snapshot Snapshot
	sub      <-chan events.Event
}

// Snapshot is the collector's running summary.
type Snapshot struct {
	Connected       bool      `json:"connected"`
	Frames          uint64    `json:"frames"`
	Discarded       uint64    `json:"discarded"`
	ConsumerFaults  uint64    `json:"consumer_faults"`
	Sent            uint64    `json:"sent"`
	Dropped         uint64    `json:"dropped"`
	Rejected        uint64    `json:"rejected"`
	Coalesced       uint64    `json:"coalesced"`
	Reconnects      uint64    `json:"reconnects"`
	FramesPerSecond float64   `json:"fps"`
	Agents          int       `json:"agents"`
	LastEvent       time.Time `json:"last_event"`
	// Missed counts hub events lost because the collector fell behind.
	Missed uint64 `json:"missed"`
}

// NewCollector creates a collector over hub. A nil registry gets a
// private one.
func NewCollector(hub *events.Hub, registry *Registry, logger *logging.Logger) *Collector {
	if registry == nil {
		registry = NewRegistry(prometheus.NewRegistry())
	}
	if logger == nil {
		logger = logging.WithComponent("metrics")
	}
	return &Collector{
		registry: registry,
		hub:      hub,
		logger:   logger,
	}
}

// Run consumes hub events until ctx is done.
func (c *Collector) Run(ctx context.Context) {
	ch := c.hub.Subscribe(1024)
	c.mu.Lock()
	c.sub = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.snapshot.Missed = c.hub.Dropped(ch)
		c.sub = nil
		c.mu.Unlock()
		c.hub.Unsubscribe(ch)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ch:
			c.Observe(e)
		}
	}
}

// Observe applies a single event.
func (c *Collector) Observe(e events.Event) {
	r := c.registry

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.LastEvent = e.Timestamp

	switch e.Type {
	case events.EventConnected:
		r.Connected.Set(1)
		c.snapshot.Connected = true
	case events.EventDisconnected:
		r.Connected.Set(0)
		c.snapshot.Connected = false
	case events.EventReconnecting:
		r.ReconnectAttempts.Inc()
		c.snapshot.Reconnects++
	case events.EventGaveUp:
		r.GaveUp.Inc()
		r.Connected.Set(0)
		c.snapshot.Connected = false

	case events.EventFrameReceived:
		if d, ok := e.Data.(events.FrameData); ok {
			r.FramesTotal.WithLabelValues(d.MessageType).Inc()
		}
		c.snapshot.Frames++
	case events.EventUpdateRate:
		if d, ok := e.Data.(events.UpdateRateData); ok {
			r.UpdateRate.Set(d.FramesPerSecond)
			r.Agents.Set(float64(d.Agents))
			c.snapshot.FramesPerSecond = d.FramesPerSecond
			c.snapshot.Agents = d.Agents
		}
	case events.EventProtocolFault:
		r.FramesDiscarded.WithLabelValues(faultType(e)).Inc()
		c.snapshot.Discarded++
	case events.EventConsumerFault:
		r.ConsumerFaults.WithLabelValues(faultType(e)).Inc()
		c.snapshot.ConsumerFaults++

	case events.EventIntentSent:
		if d, ok := e.Data.(events.IntentData); ok {
			r.IntentsSent.WithLabelValues(d.IntentType).Inc()
		}
		c.snapshot.Sent++
	case events.EventIntentDropped:
		if d, ok := e.Data.(events.IntentData); ok {
			r.IntentsDropped.WithLabelValues(d.IntentType).Inc()
		}
		c.snapshot.Dropped++
	case events.EventValidationFault:
		name := ""
		if d, ok := e.Data.(events.FaultData); ok {
			name = d.Name
		}
		r.ValidationFaults.WithLabelValues(name).Inc()
		c.snapshot.Rejected++
	case events.EventCoalesced:
		if d, ok := e.Data.(events.IntentData); ok {
			r.Coalesced.WithLabelValues(d.Name).Inc()
		}
		c.snapshot.Coalesced++
	case events.EventSendFault:
		c.logger.Debug("send fault observed", "source", e.Source)
	}
}

// Snapshot returns a copy of the running summary.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := c.snapshot
	if c.sub != nil {
		snap.Missed = c.hub.Dropped(c.sub)
	}
	return snap
}

func faultType(e events.Event) string {
	if d, ok := e.Data.(events.FaultData); ok && d.MessageType != "" {
		return d.MessageType
	}
	return "unknown"
}
