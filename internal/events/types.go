// Package events provides the pub/sub status bus for swarmctl.
// Connection changes, faults, and diagnostics flow through this hub so the
// viewer, the metrics bridge, and the CLI can observe them without the core
// components knowing who is listening.
package events

import "time"

// EventType identifies the category of event.
type EventType string

// Event types.
const (
	// Session lifecycle
	EventConnected    EventType = "session.connected"
	EventDisconnected EventType = "session.disconnected"
	EventReconnecting EventType = "session.reconnecting"
	EventGaveUp       EventType = "session.gave_up"

	// Faults
	EventProtocolFault   EventType = "fault.protocol"   // Malformed inbound frame
	EventValidationFault EventType = "fault.validation" // Out-of-range or unknown parameter, bad action
	EventConsumerFault   EventType = "fault.consumer"   // Subscriber returned an error or panicked
	EventSendFault       EventType = "fault.send"       // Outbound intent could not be serialized or written

	// Traffic and diagnostics
	EventFrameReceived EventType = "router.frame"
	EventUpdateRate    EventType = "router.update_rate"
	EventIntentSent    EventType = "intent.sent"
	EventIntentDropped EventType = "intent.dropped"
	EventCoalesced     EventType = "gate.coalesced"
)

// FaultEvents lists every fault type.
var FaultEvents = []EventType{
	EventProtocolFault,
	EventValidationFault,
	EventConsumerFault,
	EventSendFault,
}

// Event is the core message passed through the event bus.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"` // Component that emitted: "session", "router", "gate"
	Data      interface{} `json:"data"`   // Type-specific payload
}

// ──────────────────────────────────────────────────────────────────────────────
// Type-Specific Payloads
// ──────────────────────────────────────────────────────────────────────────────

// ConnectionData is the payload for session lifecycle events.
type ConnectionData struct {
	URL     string        `json:"url"`
	Retries int           `json:"retries"`
	Delay   time.Duration `json:"delay,omitempty"` // Backoff before the next attempt
	Error   string        `json:"error,omitempty"`
}

// FaultData is the payload for every fault event.
type FaultData struct {
	MessageType string `json:"message_type,omitempty"` // Inbound type or intent type involved
	Name        string `json:"name,omitempty"`         // Parameter or subscriber name
	Error       string `json:"error"`
}

// FrameData is the payload for EventFrameReceived.
type FrameData struct {
	MessageType string `json:"message_type"`
	Bytes       int    `json:"bytes"`
}

// UpdateRateData is the payload for EventUpdateRate.
type UpdateRateData struct {
	FramesPerSecond float64 `json:"fps"`
	Agents          int     `json:"agents"`
	Total           uint64  `json:"total"`
}

// IntentData is the payload for outbound traffic events.
type IntentData struct {
	IntentType string  `json:"intent_type"`
	Name       string  `json:"name,omitempty"`
	Value      float64 `json:"value,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}
