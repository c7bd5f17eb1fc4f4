package tui

import (
	"grimm.is/swarmctl/internal/consumer"
	"grimm.is/swarmctl/internal/gate"
	"grimm.is/swarmctl/internal/logging"
	"grimm.is/swarmctl/internal/metrics"
	"grimm.is/swarmctl/internal/recording"
)

// Connection states shown in the status card.
const (
	StatusConnecting   = "connecting"
	StatusConnected    = "connected"
	StatusReconnecting = "reconnecting"
	StatusGaveUp       = "gave up"
	StatusClosed       = "closed"
)

// Status is the connection summary for the status card.
type Status struct {
	State   string
	URL     string
	Retries int
	Metrics metrics.Snapshot
}

// Backend is everything the viewer reads and every action it can take.
// Reads are polled on each render tick.
type Backend interface {
	Field() consumer.FieldSnapshot
	Analytics() consumer.AnalyticsView
	Behavior() (consumer.BehaviorResult, bool)
	Status() Status
	Logs(n int) []logging.AppLogEntry

	Rules() []gate.Rule
	Command(action string) error
	RequestRecording() error
	Pattern(name string) error
	SetParameter(name string, value float64) error
	CustomBehavior(action, code string) error
	Reconnect() error

	Recordings() ([]recording.Recording, error)
	PlayRecording(id string) error
	DeleteRecording(id string) error
}
