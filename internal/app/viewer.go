package app

import (
	"context"
	"errors"
	"time"

	"grimm.is/swarmctl/internal/consumer"
	"grimm.is/swarmctl/internal/gate"
	"grimm.is/swarmctl/internal/logging"
	"grimm.is/swarmctl/internal/protocol"
	"grimm.is/swarmctl/internal/recording"
	"grimm.is/swarmctl/internal/session"
	"grimm.is/swarmctl/internal/tui"
)

// ErrNoStore is returned by library operations when the app was built
// without a recording store.
var ErrNoStore = errors.New("recording library is not open")

const storeTimeout = 5 * time.Second

// ViewerBackend adapts an App to the terminal viewer.
type ViewerBackend struct {
	app  *App
	logs *logging.RingBuffer
}

var _ tui.Backend = (*ViewerBackend)(nil)

// NewViewerBackend wraps a. Log lines come from the process ring buffer.
func NewViewerBackend(a *App) *ViewerBackend {
	return &ViewerBackend{app: a, logs: logging.AppLogs()}
}

func (b *ViewerBackend) Field() consumer.FieldSnapshot     { return b.app.Field.Snapshot() }
func (b *ViewerBackend) Analytics() consumer.AnalyticsView { return b.app.Analytics.View() }

func (b *ViewerBackend) Behavior() (consumer.BehaviorResult, bool) {
	return b.app.Behavior.Last()
}

// Status maps the session state onto the viewer's connection states.
func (b *ViewerBackend) Status() tui.Status {
	s := b.app.Session
	st := tui.Status{
		URL:     s.URL(),
		Retries: s.Retries(),
		Metrics: b.app.Metrics.Snapshot(),
	}
	switch {
	case s.State() == session.StateOpen:
		st.State = tui.StatusConnected
	case s.GaveUp():
		st.State = tui.StatusGaveUp
	case st.Retries > 0:
		st.State = tui.StatusReconnecting
	case s.State() == session.StateConnecting:
		st.State = tui.StatusConnecting
	default:
		st.State = tui.StatusClosed
	}
	return st
}

func (b *ViewerBackend) Logs(n int) []logging.AppLogEntry { return b.logs.Last(n) }

func (b *ViewerBackend) Rules() []gate.Rule { return b.app.Gate.Rules() }

func (b *ViewerBackend) Command(action string) error {
	return b.app.Gate.Command(action, nil)
}

func (b *ViewerBackend) RequestRecording() error { return b.app.Gate.RequestRecording() }

func (b *ViewerBackend) Pattern(name string) error { return b.app.Gate.Pattern(name) }

func (b *ViewerBackend) SetParameter(name string, value float64) error {
	return b.app.Gate.SetParameter(name, value)
}

func (b *ViewerBackend) CustomBehavior(action, code string) error {
	return b.app.Gate.CustomBehavior(action, code)
}

func (b *ViewerBackend) Reconnect() error { return b.app.Connect() }

func (b *ViewerBackend) Recordings() ([]recording.Recording, error) {
	if b.app.Store == nil {
		return nil, ErrNoStore
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	return b.app.Store.List(ctx)
}

// PlayRecording asks the server to replay a stored recording.
func (b *ViewerBackend) PlayRecording(id string) error {
	if b.app.Store == nil {
		return ErrNoStore
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	rec, err := b.app.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	return b.app.Gate.Command(protocol.ActionStartPlayback, rec.Payload)
}

func (b *ViewerBackend) DeleteRecording(id string) error {
	if b.app.Store == nil {
		return ErrNoStore
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	return b.app.Store.Delete(ctx, id)
}
