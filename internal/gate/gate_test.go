package gate

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/swarmctl/internal/clock"
	"grimm.is/swarmctl/internal/events"
	"grimm.is/swarmctl/internal/protocol"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []protocol.Intent
	at   []time.Time
	clk  clock.Clock
	err  error
}

func (s *recordingSender) Send(in protocol.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, in)
	if s.clk != nil {
		s.at = append(s.at, s.clk.Now())
	}
	return nil
}

func (s *recordingSender) intents() []protocol.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Intent(nil), s.sent...)
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestGate(opts ...Option) (*Gate, *recordingSender, *clock.MockClock) {
	mc := clock.NewMockClock(t0)
	s := &recordingSender{clk: mc}
	g := New(s, append([]Option{WithClock(mc)}, opts...)...)
	return g, s, mc
}

func TestDebounce_CoalescesBurstToLastValue(t *testing.T) {
	g, s, mc := newTestGate()

	require.NoError(t, g.SetParameter("agentSpeed", 2))
	mc.Advance(30 * time.Millisecond)
	require.NoError(t, g.SetParameter("agentSpeed", 4))
	mc.Advance(30 * time.Millisecond)
	require.NoError(t, g.SetParameter("agentSpeed", 6))

	mc.Advance(99 * time.Millisecond)
	assert.Empty(t, s.intents(), "nothing before the quiet window ends")

	mc.Advance(time.Millisecond)
	require.Len(t, s.intents(), 1)
	assert.Equal(t, protocol.Parameter{Name: "agentSpeed", Value: 6}, s.intents()[0])
	assert.False(t, s.at[0].Before(t0.Add(160*time.Millisecond)))

	mc.Advance(time.Second)
	assert.Len(t, s.intents(), 1, "superseded values never fire")
	assert.Empty(t, g.Pending())
}

func TestDebounce_ParametersAreIndependent(t *testing.T) {
	g, s, mc := newTestGate()

	g.SetParameter("swarmCohesion", 3)
	mc.Advance(50 * time.Millisecond)
	g.SetParameter("swarmAlignment", 7)

	mc.Advance(50 * time.Millisecond)
	require.Len(t, s.intents(), 1)
	assert.Equal(t, protocol.Parameter{Name: "swarmCohesion", Value: 3}, s.intents()[0])

	mc.Advance(50 * time.Millisecond)
	require.Len(t, s.intents(), 2)
	assert.Equal(t, protocol.Parameter{Name: "swarmAlignment", Value: 7}, s.intents()[1])
}

func TestDebounce_PublishesCoalesced(t *testing.T) {
	hub := events.NewHub()
	ch := hub.Subscribe(8, events.EventCoalesced)
	g, _, _ := newTestGate(WithHub(hub))

	g.SetParameter("waveAmplitude", 10)
	g.SetParameter("waveAmplitude", 20)

	select {
	case e := <-ch:
		d := e.Data.(events.IntentData)
		assert.Equal(t, "waveAmplitude", d.Name)
		assert.Equal(t, 10.0, d.Value)
	default:
		t.Fatal("expected a coalesced event")
	}
}

func TestImmediate_EveryChangeIsSent(t *testing.T) {
	g, s, _ := newTestGate()

	for _, v := range []float64{10, 11, 12, 13, 14} {
		require.NoError(t, g.SetParameter("agentCount", v))
	}

	got := s.intents()
	require.Len(t, got, 5)
	for i, v := range []float64{10, 11, 12, 13, 14} {
		assert.Equal(t, protocol.Parameter{Name: "agentCount", Value: v}, got[i])
	}
}

func TestRangeValidation(t *testing.T) {
	hub := events.NewHub()
	faults := hub.Subscribe(8, events.EventValidationFault)
	g, s, _ := newTestGate(WithHub(hub))

	err := g.SetParameter("agentCount", 51)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Empty(t, s.intents())
	assert.Len(t, faults, 1)

	require.NoError(t, g.SetParameter("agentCount", 50))
	assert.Equal(t, []protocol.Intent{protocol.Parameter{Name: "agentCount", Value: 50}}, s.intents())
	assert.Len(t, faults, 1)
}

func TestRangeValidation_DebouncedNeverScheduled(t *testing.T) {
	g, s, mc := newTestGate()

	assert.ErrorIs(t, g.SetParameter("waveFrequency", 0.05), ErrOutOfRange)
	assert.Equal(t, 0, mc.Pending())
	mc.Advance(time.Second)
	assert.Empty(t, s.intents())
}

func TestDisplayHookRunsFirst(t *testing.T) {
	var shown []float64
	hook := func(name string, v float64) { shown = append(shown, v) }
	g, s, _ := newTestGate(WithDisplayHook(hook))

	g.SetParameter("agentCount", 99)
	g.SetParameter("agentCount", 20)
	g.SetParameter("nope", 1)

	assert.Equal(t, []float64{99, 20, 1}, shown)
	assert.Len(t, s.intents(), 1)
}

func TestUnknownParameter(t *testing.T) {
	g, s, _ := newTestGate()
	assert.ErrorIs(t, g.SetParameter("gravity", 1), ErrUnknownParameter)
	assert.Empty(t, s.intents())
}

func TestFlushAndStop(t *testing.T) {
	g, s, mc := newTestGate()

	g.SetParameter("waveAmplitude", 12)
	g.SetParameter("agentSpeed", 3)
	assert.Equal(t, map[string]float64{"waveAmplitude": 12, "agentSpeed": 3}, g.Pending())

	require.NoError(t, g.Flush())
	assert.Equal(t, []protocol.Intent{
		protocol.Parameter{Name: "agentSpeed", Value: 3},
		protocol.Parameter{Name: "waveAmplitude", Value: 12},
	}, s.intents(), "flush follows table order")

	mc.Advance(time.Second)
	assert.Len(t, s.intents(), 2, "flushed timers do not fire again")

	g.SetParameter("swarmCohesion", 1)
	g.Stop()
	mc.Advance(time.Second)
	assert.Len(t, s.intents(), 2)
	assert.Empty(t, g.Pending())
}

func TestDiscreteIntents(t *testing.T) {
	g, s, _ := newTestGate()

	rec := json.RawMessage(`[{"agents":[]}]`)
	require.NoError(t, g.Command(protocol.ActionStartPlayback, rec))
	require.NoError(t, g.RequestRecording())
	require.NoError(t, g.Pattern("circle"))
	require.NoError(t, g.CustomBehavior(protocol.BehaviorTest, "def update_agents(agents): pass"))

	assert.ErrorIs(t, g.Command("explode", nil), ErrInvalidAction)
	assert.ErrorIs(t, g.CustomBehavior("deploy", ""), ErrInvalidAction)
	assert.ErrorIs(t, g.Pattern(""), ErrInvalidAction)

	assert.Equal(t, []protocol.Intent{
		protocol.Command{Action: protocol.ActionStartPlayback, Recording: rec},
		protocol.GetRecording{},
		protocol.Pattern{Name: "circle"},
		protocol.CustomBehavior{Action: protocol.BehaviorTest, Code: "def update_agents(agents): pass"},
	}, s.intents())
}

func TestSendErrorsPropagate(t *testing.T) {
	g, s, _ := newTestGate()
	s.err = errors.New("session not open")

	assert.Error(t, g.Command(protocol.ActionStart, nil))
	assert.Error(t, g.SetParameter("agentCount", 10))
}

func TestCustomRules(t *testing.T) {
	g, s, _ := newTestGate(WithRules([]Rule{
		{Name: "agentSpeed", Policy: PolicyImmediate, Min: 0, Max: 100},
	}))

	require.NoError(t, g.SetParameter("agentSpeed", 80))
	assert.Len(t, s.intents(), 1)
	assert.ErrorIs(t, g.SetParameter("agentCount", 10), ErrUnknownParameter)
	assert.Len(t, g.Rules(), 1)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("immediate")
	require.NoError(t, err)
	assert.Equal(t, PolicyImmediate, p)

	_, err = ParsePolicy("throttled")
	assert.Error(t, err)
}
