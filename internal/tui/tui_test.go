package tui

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/swarmctl/internal/consumer"
	"grimm.is/swarmctl/internal/gate"
	"grimm.is/swarmctl/internal/logging"
	"grimm.is/swarmctl/internal/protocol"
	"grimm.is/swarmctl/internal/recording"
)

type fakeBackend struct {
	mu       sync.Mutex
	field    consumer.FieldSnapshot
	status   Status
	params   map[string]float64
	patterns []string
	commands []string
	paramErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{params: map[string]float64{}, status: Status{State: StatusConnected}}
}

func (f *fakeBackend) Field() consumer.FieldSnapshot { return f.field }
func (f *fakeBackend) Analytics() consumer.AnalyticsView {
	return consumer.AnalyticsView{Agents: len(f.field.Agents)}
}
func (f *fakeBackend) Behavior() (consumer.BehaviorResult, bool) {
	return consumer.BehaviorResult{}, false
}
func (f *fakeBackend) Status() Status                 { return f.status }
func (f *fakeBackend) Logs(int) []logging.AppLogEntry { return nil }
func (f *fakeBackend) Rules() []gate.Rule             { return gate.DefaultRules() }
func (f *fakeBackend) Command(action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, action)
	return nil
}
func (f *fakeBackend) RequestRecording() error { return nil }
func (f *fakeBackend) Pattern(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, name)
	return nil
}
func (f *fakeBackend) SetParameter(name string, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params[name] = value
	return f.paramErr
}
func (f *fakeBackend) CustomBehavior(string, string) error        { return nil }
func (f *fakeBackend) Reconnect() error                           { return nil }
func (f *fakeBackend) Recordings() ([]recording.Recording, error) { return nil, nil }
func (f *fakeBackend) PlayRecording(string) error                 { return nil }
func (f *fakeBackend) DeleteRecording(string) error               { return nil }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and any batch it expands to, returning the messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestArrow(t *testing.T) {
	assert.Equal(t, '→', Arrow(0))
	assert.Equal(t, '↓', Arrow(math.Pi/2))
	assert.Equal(t, '←', Arrow(math.Pi))
	assert.Equal(t, '↑', Arrow(-math.Pi/2))
	assert.Equal(t, '→', Arrow(2*math.Pi))
}

func TestCellOf_ScalesAndClamps(t *testing.T) {
	c, r := CellOf(400, 300, 80, 30)
	assert.Equal(t, 40, c)
	assert.Equal(t, 15, r)

	c, r = CellOf(WorldWidth, -5, 80, 30)
	assert.Equal(t, 79, c)
	assert.Equal(t, 0, r)
}

func TestRenderField_PlacesAgentsOverTrail(t *testing.T) {
	snap := consumer.FieldSnapshot{
		Agents: []protocol.Agent{{X: 0, Y: 0, Angle: 0, Role: protocol.RoleNormal}},
		Trail:  []consumer.TrailPoint{{X: 0, Y: 0, Age: 3}, {X: 790, Y: 590, Age: 1}},
		MaxAge: 50,
	}
	out := RenderField(snap, 10, 4)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "→")
	assert.NotContains(t, lines[0], "·")
	assert.Contains(t, lines[3], "·")

	assert.Empty(t, RenderField(snap, 0, 4))
}

func TestStep(t *testing.T) {
	rules := map[string]gate.Rule{}
	for _, r := range gate.DefaultRules() {
		rules[r.Name] = r
	}
	assert.Equal(t, 1.0, Step(rules["agentCount"]))
	assert.Equal(t, 0.5, Step(rules["agentSpeed"]))
	assert.Equal(t, 0.25, Step(rules["waveFrequency"]))
	assert.Equal(t, 1.0, Step(rules["waveAmplitude"]))
}

func TestModel_TabCyclesViews(t *testing.T) {
	m := NewModel(newFakeBackend())
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewParameters, next.(Model).ActiveView)

	next, _ = next.(Model).Update(runes("4"))
	assert.Equal(t, ViewBehavior, next.(Model).ActiveView)

	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewSwarm, next.(Model).ActiveView)
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(newFakeBackend())
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_NudgeUpdatesDisplayEvenWhenRejected(t *testing.T) {
	b := newFakeBackend()
	b.paramErr = errors.New("out of range")
	m := NewModel(b)

	next, _ := m.Update(runes("2"))
	next, cmd := next.(Model).Update(runes("+"))
	model := next.(Model)

	assert.Equal(t, 21.0, model.Parameters.Values["agentCount"])
	msgs := run(cmd)
	assert.Equal(t, 21.0, b.params["agentCount"])

	require.NotEmpty(t, msgs)
	flash, ok := msgs[0].(flashMsg)
	require.True(t, ok)
	assert.True(t, flash.err)

	next, _ = model.Update(flash)
	assert.Equal(t, "out of range", next.(Model).Flash)
	assert.Equal(t, 21.0, next.(Model).Parameters.Values["agentCount"])
}

func TestModel_NudgeClampsToRange(t *testing.T) {
	b := newFakeBackend()
	p := NewParametersModel(b)
	p.Values["agentCount"] = 50

	p, cmd := p.Nudge(1)
	run(cmd)
	assert.Equal(t, 50.0, p.Values["agentCount"])
	assert.Equal(t, 50.0, b.params["agentCount"])
}

func TestSwarm_KeysSendIntents(t *testing.T) {
	b := newFakeBackend()
	m := NewModel(b)

	_, cmd := m.Update(runes("s"))
	run(cmd)
	_, cmd = m.Update(runes("m"))
	run(cmd)

	assert.Equal(t, []string{protocol.ActionStart}, b.commands)
	assert.Equal(t, []string{"circle"}, b.patterns)
}

func TestModel_TickRefreshesField(t *testing.T) {
	b := newFakeBackend()
	b.field = consumer.FieldSnapshot{Agents: []protocol.Agent{{X: 1, Y: 1}}}
	b.status = Status{State: StatusGaveUp}

	m := NewModel(b)
	next, cmd := m.Update(tickMsg{})
	assert.NotNil(t, cmd)

	model := next.(Model)
	assert.Len(t, model.Swarm.Field.Agents, 1)
	assert.Equal(t, StatusGaveUp, model.Swarm.Status.State)
	assert.Contains(t, model.View(), "gave up")
}

func TestStatusBadge(t *testing.T) {
	assert.Contains(t, StatusBadge(Status{State: StatusReconnecting, Retries: 3}), "reconnecting (3)")
	assert.Contains(t, StatusBadge(Status{State: StatusConnected}), "connected")
}

func TestBehaviorForm_Validators(t *testing.T) {
	assert.Error(t, Validators["behavior"]("print(1)"))
	assert.NoError(t, Validators["behavior"](DefaultBehavior))
	assert.Error(t, Validators["required"]("  "))

	m := NewBehaviorModel(newFakeBackend())
	assert.False(t, m.Editing())
	m, _ = m.Update(runes("e"))
	assert.True(t, m.Editing())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Editing())
}
