package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"grimm.is/swarmctl/internal/consumer"
	"grimm.is/swarmctl/internal/gate"
	"grimm.is/swarmctl/internal/logging"
	"grimm.is/swarmctl/internal/protocol"
)

const (
	sidebarWidth = 34
	logLines     = 6
)

// SwarmModel is the live view: field, status, analytics and recent logs.
type SwarmModel struct {
	Backend Backend

	Field     consumer.FieldSnapshot
	Analytics consumer.AnalyticsView
	Behavior  consumer.BehaviorResult
	HasResult bool
	Status    Status
	Logs      []logging.AppLogEntry

	pattern int
	Width   int
	Height  int
}

func NewSwarmModel(backend Backend) SwarmModel {
	return SwarmModel{Backend: backend, Width: 100, Height: 36}
}

// Refresh re-reads every consumer.
func (m SwarmModel) Refresh() SwarmModel {
	m.Field = m.Backend.Field()
	m.Analytics = m.Backend.Analytics()
	m.Behavior, m.HasResult = m.Backend.Behavior()
	m.Status = m.Backend.Status()
	m.Logs = m.Backend.Logs(logLines)
	return m
}

// Pattern returns the last selected pattern.
func (m SwarmModel) Pattern() string {
	return gate.Patterns[m.pattern%len(gate.Patterns)]
}

func (m SwarmModel) Update(msg tea.Msg) (SwarmModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tea.KeyMsg:
		b := m.Backend
		command := func(action string) tea.Cmd {
			return act(action, func() error { return b.Command(action) })
		}
		switch {
		case key.Matches(msg, keys.Start):
			return m, command(protocol.ActionStart)
		case key.Matches(msg, keys.Stop):
			return m, command(protocol.ActionStop)
		case key.Matches(msg, keys.Reset):
			return m, command(protocol.ActionReset)
		case key.Matches(msg, keys.Record):
			return m, command(protocol.ActionStartRecording)
		case key.Matches(msg, keys.StopRec):
			return m, command(protocol.ActionStopRecording)
		case key.Matches(msg, keys.StopPlay):
			return m, command(protocol.ActionStopPlayback)
		case key.Matches(msg, keys.Save):
			return m, act("recording requested", b.RequestRecording)
		case key.Matches(msg, keys.Pattern):
			m.pattern = (m.pattern + 1) % len(gate.Patterns)
			name := m.Pattern()
			return m, act("pattern "+name, func() error { return b.Pattern(name) })
		}
	}
	return m, nil
}

func (m SwarmModel) fieldSize() (int, int) {
	cols := m.Width - sidebarWidth - 10
	rows := m.Height - logLines - 12
	return max(cols, 20), max(rows, 8)
}

func (m SwarmModel) View() string {
	cols, rows := m.fieldSize()
	field := StyleFieldBox.Render(RenderField(m.Field, cols, rows))

	sidebar := lipgloss.JoinVertical(lipgloss.Left,
		m.statusCard(),
		m.analyticsCard(),
		m.behaviorCard(),
	)

	top := lipgloss.JoinHorizontal(lipgloss.Top, field, sidebar)
	return lipgloss.JoinVertical(lipgloss.Left, top, m.logPane(cols+sidebarWidth))
}

// StatusBadge is the coloured connection indicator.
func StatusBadge(s Status) string {
	switch s.State {
	case StatusConnected:
		return StyleStatusGood.Render("● " + s.State)
	case StatusReconnecting:
		return StyleStatusWarn.Render(fmt.Sprintf("◌ %s (%d)", s.State, s.Retries))
	case StatusConnecting:
		return StyleStatusWarn.Render("◌ " + s.State)
	case StatusGaveUp:
		return StyleStatusBad.Render("✕ " + s.State)
	default:
		return StyleStatusBad.Render("○ " + s.State)
	}
}

func (m SwarmModel) statusCard() string {
	s := m.Status
	lines := []string{
		StyleTitle.Render("Connection"),
		StatusBadge(s),
		StyleSubtitle.Render(s.URL),
		fmt.Sprintf("fps %.1f  frames %d", s.Metrics.FramesPerSecond, s.Metrics.Frames),
		fmt.Sprintf("sent %d  dropped %d", s.Metrics.Sent, s.Metrics.Dropped),
	}
	if s.State == StatusGaveUp {
		lines = append(lines, StyleStatusBad.Render("ctrl+r to retry"))
	}
	return StyleCard.Width(sidebarWidth - 4).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m SwarmModel) analyticsCard() string {
	v := m.Analytics
	lines := []string{StyleTitle.Render("Analytics"), fmt.Sprintf("agents %d", v.Agents)}

	if a := v.Analytics; a != nil {
		pp := "N/A"
		if v.HasPredatorPrey {
			pp = fmt.Sprintf("%.2f", v.PredatorPrey)
		}
		lines = append(lines,
			fmt.Sprintf("%s %d  %s %d  %s %d",
				RoleStyle(protocol.RoleNormal).Render("normal"), a.RoleCounts.Normal,
				RoleStyle(protocol.RolePredator).Render("pred"), a.RoleCounts.Predator,
				RoleStyle(protocol.RolePrey).Render("prey"), a.RoleCounts.Prey),
			fmt.Sprintf("avg distance %.2f", a.AvgDistance),
			fmt.Sprintf("predator-prey %s", pp),
			fmt.Sprintf("cohesion  %s", meter(a.CohesionScore)),
			fmt.Sprintf("alignment %s", meter(a.AlignmentScore)),
			fmt.Sprintf("zones %d/%d/%d", a.InteractionZones.Close, a.InteractionZones.Medium, a.InteractionZones.Far),
		)
	} else {
		lines = append(lines, StyleSubtitle.Render("no analytics yet"))
	}
	return StyleCard.Width(sidebarWidth - 4).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m SwarmModel) behaviorCard() string {
	body := StyleSubtitle.Render("no behavior submitted")
	if m.HasResult {
		if m.Behavior.Success {
			body = StyleStatusGood.Render(m.Behavior.Message)
		} else {
			body = StyleStatusBad.Render(m.Behavior.Message)
		}
	}
	return StyleCard.Width(sidebarWidth - 4).Render(lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render("Behavior"), body))
}

func (m SwarmModel) logPane(width int) string {
	lines := make([]string, 0, logLines+1)
	lines = append(lines, StyleTitle.Render("Log"))
	for _, e := range m.Logs {
		line := fmt.Sprintf("%s %-7s %s", e.Timestamp.Format("15:04:05"), e.Source, e.Message)
		if len(line) > width && width > 3 {
			line = line[:width-3] + "..."
		}
		lines = append(lines, LevelStyle(e.Level).Render(line))
	}
	return StyleCard.Render(strings.Join(lines, "\n"))
}

// meter renders a 0..1 score as a ten cell bar.
func meter(v float64) string {
	const w = 10
	filled := int(v*w + 0.5)
	filled = clamp(filled, 0, w)
	return strings.Repeat("█", filled) + strings.Repeat("░", w-filled) + fmt.Sprintf(" %.2f", v)
}
