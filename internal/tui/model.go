// Package tui is the terminal swarm viewer: a bubbletea program reading the
// consumers on every tick and sending operator actions through the gate.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"grimm.is/swarmctl/internal/brand"
)

// View is the active screen.
type View int

const (
	ViewSwarm View = iota
	ViewParameters
	ViewRecordings
	ViewBehavior
	viewCount
)

// TickInterval is how often the viewer re-reads the consumers.
const TickInterval = 50 * time.Millisecond

type tickMsg time.Time

// flashMsg shows a one-line result of the last action.
type flashMsg struct {
	text string
	err  bool
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// act runs an action off the update loop and reports its outcome.
func act(ok string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return flashMsg{text: err.Error(), err: true}
		}
		return flashMsg{text: ok}
	}
}

// Model is the viewer state.
type Model struct {
	Backend Backend

	ActiveView View
	Width      int
	Height     int

	Swarm      SwarmModel
	Parameters ParametersModel
	Library    LibraryModel
	Editor     BehaviorModel

	Flash    string
	FlashErr bool
	help     help.Model
}

// NewModel creates the viewer over backend.
func NewModel(backend Backend) Model {
	return Model{
		Backend:    backend,
		ActiveView: ViewSwarm,
		Swarm:      NewSwarmModel(backend),
		Parameters: NewParametersModel(backend),
		Library:    NewLibraryModel(backend),
		Editor:     NewBehaviorModel(backend),
		help:       help.New(),
	}
}

// Init starts the render tick and loads the recordings list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.Library.Init(), m.Editor.Init())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		m.Swarm = m.Swarm.Refresh()
		return m, tick()

	case flashMsg:
		m.Flash, m.FlashErr = msg.text, msg.err
		return m, nil

	case tea.KeyMsg:
		editing := m.ActiveView == ViewBehavior && m.Editor.Editing()
		if !editing {
			switch {
			case key.Matches(msg, keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, keys.NextView):
				return m.switchTo((m.ActiveView + 1) % viewCount)
			case key.Matches(msg, keys.Reconnect):
				return m, act("reconnecting", m.Backend.Reconnect)
			}
			switch msg.String() {
			case "1":
				return m.switchTo(ViewSwarm)
			case "2":
				return m.switchTo(ViewParameters)
			case "3":
				return m.switchTo(ViewRecordings)
			case "4":
				return m.switchTo(ViewBehavior)
			}
		} else if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width

		var cmd tea.Cmd
		m.Swarm, cmd = m.Swarm.Update(msg)
		cmds = append(cmds, cmd)
		m.Parameters, cmd = m.Parameters.Update(msg)
		cmds = append(cmds, cmd)
		m.Library, cmd = m.Library.Update(msg)
		cmds = append(cmds, cmd)
		m.Editor, cmd = m.Editor.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case recordingsMsg, recordingsErrMsg:
		var cmd tea.Cmd
		m.Library, cmd = m.Library.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.ActiveView {
	case ViewSwarm:
		m.Swarm, cmd = m.Swarm.Update(msg)
	case ViewParameters:
		m.Parameters, cmd = m.Parameters.Update(msg)
	case ViewRecordings:
		m.Library, cmd = m.Library.Update(msg)
	case ViewBehavior:
		m.Editor, cmd = m.Editor.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// switchTo activates v. The recordings list is reloaded on entry since
// saves arrive in the background.
func (m Model) switchTo(v View) (tea.Model, tea.Cmd) {
	m.ActiveView = v
	if v == ViewRecordings {
		return m, m.Library.Init()
	}
	return m, nil
}

// View renders the viewer.
func (m Model) View() string {
	doc := m.ViewTopBar() + "\n"

	switch m.ActiveView {
	case ViewSwarm:
		doc += m.Swarm.View()
	case ViewParameters:
		doc += m.Parameters.View()
	case ViewRecordings:
		doc += m.Library.View()
	case ViewBehavior:
		doc += m.Editor.View()
	}

	if m.Flash != "" {
		style := StyleStatusGood
		if m.FlashErr {
			style = StyleStatusBad
		}
		doc += "\n" + style.Render(m.Flash)
	}
	doc += "\n" + m.help.ShortHelpView(m.helpKeys())

	return StyleApp.Render(doc)
}

func (m Model) helpKeys() []key.Binding {
	switch m.ActiveView {
	case ViewSwarm:
		return []key.Binding{keys.Start, keys.Stop, keys.Reset, keys.Pattern, keys.Record, keys.StopRec, keys.Save, keys.StopPlay, keys.Reconnect, keys.Quit}
	case ViewParameters:
		return []key.Binding{keys.Up, keys.Down, keys.Dec, keys.Inc, keys.NextView, keys.Quit}
	case ViewRecordings:
		return []key.Binding{keys.Play, keys.Delete, keys.Refresh, keys.NextView, keys.Quit}
	default:
		return []key.Binding{keys.NextView, keys.Quit}
	}
}

// ViewTopBar renders the view menu and the connection badge.
func (m Model) ViewTopBar() string {
	menus := []struct {
		View  View
		Label string
		Key   string
	}{
		{ViewSwarm, "Swarm", "1"},
		{ViewParameters, "Parameters", "2"},
		{ViewRecordings, "Recordings", "3"},
		{ViewBehavior, "Behavior", "4"},
	}

	var items []string
	for _, menu := range menus {
		k := StyleMenuKey.Render("[" + menu.Key + "]")
		if m.ActiveView == menu.View {
			items = append(items, StyleMenuItemActive.Render(k+" "+menu.Label))
		} else {
			items = append(items, StyleMenuItem.Render(k+" "+menu.Label))
		}
	}

	title := StyleTitle.Render(fmt.Sprintf("%s ", brand.Name))
	badge := " " + StatusBadge(m.Swarm.Status)

	bar := lipgloss.JoinHorizontal(lipgloss.Top, append(append([]string{title}, items...), badge)...)
	return StyleTopBar.Render(bar)
}

// Run starts the viewer full screen and blocks until the user quits.
func Run(backend Backend) error {
	p := tea.NewProgram(NewModel(backend), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
