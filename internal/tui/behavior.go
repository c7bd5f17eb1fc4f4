package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"grimm.is/swarmctl/internal/protocol"
)

// DefaultBehavior is the editor's starting script.
const DefaultBehavior = `def update_agents(agents):
    for agent in agents:
        agent.angle += 0.05
`

// BehaviorForm is the custom behavior submission.
type BehaviorForm struct {
	Action string `tui:"title=Action,options=Test:test|Save:save"`
	Code   string `tui:"title=Behavior script,desc=Runs on the server each step,type=text,validate=behavior"`
}

// BehaviorModel edits and submits custom behaviors. The server's verdict
// shows up on the swarm view.
type BehaviorModel struct {
	Backend Backend
	Values  *BehaviorForm
	Form    *huh.Form
	editing bool
	Width   int
	Height  int
}

func NewBehaviorModel(backend Backend) BehaviorModel {
	values := &BehaviorForm{Action: protocol.BehaviorTest, Code: DefaultBehavior}
	return BehaviorModel{
		Backend: backend,
		Values:  values,
		Form:    AutoForm(values),
	}
}

// Editing reports whether keystrokes belong to the form.
func (m BehaviorModel) Editing() bool { return m.editing }

func (m BehaviorModel) Init() tea.Cmd { return nil }

func (m BehaviorModel) reset() BehaviorModel {
	m.Form = AutoForm(m.Values)
	m.editing = false
	return m
}

func (m BehaviorModel) Update(msg tea.Msg) (BehaviorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Form = m.Form.WithWidth(max(msg.Width-10, 40))
		return m, nil

	case tea.KeyMsg:
		if !m.editing {
			if msg.String() == "e" || msg.String() == "enter" {
				m.editing = true
				return m, m.Form.Init()
			}
			return m, nil
		}
		if msg.Type == tea.KeyEsc {
			return m.reset(), nil
		}
	}

	if !m.editing {
		return m, nil
	}

	form, cmd := m.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.Form = f
	}

	switch m.Form.State {
	case huh.StateCompleted:
		action, code := m.Values.Action, m.Values.Code
		b := m.Backend
		m = m.reset()
		return m, act("behavior sent ("+action+")", func() error { return b.CustomBehavior(action, code) })
	case huh.StateAborted:
		return m.reset(), nil
	}
	return m, cmd
}

func (m BehaviorModel) View() string {
	hint := "e to edit, Esc to cancel"
	if m.editing {
		hint = "Enter to submit, Esc to cancel"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		StyleHeader.Render("BEHAVIOR EDITOR"),
		StyleCard.Render(m.Form.View()),
		StyleSubtitle.Render(hint),
	)
}
