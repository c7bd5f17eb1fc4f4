package tui

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"grimm.is/swarmctl/internal/gate"
)

// Slider starting points, matching the stock server's defaults.
var initialValues = map[string]float64{
	"agentCount":     20,
	"agentSpeed":     5,
	"swarmCohesion":  5,
	"swarmAlignment": 5,
	"waveFrequency":  1,
	"waveAmplitude":  10,
}

// ParametersModel is the slider table. Values shown here change the moment
// a key is pressed; the gate decides when the server hears about it.
type ParametersModel struct {
	Backend Backend
	Table   table.Model
	Rules   []gate.Rule
	Values  map[string]float64
	Width   int
	Height  int
}

func NewParametersModel(backend Backend) ParametersModel {
	columns := []table.Column{
		{Title: "Parameter", Width: 16},
		{Title: "Value", Width: 8},
		{Title: "Range", Width: 12},
		{Title: "Pacing", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorDeep).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(ColorIce).
		Background(ColorDeep).
		Bold(false)
	t.SetStyles(s)

	m := ParametersModel{
		Backend: backend,
		Table:   t,
		Rules:   backend.Rules(),
		Values:  make(map[string]float64),
	}
	for _, r := range m.Rules {
		v, ok := initialValues[r.Name]
		if !ok || !r.Contains(v) {
			v = r.Min
		}
		m.Values[r.Name] = v
	}
	m.syncRows()
	return m
}

// Step is the nudge size for a rule: whole numbers for integer ranges,
// otherwise a twentieth of the span.
func Step(r gate.Rule) float64 {
	span := r.Max - r.Min
	if span <= 0 {
		return 1
	}
	if r.Min == math.Trunc(r.Min) && r.Max == math.Trunc(r.Max) && span <= 100 {
		if span <= 20 && r.Policy == gate.PolicyDebounced {
			return 0.5
		}
		return 1
	}
	return math.Round(span/20*100) / 100
}

func (m *ParametersModel) syncRows() {
	rows := make([]table.Row, len(m.Rules))
	for i, r := range m.Rules {
		rows[i] = table.Row{
			r.Name,
			strconv.FormatFloat(m.Values[r.Name], 'f', -1, 64),
			fmt.Sprintf("%g..%g", r.Min, r.Max),
			r.Policy.String(),
		}
	}
	m.Table.SetRows(rows)
}

// Nudge moves the selected parameter by dir steps, clamped to its range,
// and hands the new value to the gate.
func (m ParametersModel) Nudge(dir float64) (ParametersModel, tea.Cmd) {
	idx := m.Table.Cursor()
	if idx < 0 || idx >= len(m.Rules) {
		return m, nil
	}
	r := m.Rules[idx]

	v := m.Values[r.Name] + dir*Step(r)
	v = math.Round(v*100) / 100
	v = math.Max(r.Min, math.Min(r.Max, v))

	m.Values[r.Name] = v
	m.syncRows()

	b := m.Backend
	name := r.Name
	return m, func() tea.Msg {
		if err := b.SetParameter(name, v); err != nil {
			return flashMsg{text: err.Error(), err: true}
		}
		return nil
	}
}

func (m ParametersModel) Update(msg tea.Msg) (ParametersModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Inc):
			return m.Nudge(1)
		case key.Matches(msg, keys.Dec):
			return m.Nudge(-1)
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetHeight(max(len(m.Rules)+1, min(msg.Height-8, 20)))
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m ParametersModel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		StyleHeader.Render("PARAMETERS"),
		StyleCard.Render(m.Table.View()),
		StyleSubtitle.Render("debounced changes reach the server after a short pause"),
	)
}
