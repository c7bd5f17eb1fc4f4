package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"grimm.is/swarmctl/internal/recording"
)

type recordingsMsg []recording.Recording

type recordingsErrMsg struct{ err error }

type recordingItem struct {
	rec recording.Recording
}

func (i recordingItem) Title() string { return i.rec.Name }
func (i recordingItem) Description() string {
	return fmt.Sprintf("%s  %d frames  %s", i.rec.ID[:min(8, len(i.rec.ID))], i.rec.Frames,
		i.rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
}
func (i recordingItem) FilterValue() string { return i.rec.Name }

// LibraryModel lists stored recordings for playback.
type LibraryModel struct {
	Backend Backend
	List    list.Model
	Err     error
	Width   int
	Height  int
}

func NewLibraryModel(backend Backend) LibraryModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorIce).
		BorderLeftForeground(ColorIce)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorDeep)

	l := list.New(nil, delegate, 60, 16)
	l.Title = "Recordings"
	l.SetShowHelp(false)
	l.Styles.Title = StyleTitle

	return LibraryModel{Backend: backend, List: l}
}

func (m LibraryModel) Init() tea.Cmd {
	b := m.Backend
	return func() tea.Msg {
		recs, err := b.Recordings()
		if err != nil {
			return recordingsErrMsg{err}
		}
		return recordingsMsg(recs)
	}
}

func (m LibraryModel) selected() (recording.Recording, bool) {
	it, ok := m.List.SelectedItem().(recordingItem)
	return it.rec, ok
}

func (m LibraryModel) Update(msg tea.Msg) (LibraryModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case recordingsMsg:
		items := make([]list.Item, len(msg))
		for i, r := range msg {
			items[i] = recordingItem{rec: r}
		}
		m.Err = nil
		return m, m.List.SetItems(items)

	case recordingsErrMsg:
		m.Err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.List.FilterState() == list.Filtering {
			break
		}
		b := m.Backend
		switch {
		case key.Matches(msg, keys.Refresh):
			return m, m.Init()
		case key.Matches(msg, keys.Play):
			if rec, ok := m.selected(); ok {
				return m, act("playing "+rec.Name, func() error { return b.PlayRecording(rec.ID) })
			}
			return m, nil
		case key.Matches(msg, keys.Delete):
			if rec, ok := m.selected(); ok {
				return m, tea.Sequence(
					act("deleted "+rec.Name, func() error { return b.DeleteRecording(rec.ID) }),
					m.Init(),
				)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(msg.Width-8, msg.Height-10)
	}

	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

func (m LibraryModel) View() string {
	if m.Err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			StyleHeader.Render("RECORDINGS"),
			StyleStatusBad.Render("Failed to list recordings:"),
			StyleCard.Render(m.Err.Error()),
		)
	}
	if len(m.List.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			StyleHeader.Render("RECORDINGS"),
			StyleSubtitle.Render("Nothing saved yet. Record on the swarm view, then press g to save."),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		StyleHeader.Render("RECORDINGS"),
		StyleCard.Render(m.List.View()),
	)
}
