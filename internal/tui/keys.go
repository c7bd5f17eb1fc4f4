package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	NextView  key.Binding
	Start     key.Binding
	Stop      key.Binding
	Reset     key.Binding
	Record    key.Binding
	StopRec   key.Binding
	Save      key.Binding
	StopPlay  key.Binding
	Pattern   key.Binding
	Reconnect key.Binding
	Up        key.Binding
	Down      key.Binding
	Inc       key.Binding
	Dec       key.Binding
	Play      key.Binding
	Delete    key.Binding
	Refresh   key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	NextView:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	Start:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Stop:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
	Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Record:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "record")),
	StopRec:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "stop rec")),
	Save:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "save rec")),
	StopPlay:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "stop playback")),
	Pattern:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "next pattern")),
	Reconnect: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reconnect")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Inc:       key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/+", "increase")),
	Dec:       key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/-", "decrease")),
	Play:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Refresh:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "refresh")),
}
