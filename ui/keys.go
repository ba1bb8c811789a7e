package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	Generate key.Binding
	Test     key.Binding
	Play     key.Binding
	Stop     key.Binding
	Download key.Binding
	Clear    key.Binding
	Paste    key.Binding
	Load     key.Binding
	Delete   key.Binding
	Wipe     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
	Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "change")),
	Right:    key.NewBinding(key.WithKeys("right", "l")),
	Up:       key.NewBinding(key.WithKeys("up", "k")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	Generate: key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "generate")),
	Test:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "test voice")),
	Play:     key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play")),
	Stop:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
	Download: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "download")),
	Clear:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
	Paste:    key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
	Load:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "load")),
	Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
	Wipe:     key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear all")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Generate, k.Test, k.Play, k.Download, k.Clear, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Left},
		{k.Generate, k.Test, k.Play, k.Stop},
		{k.Download, k.Clear, k.Paste},
		{k.Load, k.Delete, k.Wipe, k.Quit},
	}
}

// historyHelp is shown while the history pane has focus.
func (k keyMap) historyHelp() []key.Binding {
	return []key.Binding{k.Next, k.Load, k.Delete, k.Wipe, k.Quit}
}
