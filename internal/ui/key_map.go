package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	toggle  key.Binding
	seekFwd key.Binding
	seekBck key.Binding
	volUp   key.Binding
	volDown key.Binding
	next    key.Binding
	prev    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		seekFwd: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "seek +10s")),
		seekBck: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "seek -10s")),
		volUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next episode")),
		prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous episode")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.back, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.toggle, k.seekBck, k.seekFwd},
		{k.volDown, k.volUp, k.prev, k.next},
		{k.quit},
	}
}
