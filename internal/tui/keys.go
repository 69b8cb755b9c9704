package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings active on the result screen. The form
// routes keys itself so typed characters reach the text inputs.
type keyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Up       key.Binding
	Down     key.Binding
	Problems key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel/back")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	Problems: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "problems")),
}
