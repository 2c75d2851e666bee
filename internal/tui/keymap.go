package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the board screen.
type KeyMap struct {
    Up      key.Binding
    Down    key.Binding
    Left    key.Binding
    Right   key.Binding
    Place   key.Binding
    Restart key.Binding
    Help    key.Binding
    Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
    return []key.Binding{k.Place, k.Restart, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
    return [][]key.Binding{
        {k.Up, k.Down, k.Left, k.Right},
        {k.Place, k.Restart, k.Help, k.Quit},
    }
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
    return KeyMap{
        Up: key.NewBinding(
            key.WithKeys("up", "k", "w"),
            key.WithHelp("up/k", "move up"),
        ),
        Down: key.NewBinding(
            key.WithKeys("down", "j", "s"),
            key.WithHelp("down/j", "move down"),
        ),
        Left: key.NewBinding(
            key.WithKeys("left", "h", "a"),
            key.WithHelp("left/h", "move left"),
        ),
        Right: key.NewBinding(
            key.WithKeys("right", "l", "d"),
            key.WithHelp("right/l", "move right"),
        ),
        Place: key.NewBinding(
            key.WithKeys("enter", " "),
            key.WithHelp("enter/space", "place disc"),
        ),
        Restart: key.NewBinding(
            key.WithKeys("r"),
            key.WithHelp("r", "new game"),
        ),
        Help: key.NewBinding(
            key.WithKeys("?"),
            key.WithHelp("?", "more keys"),
        ),
        Quit: key.NewBinding(
            key.WithKeys("q", "ctrl+c", "esc"),
            key.WithHelp("q", "quit"),
        ),
    }
}
