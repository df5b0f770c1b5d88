package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the board's bindings. Navigation keys belong to the list
// widget and are merged in for help.
type keyMap struct {
	Add      key.Binding
	Rename   key.Binding
	Toggle   key.Binding
	Raise    key.Binding
	Lower    key.Binding
	Delete   key.Binding
	Filter   key.Binding
	Clear    key.Binding
	Save     key.Binding
	Reload   key.Binding
	History  key.Binding
	Debug    key.Binding
	Help     key.Binding
	Quit     key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	navigate []key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Rename:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "done")),
		Raise:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "priority up")),
		Lower:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "priority down")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Clear:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear done")),
		Save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Reload:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "load")),
		History: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		Debug:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ok")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Filter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.navigate,
		{k.Add, k.Rename, k.Toggle, k.Raise, k.Lower, k.Delete},
		{k.Filter, k.Clear, k.Save, k.Reload, k.History},
		{k.Debug, k.Help, k.Quit},
	}
}
