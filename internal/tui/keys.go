package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines keybindings for the picker
type KeyMap struct {
	mode string
}

// NewKeyMap creates a keymap. Mode is "vim" (default) or "standard".
func NewKeyMap(mode string) *KeyMap {
	if mode == "" {
		mode = "vim"
	}
	return &KeyMap{mode: mode}
}

// Mode returns the current keybinding mode
func (k *KeyMap) Mode() string {
	return k.mode
}

// IsUp returns true if the key is an "up" navigation key
func (k *KeyMap) IsUp(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyUp || msg.Type == tea.KeyShiftTab || (k.vim() && msg.String() == "k")
}

// IsDown returns true if the key is a "down" navigation key
func (k *KeyMap) IsDown(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyDown || msg.Type == tea.KeyTab || (k.vim() && msg.String() == "j")
}

// IsHome returns true if the key should go to the first item
func (k *KeyMap) IsHome(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyHome || (k.vim() && msg.String() == "g")
}

// IsEnd returns true if the key should go to the last item
func (k *KeyMap) IsEnd(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEnd || (k.vim() && msg.String() == "G")
}

// IsConfirm returns true if the key picks the highlighted item
func (k *KeyMap) IsConfirm(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEnter
}

// IsCancel returns true if the key backs out of the current mode
func (k *KeyMap) IsCancel(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEsc
}

// IsQuit returns true if the key aborts the selection
func (k *KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return msg.String() == "q" || msg.Type == tea.KeyCtrlC
}

// IsSearch returns true if the key should focus the filter input
func (k *KeyMap) IsSearch(msg tea.KeyMsg) bool {
	return msg.String() == "/"
}

func (k *KeyMap) vim() bool {
	return k.mode == "vim"
}

// Help returns the one-line help shown under the list
func (k *KeyMap) Help() string {
	if k.vim() {
		return "j/k: navigate  g/G: first/last  /: filter  enter: install  q: skip"
	}
	return "↑/↓: navigate  home/end: first/last  /: filter  enter: install  q: skip"
}
