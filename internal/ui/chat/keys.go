// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the room view component for the TUI.
//
// This file defines keyboard bindings for the room views.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for a room view.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Home       key.Binding
	End        key.Binding
	Submit     key.Binding
	ShareFile  key.Binding
	Glyphs     key.Binding
	ExportText key.Binding
	ExportPDF  key.Binding
	Dismiss    key.Binding
	Leave      key.Binding
	Logout     key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings for a room view.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/C-d", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("Home", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("End", "go to bottom"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		ShareFile: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("C-f", "share file"),
		),
		Glyphs: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "glyphs"),
		),
		ExportText: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "export text"),
		),
		ExportPDF: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export PDF"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "dismiss toast"),
		),
		Leave: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "leave room"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "log out"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("C-q", "quit"),
		),
	}
}

// Shortcuts returns the status bar hints for this key map. Task rooms show
// the file and export hints; the general room hides the upload hint.
func (k KeyMap) Shortcuts(taskRoom bool) []shortcutHint {
	hints := []shortcutHint{
		{"Enter", "send"},
		{"C-g", "glyphs"},
	}
	if taskRoom {
		hints = append(hints, shortcutHint{"C-f", "file"})
	}
	hints = append(hints,
		shortcutHint{"C-t", "txt"},
		shortcutHint{"C-e", "pdf"},
		shortcutHint{"Esc", "leave"},
	)
	if taskRoom {
		hints = append(hints, shortcutHint{"C-l", "logout"})
	}
	return hints
}

type shortcutHint struct {
	key  string
	desc string
}
