// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskdesk/taskchat-tui/internal/ui/styles"
	"github.com/taskdesk/taskchat-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom hint bar
// =============================================================================

// Shortcut is one key hint shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar renders a single-line bar of key hints plus an optional notice
// (rate-limit cooldown, upload progress, terminal reconnect failure).
type StatusBar struct {
	Shortcuts []Shortcut
	Notice    string
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar with the given shortcuts.
func NewStatusBar(theme *styles.Theme, shortcuts []Shortcut) *StatusBar {
	return &StatusBar{
		Shortcuts: shortcuts,
		Width:     80,
		theme:     theme,
	}
}

// SetWidth updates the bar width.
func (b *StatusBar) SetWidth(width int) {
	b.Width = width
}

// SetNotice sets the transient notice text. An empty string clears it.
func (b *StatusBar) SetNotice(notice string) {
	b.Notice = notice
}

// View renders the status bar.
func (b *StatusBar) View() string {
	var parts []string
	for _, s := range b.Shortcuts {
		parts = append(parts,
			b.theme.ShortcutKey.Render(s.Key)+" "+b.theme.ShortcutDesc.Render(s.Desc))
	}
	left := strings.Join(parts, "  ")

	if b.Notice != "" {
		noticeStyle := lipgloss.NewStyle().
			Foreground(styles.Amber).
			Bold(true)

		// Notice is width-capped so a long server message cannot push the
		// hints off screen.
		notice := util.TruncateWidth(b.Notice, b.Width/2)
		left += "  " + noticeStyle.Render(notice)
	}

	return b.theme.StatusBar.Width(b.Width).Render(left)
}
