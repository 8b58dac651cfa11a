// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the room view component for the TUI.
//
// This file contains all rendering logic for a room view: the header, the
// transcript viewport with message bubbles, the glyph palette, the input
// area, the status bar, and the toast overlay.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskdesk/taskchat-tui/internal/model"
	"github.com/taskdesk/taskchat-tui/internal/ui/components"
)

// emptyTranscript is shown before the first message arrives.
const emptyTranscript = "No messages yet. Start the conversation!"

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the complete room view.
// Layout: header + transcript (viewport) + [glyph palette] + input + status bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()

	var palette string
	if m.palette.IsOpen() {
		palette = m.palette.View()
	}

	headerHeight := lipgloss.Height(header)
	inputHeight := lipgloss.Height(input)
	statusHeight := lipgloss.Height(status)
	paletteHeight := 0
	if palette != "" {
		paletteHeight = lipgloss.Height(palette)
	}

	availableHeight := m.height - headerHeight - inputHeight - statusHeight - paletteHeight
	if availableHeight < 1 {
		availableHeight = 1
	}

	transcript := m.viewport.View()
	if lipgloss.Height(transcript) != availableHeight {
		// Sizing fallback. handleResize uses conservative estimates, so the
		// measured heights can disagree by a line after a palette toggle.
		transcript = lipgloss.NewStyle().
			Height(availableHeight).
			MaxHeight(availableHeight).
			Width(m.width).
			Render(transcript)
	}

	parts := []string{header, transcript}
	if palette != "" {
		parts = append(parts, palette)
	}
	parts = append(parts, input, status)

	baseView := lipgloss.JoinVertical(lipgloss.Left, parts...)

	// Toast overlay in the bottom-right corner
	if m.toasts.HasToasts() {
		return baseView + "\n" + components.RenderToastStack(m.toasts.GetToasts(), m.width, 0)
	}

	return baseView
}

// =============================================================================
// COMPONENT RENDERING
// =============================================================================

func (m Model) renderHeader() string {
	m.header.Conn = m.conn
	m.header.DirectorAccess = m.directorAccess
	m.header.Uploading = m.taskRoom != nil && m.taskRoom.Uploading()
	m.header.SetWidth(m.width)
	return m.header.View()
}

func (m Model) renderInput() string {
	line := lipgloss.NewStyle().
		Width(m.width - 4).
		Padding(0, 1).
		Render(m.input.View())

	return m.theme.InputContainer.Width(m.width - 2).Render(line)
}

func (m Model) renderStatusBar() string {
	var shortcuts []components.Shortcut
	for _, h := range m.keyMap.Shortcuts(m.taskRoom != nil) {
		shortcuts = append(shortcuts, components.Shortcut{Key: h.key, Desc: h.desc})
	}
	m.statusBar.Shortcuts = shortcuts

	if m.terminal {
		m.statusBar.Notice = "Connection lost. Please restart the client."
	} else {
		m.statusBar.Notice = ""
	}
	m.statusBar.SetWidth(m.width)

	return m.statusBar.View()
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderTranscript renders the full message list for the viewport.
func (m Model) renderTranscript() string {
	msgs := m.room.Messages()
	if len(msgs) == 0 {
		return m.theme.EmptyState.Width(m.width).Render(emptyTranscript)
	}

	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

// renderMessage renders a single message bubble. Own messages hug the right
// edge, peers the left, mirroring the original chat layout.
func (m Model) renderMessage(msg model.Message) string {
	bubbleWidth := m.width * 2 / 3
	if bubbleWidth < 30 {
		bubbleWidth = 30
	}

	self := msg.From == m.username

	header := m.theme.SenderName.Render(msg.From)
	if clock := msg.DisplayTime(); clock != "" {
		header += " " + m.theme.MessageTime.Render(clock)
	}

	body := msg.Content
	var attachment string
	if msg.IsFile() {
		attachment = m.theme.AttachmentLine.Render("Attachment: " + msg.FileName)
	}

	content := header + "\n" + body
	if attachment != "" {
		content += "\n" + attachment
	}

	bubble := m.theme.PeerBubble
	align := lipgloss.Left
	if self {
		bubble = m.theme.SelfBubble
		align = lipgloss.Right
	}

	rendered := bubble.MaxWidth(bubbleWidth).Render(content)

	return lipgloss.PlaceHorizontal(m.width, align, rendered)
}
