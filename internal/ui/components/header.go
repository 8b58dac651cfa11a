// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskdesk/taskchat-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT - Room title bar with connection state
// =============================================================================

// ConnState represents the realtime channel's link state as shown in the header.
type ConnState int

const (
	ConnOffline ConnState = iota
	ConnConnecting
	ConnOnline
	ConnReconnecting
)

// String returns the display string for the connection state.
func (c ConnState) String() string {
	switch c {
	case ConnOnline:
		return "Connected"
	case ConnConnecting:
		return "Connecting..."
	case ConnReconnecting:
		return "Reconnecting..."
	default:
		return "Disconnected"
	}
}

// Icon returns an ASCII indicator for the connection state.
func (c ConnState) Icon() string {
	switch c {
	case ConnOnline:
		return styles.ConnectionIndicators.Online
	case ConnConnecting, ConnReconnecting:
		return styles.ConnectionIndicators.Reconnecting
	default:
		return styles.ConnectionIndicators.Offline
	}
}

// Header is the room title bar: room name, who is signed in, connection
// state, and the Director access badge when it applies.
type Header struct {
	Title          string    // Room display name
	Username       string    // Signed-in worker name
	Conn           ConnState // Channel link state
	DirectorAccess bool      // True when the access check was bypassed
	Uploading      bool      // True while a file upload is in flight
	Width          int       // Available width
	theme          *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "taskchat",
		Conn:  ConnOffline,
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetConn updates the connection state.
func (h *Header) SetConn(state ConnState) {
	h.Conn = state
}

// View renders the header component.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}

	accentStyle := lipgloss.NewStyle().
		Foreground(styles.Purple)

	brand := accentStyle.Render("< ") +
		h.theme.HeaderBrand.Render(h.Title) +
		accentStyle.Render(" >")

	// Subtitle line: user, connection state, badges
	var parts []string

	if h.Username != "" {
		parts = append(parts, h.theme.HeaderSubtitle.Render(h.Username))
	}

	connStyle := h.theme.ConnOffline
	switch h.Conn {
	case ConnOnline:
		connStyle = h.theme.ConnOnline
	case ConnConnecting, ConnReconnecting:
		connStyle = h.theme.ConnReconnecting
	}
	parts = append(parts, connStyle.Render(h.Conn.Icon()+" "+h.Conn.String()))

	if h.DirectorAccess {
		parts = append(parts, h.theme.DirectorBadge.Render("DIRECTOR"))
	}

	if h.Uploading {
		parts = append(parts, h.theme.UploadBusy.Render("uploading..."))
	}

	subtitle := strings.Join(parts, "  ")

	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Purple).
		Padding(0, 2).
		Width(width - 2).
		Align(lipgloss.Center)

	return headerStyle.Render(brand + "\n" + subtitle)
}
