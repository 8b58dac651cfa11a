// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the room view component for the TUI.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdesk/taskchat-tui/internal/model"
	"github.com/taskdesk/taskchat-tui/internal/room"
	"github.com/taskdesk/taskchat-tui/internal/ui/components"
	"github.com/taskdesk/taskchat-tui/internal/ui/styles"
)

// uploadTimeout bounds a single file share HTTP round trip.
const uploadTimeout = 60 * time.Second

// roomAPI is the slice of room behavior shared by task and general rooms.
type roomAPI interface {
	State() room.State
	Messages() []model.Message
	SendText(draft string) error
	HydrateHistory(msgs []model.Message)
	Leave() error
	ExportText(dir string) (string, error)
	ExportPDF(dir string) (string, error)
}

// =============================================================================
// ROOM MODEL
// =============================================================================

// Model is the Bubble Tea model for one chat room, task-scoped or general.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Room state. taskRoom is nil for the general room.
	room     roomAPI
	taskRoom *room.TaskRoom
	title    string
	username string

	// Channel link state
	conn     components.ConnState
	terminal bool // reconnect budget exhausted, sending stays disabled

	// UI components
	viewport  viewport.Model
	input     textinput.Model
	header    *components.Header
	statusBar *components.StatusBar
	palette   *components.GlyphPalette
	toasts    *components.ToastManager

	// Key bindings
	keyMap KeyMap

	// File path prompt mode (task rooms only)
	pathMode   bool
	savedDraft string

	// Export target directory
	exportDir string

	// Director access marker for the header badge
	directorAccess bool
}

// NewTaskModel creates the view for a task room.
func NewTaskModel(theme *styles.Theme, r *room.TaskRoom, username, exportDir string, director bool) Model {
	m := newModel(theme, r, r.Task().DisplayName(), username, exportDir)
	m.taskRoom = r
	m.directorAccess = director
	return m
}

// NewGeneralModel creates the view for the shared discussion room. roomKey
// names the room in the header and export files.
func NewGeneralModel(theme *styles.Theme, r *room.GeneralRoom, roomKey, username, exportDir string) Model {
	return newModel(theme, r, roomKey, username, exportDir)
}

func newModel(theme *styles.Theme, r roomAPI, title, username, exportDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	keyMap := DefaultKeyMap()

	header := components.NewHeader(theme)
	header.Title = title
	header.Username = username
	header.SetConn(components.ConnConnecting)

	return Model{
		theme:     theme,
		room:      r,
		title:     title,
		username:  username,
		conn:      components.ConnConnecting,
		viewport:  vp,
		input:     ti,
		header:    header,
		statusBar: components.NewStatusBar(theme, nil),
		palette:   components.NewGlyphPalette(theme),
		toasts:    components.NewToastManager(),
		keyMap:    keyMap,
		exportDir: exportDir,
	}
}

// IsTaskRoom returns true when this view wraps a task room.
func (m Model) IsTaskRoom() bool {
	return m.taskRoom != nil
}

// Title returns the room display name.
func (m Model) Title() string {
	return m.title
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConnectedMsg:
		m.conn = components.ConnOnline
		return m, nil

	case DisconnectedMsg:
		if !m.terminal {
			m.conn = components.ConnOffline
		}
		return m, nil

	case ReconnectingMsg:
		m.conn = components.ConnReconnecting
		return m, nil

	case ReconnectFailedMsg:
		m.conn = components.ConnOffline
		m.terminal = true
		m.toasts.AddError("Connection lost. Please restart the client.")
		return m, components.ToastTickCmd()

	case HistoryMsg:
		m.room.HydrateHistory(msg.Messages)
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case IncomingMessageMsg:
		if gr, ok := m.room.(*room.GeneralRoom); ok {
			gr.Receive(msg.Message)
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case TaskMessageMsg:
		if m.taskRoom != nil {
			m.taskRoom.Receive(msg.Message)
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case UploadResultMsg:
		if msg.Err != nil {
			m.toasts.AddError("Upload failed: " + msg.Err.Error())
		} else {
			m.toasts.AddSuccess("Shared " + msg.Name)
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, components.ToastTickCmd()

	case ExportResultMsg:
		if msg.Err != nil {
			m.toasts.AddError("Export failed: " + msg.Err.Error())
		} else {
			m.toasts.AddSuccess("Saved " + msg.Path)
		}
		return m, components.ToastTickCmd()

	case components.ToastTickMsg:
		if m.toasts.HasToasts() {
			m.toasts.TickToasts()
			return m, components.ToastTickCmd()
		}
		return m, nil

	case components.ToastDismissMsg:
		m.toasts.RemoveToast(msg.ID)
		return m, nil

	default:
		var cmds []tea.Cmd

		var inputCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		cmds = append(cmds, inputCmd)

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

		return m, tea.Batch(cmds...)
	}
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Layout: header + viewport (dynamic) + optional palette + input + status bar.
	// Conservative estimates keep the viewport from overflowing the frame.
	const (
		headerHeight    = 4
		inputAreaHeight = 3
		statusBarHeight = 2
		paletteHeight   = 4
	)

	reserved := headerHeight + inputAreaHeight + statusBarHeight
	if m.palette.IsOpen() {
		reserved += paletteHeight
	}

	viewportHeight := m.height - reserved
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}

	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	const promptLen = 2 // "> "
	inputWidth := m.width - 6 - promptLen
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	if m.theme != nil {
		m.theme.SetSize(m.width, m.height)
	}
	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)

	m.refreshTranscript()

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Emergency exit always works
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	// Glyph palette has priority while open
	if m.palette.IsOpen() {
		switch {
		case msg.String() == "left":
			m.palette.Prev()
		case msg.String() == "right" || msg.String() == "tab":
			m.palette.Next()
		case key.Matches(msg, m.keyMap.Submit):
			m.input.SetValue(m.input.Value() + m.palette.Selected())
			m.input.CursorEnd()
		case key.Matches(msg, m.keyMap.Leave), key.Matches(msg, m.keyMap.Glyphs):
			m.palette.Close()
		}
		return m, nil
	}

	// File path prompt mode
	if m.pathMode {
		switch {
		case key.Matches(msg, m.keyMap.Leave):
			return m.exitPathMode(), nil
		case key.Matches(msg, m.keyMap.Submit):
			path := m.input.Value()
			next := m.exitPathMode()
			if path == "" {
				return next, nil
			}
			return next.startUpload(path)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keyMap.Glyphs):
		m.palette.Toggle()
		return m, nil

	case key.Matches(msg, m.keyMap.ShareFile):
		if m.taskRoom == nil {
			return m, nil
		}
		if m.taskRoom.Uploading() {
			m.toasts.AddWarning("An upload is already in progress")
			return m, components.ToastTickCmd()
		}
		return m.enterPathMode(), nil

	case key.Matches(msg, m.keyMap.ExportText):
		return m, m.exportCmd(ExportText)

	case key.Matches(msg, m.keyMap.ExportPDF):
		return m, m.exportCmd(ExportPDF)

	case key.Matches(msg, m.keyMap.Dismiss):
		if toasts := m.toasts.GetToasts(); len(toasts) > 0 {
			m.toasts.RemoveToast(toasts[0].ID)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Leave):
		return m.leave()

	case key.Matches(msg, m.keyMap.Logout):
		return m.logout()

	case key.Matches(msg, m.keyMap.Submit):
		return m.submitDraft()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Home):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submitDraft() (Model, tea.Cmd) {
	if m.terminal {
		m.toasts.AddError("Connection lost. Please restart the client.")
		return m, components.ToastTickCmd()
	}
	if m.conn != components.ConnOnline {
		m.toasts.AddWarning("Not connected yet")
		return m, components.ToastTickCmd()
	}

	err := m.room.SendText(m.input.Value())
	switch {
	case err == nil:
		m.input.Reset()
		m.palette.Close()
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case errors.Is(err, room.ErrBlankMessage):
		// Silently ignored, matching the non-blank send guard
		return m, nil

	case errors.Is(err, room.ErrSendCooldown):
		m.toasts.AddWarning("Sending too fast, hold on")
		return m, components.ToastTickCmd()

	default:
		m.toasts.AddError("Send failed: " + err.Error())
		return m, components.ToastTickCmd()
	}
}

func (m Model) enterPathMode() Model {
	m.pathMode = true
	m.savedDraft = m.input.Value()
	m.input.Reset()
	m.input.Prompt = "File: "
	m.input.Placeholder = "Path to the file to share..."
	return m
}

func (m Model) exitPathMode() Model {
	m.pathMode = false
	m.input.Reset()
	m.input.Prompt = "> "
	m.input.Placeholder = "Type a message..."
	m.input.SetValue(m.savedDraft)
	m.input.CursorEnd()
	m.savedDraft = ""
	return m
}

func (m Model) startUpload(path string) (Model, tea.Cmd) {
	if m.taskRoom == nil {
		return m, nil
	}
	if m.conn != components.ConnOnline {
		m.toasts.AddWarning("Not connected yet")
		return m, components.ToastTickCmd()
	}

	r := m.taskRoom
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()

		err := r.ShareFile(ctx, path)
		return UploadResultMsg{Name: path, Err: err}
	}
}

func (m Model) exportCmd(format ExportFormat) tea.Cmd {
	r := m.room
	dir := m.exportDir
	return func() tea.Msg {
		var path string
		var err error
		if format == ExportPDF {
			path, err = r.ExportPDF(dir)
		} else {
			path, err = r.ExportText(dir)
		}
		return ExportResultMsg{Format: format, Path: path, Err: err}
	}
}

func (m Model) leave() (Model, tea.Cmd) {
	if err := m.room.Leave(); err != nil {
		m.toasts.AddError("Leave failed: " + err.Error())
		return m, components.ToastTickCmd()
	}
	return m, func() tea.Msg { return LeftRoomMsg{} }
}

func (m Model) logout() (Model, tea.Cmd) {
	if m.taskRoom == nil {
		return m.leave()
	}
	if err := m.taskRoom.Logout(); err != nil {
		m.toasts.AddError("Logout failed: " + err.Error())
		return m, components.ToastTickCmd()
	}
	return m, func() tea.Msg { return LoggedOutMsg{} }
}

// refreshTranscript re-renders the transcript into the viewport.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
}
