// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate provides the access-gate view: the screen where the signed-in
// worker picks a task room and the role-branched authorization runs.
package gate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskdesk/taskchat-tui/internal/api"
	taskgate "github.com/taskdesk/taskchat-tui/internal/gate"
	"github.com/taskdesk/taskchat-tui/internal/identity"
	"github.com/taskdesk/taskchat-tui/internal/model"
	"github.com/taskdesk/taskchat-tui/internal/ui/components"
	"github.com/taskdesk/taskchat-tui/internal/ui/styles"
)

// directorNotice mirrors the info banner the director role gets on the gate.
const directorNotice = "As Director, you can access all task chats"

// requestTimeout bounds one authorize or suggestion round trip.
const requestTimeout = 15 * time.Second

// =============================================================================
// MESSAGES
// =============================================================================

// SuggestionsMsg delivers the task directory fetch. A failure is advisory;
// the gate still accepts a hand-typed task name.
type SuggestionsMsg struct {
	Suggestions []model.TaskSuggestion
	Err         error
}

// AuthorizeResultMsg delivers the outcome of an authorize round trip.
type AuthorizeResultMsg struct {
	Result taskgate.Result
	Err    error
}

// GrantedMsg tells the outer model to open the task room.
type GrantedMsg struct {
	Result taskgate.Result
}

// GeneralSelectedMsg tells the outer model to open the general room instead.
type GeneralSelectedMsg struct{}

// =============================================================================
// GATE MODEL
// =============================================================================

// Model is the Bubble Tea model for the access gate.
type Model struct {
	theme *styles.Theme

	width  int
	height int

	gate *taskgate.Gate
	id   identity.Identity

	// Task field and autocomplete
	input textinput.Model
	popup *components.SuggestionPopup
	all   []model.TaskSuggestion

	// In-flight authorize call; the join action is disabled meanwhile
	busy bool

	// Inline denial/not-found text under the field
	errText string

	toasts *components.ToastManager
}

// New creates the gate view for the given signed-in identity.
func New(theme *styles.Theme, g *taskgate.Gate, id identity.Identity) Model {
	ti := textinput.New()
	ti.Prompt = "Task: "
	ti.Placeholder = "Task name..."
	ti.CharLimit = 256
	ti.Focus()

	return Model{
		theme:  theme,
		gate:   g,
		id:     id,
		input:  ti,
		popup:  components.NewSuggestionPopup(theme),
		toasts: components.NewToastManager(),
	}
}

// Identity returns the identity the gate was opened with.
func (m Model) Identity() identity.Identity {
	return m.id
}

// Busy reports whether an authorize call is in flight.
func (m Model) Busy() bool {
	return m.busy
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the advisory suggestion fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetchSuggestions())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.theme != nil {
			m.theme.SetSize(m.width, m.height)
		}
		width := m.width / 2
		if width < 40 {
			width = 40
		}
		m.popup.SetWidth(width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SuggestionsMsg:
		if msg.Err != nil {
			// Non-fatal: free text still works
			m.toasts.AddWarning("Task list unavailable: " + msg.Err.Error())
			return m, components.ToastTickCmd()
		}
		m.all = msg.Suggestions
		m.popup.SetSuggestions(model.FilterSuggestions(m.all, m.input.Value()))
		return m, nil

	case AuthorizeResultMsg:
		return m.handleAuthorizeResult(msg)

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
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+q", "ctrl+c", "esc":
		return m, tea.Quit

	case "ctrl+o":
		return m, func() tea.Msg { return GeneralSelectedMsg{} }

	case "down", "ctrl+n":
		m.popup.Next()
		return m, nil

	case "up", "ctrl+p":
		m.popup.Prev()
		return m, nil

	case "tab":
		// Fill the field from the selected suggestion
		if sel := m.popup.GetSelectedSuggestion(); sel != nil {
			m.input.SetValue(sel.Task)
			m.input.CursorEnd()
			m.popup.SetSuggestions(model.FilterSuggestions(m.all, m.input.Value()))
		}
		return m, nil

	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.errText = ""
		return m, m.authorize(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.popup.SetSuggestions(model.FilterSuggestions(m.all, m.input.Value()))
	return m, cmd
}

func (m Model) handleAuthorizeResult(msg AuthorizeResultMsg) (Model, tea.Cmd) {
	m.busy = false

	if msg.Err == nil {
		result := msg.Result
		return m, func() tea.Msg { return GrantedMsg{Result: result} }
	}

	switch {
	case errors.Is(msg.Err, taskgate.ErrBlankTask):
		m.errText = "Enter a task name"

	case errors.Is(msg.Err, api.ErrTaskNotFound):
		m.errText = "Task not found"

	case errors.Is(msg.Err, api.ErrAccessDenied):
		m.errText = "Access denied: " + denialDetail(msg.Err)

	case errors.Is(msg.Err, identity.ErrNotSignedIn):
		m.errText = "Not signed in. Run the sign-in step first."

	default:
		m.toasts.AddError("Access check failed: " + msg.Err.Error())
		return m, components.ToastTickCmd()
	}

	return m, nil
}

// denialDetail extracts the server's denial message when one was attached.
func denialDetail(err error) string {
	prefix := api.ErrAccessDenied.Error() + ": "
	if s := err.Error(); strings.HasPrefix(s, prefix) && len(s) > len(prefix) {
		return s[len(prefix):]
	}
	return "you are not assigned to this task"
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) fetchSuggestions() tea.Cmd {
	g := m.gate
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		suggestions, err := g.Suggestions(ctx, "")
		return SuggestionsMsg{Suggestions: suggestions, Err: err}
	}
}

func (m Model) authorize(taskName string) tea.Cmd {
	g := m.gate
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := g.Authorize(ctx, taskName)
		return AuthorizeResultMsg{Result: result, Err: err}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the access gate.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var lines []string

	lines = append(lines, m.theme.GateTitle.Render("Task Chat"))
	lines = append(lines, m.theme.GateLabel.Render(
		"Signed in as "+m.id.Name+" ("+m.id.Role().String()+")"))

	if m.id.Role().BypassesAccessCheck() {
		lines = append(lines, m.theme.GateNotice.Render(directorNotice))
	}

	lines = append(lines, "")
	lines = append(lines, m.input.View())

	if m.errText != "" {
		lines = append(lines, m.theme.GateError.Render(
			styles.StatusIndicators.Error+" "+m.errText))
	}

	if m.busy {
		lines = append(lines, m.theme.GateButtonBusy.Render("Checking access..."))
	} else {
		lines = append(lines, m.theme.GateButton.Render("Enter  [Enter]"))
	}

	box := m.theme.GateBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	body := box
	if m.popup.HasSuggestions() {
		body = lipgloss.JoinVertical(lipgloss.Left, box, m.popup.View())
	}

	hints := m.theme.ShortcutDesc.Render(
		m.theme.ShortcutKey.Render("Tab") + " fill  " +
			m.theme.ShortcutKey.Render("C-o") + " general chat  " +
			m.theme.ShortcutKey.Render("Esc") + " quit")
	body = lipgloss.JoinVertical(lipgloss.Left, body, "", hints)

	centered := lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)

	if m.toasts.HasToasts() {
		return centered + "\n" + components.RenderToastStack(m.toasts.GetToasts(), m.width, 0)
	}
	return centered
}
