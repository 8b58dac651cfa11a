// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdesk/taskchat-tui/internal/api"
	taskgate "github.com/taskdesk/taskchat-tui/internal/gate"
	"github.com/taskdesk/taskchat-tui/internal/identity"
	"github.com/taskdesk/taskchat-tui/internal/model"
	"github.com/taskdesk/taskchat-tui/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeDirectory struct {
	tasks       map[string]model.Task
	assigned    map[string]bool
	denyMessage string
	suggestErr  error
}

func (d *fakeDirectory) GetTask(_ context.Context, taskName string) (model.Task, error) {
	t, ok := d.tasks[taskName]
	if !ok {
		return model.Task{}, api.ErrTaskNotFound
	}
	return t, nil
}

func (d *fakeDirectory) ValidateTaskAccess(_ context.Context, workerName, taskName, _ string) (model.Task, error) {
	t, ok := d.tasks[taskName]
	if !ok {
		return model.Task{}, api.ErrTaskNotFound
	}
	if !d.assigned[workerName+"/"+taskName] {
		if d.denyMessage != "" {
			return model.Task{}, fmt.Errorf("%w: %s", api.ErrAccessDenied, d.denyMessage)
		}
		return model.Task{}, api.ErrAccessDenied
	}
	return t, nil
}

func (d *fakeDirectory) TaskSuggestions(_ context.Context) ([]model.TaskSuggestion, error) {
	if d.suggestErr != nil {
		return nil, d.suggestErr
	}
	out := make([]model.TaskSuggestion, 0, len(d.tasks))
	for _, t := range d.tasks {
		out = append(out, model.TaskSuggestion{Task: t.Task, Name: t.Name})
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func newTestGate(t *testing.T, dir *fakeDirectory, name, role string) Model {
	t.Helper()

	store, err := identity.NewStore(filepath.Join(t.TempDir(), "identity.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.SignIn(name, role); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	id, err := store.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}

	m := New(styles.NewTheme(), taskgate.New(dir, store), id)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func typeTask(m Model, text string) Model {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func pressEnter(m Model) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

// runCmd executes a command and feeds the resulting message back in,
// the way the Bubble Tea runtime would.
func runCmd(m Model, cmd tea.Cmd) (Model, tea.Msg) {
	if cmd == nil {
		return m, nil
	}
	msg := cmd()
	m, _ = m.Update(msg)
	return m, msg
}

// =============================================================================
// AUTHORIZE FLOW
// =============================================================================

func TestGateGrantsAssignedWorker(t *testing.T) {
	dir := &fakeDirectory{
		tasks:    map[string]model.Task{"deploy-pipeline": {Task: "deploy-pipeline", Name: "Deploy Pipeline"}},
		assigned: map[string]bool{"casey/deploy-pipeline": true},
	}
	m := newTestGate(t, dir, "casey", "Associate")

	m = typeTask(m, "deploy-pipeline")
	m, cmd := pressEnter(m)
	if !m.Busy() {
		t.Fatal("expected busy while authorize is in flight")
	}

	msg := cmd()
	res, ok := msg.(AuthorizeResultMsg)
	if !ok {
		t.Fatalf("want AuthorizeResultMsg, got %T", msg)
	}
	if res.Err != nil {
		t.Fatalf("authorize: %v", res.Err)
	}

	// The successful result should emit a grant for the outer model.
	m, cmd = m.Update(res)
	if m.Busy() {
		t.Error("busy should clear after result")
	}
	if cmd == nil {
		t.Fatal("expected grant command")
	}
	granted, ok := cmd().(GrantedMsg)
	if !ok {
		t.Fatalf("want GrantedMsg, got %T", cmd())
	}
	if granted.Result.Task.Task != "deploy-pipeline" {
		t.Errorf("granted task = %q", granted.Result.Task.Task)
	}
	if granted.Result.Bypassed {
		t.Error("worker grant should not be a director bypass")
	}
	_ = m
}

func TestGateDirectorBypassesValidation(t *testing.T) {
	dir := &fakeDirectory{
		tasks: map[string]model.Task{"deploy-pipeline": {Task: "deploy-pipeline", Name: "Deploy Pipeline"}},
		// No assignments at all; the director still gets in.
	}
	m := newTestGate(t, dir, "rivera", "Director")

	m = typeTask(m, "deploy-pipeline")
	m, cmd := pressEnter(m)
	_, msg := runCmd(m, cmd)

	res := msg.(AuthorizeResultMsg)
	if res.Err != nil {
		t.Fatalf("authorize: %v", res.Err)
	}
	if !res.Result.Bypassed {
		t.Error("director grant should report the bypass")
	}
}

func TestGateTaskNotFound(t *testing.T) {
	dir := &fakeDirectory{tasks: map[string]model.Task{}}
	m := newTestGate(t, dir, "casey", "Associate")

	m = typeTask(m, "no-such-task")
	m, cmd := pressEnter(m)
	m, _ = runCmd(m, cmd)

	if !strings.Contains(m.View(), "Task not found") {
		t.Error("view should show the not-found message")
	}
}

func TestGateAccessDeniedShowsServerMessage(t *testing.T) {
	dir := &fakeDirectory{
		tasks:       map[string]model.Task{"deploy-pipeline": {Task: "deploy-pipeline"}},
		denyMessage: "not on the deploy roster",
	}
	m := newTestGate(t, dir, "casey", "Associate")

	m = typeTask(m, "deploy-pipeline")
	m, cmd := pressEnter(m)
	m, _ = runCmd(m, cmd)

	view := m.View()
	if !strings.Contains(view, "Access denied") {
		t.Error("view should show the denial")
	}
	if !strings.Contains(view, "not on the deploy roster") {
		t.Error("view should carry the server's denial detail")
	}
}

func TestGateBlankTask(t *testing.T) {
	dir := &fakeDirectory{tasks: map[string]model.Task{}}
	m := newTestGate(t, dir, "casey", "Associate")

	m, cmd := pressEnter(m)
	m, _ = runCmd(m, cmd)

	if !strings.Contains(m.View(), "Enter a task name") {
		t.Error("view should prompt for a task name")
	}
}

func TestGateBusyIgnoresSecondSubmit(t *testing.T) {
	dir := &fakeDirectory{
		tasks:    map[string]model.Task{"deploy-pipeline": {Task: "deploy-pipeline"}},
		assigned: map[string]bool{"casey/deploy-pipeline": true},
	}
	m := newTestGate(t, dir, "casey", "Associate")

	m = typeTask(m, "deploy-pipeline")
	m, _ = pressEnter(m)

	// A second enter while busy must not fire another authorize.
	m, cmd := pressEnter(m)
	if cmd != nil {
		t.Error("second submit while busy should be a no-op")
	}
	if !m.Busy() {
		t.Error("still busy until the result lands")
	}
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

func TestGateSuggestionsFillField(t *testing.T) {
	dir := &fakeDirectory{
		tasks: map[string]model.Task{
			"deploy-pipeline": {Task: "deploy-pipeline", Name: "Deploy Pipeline"},
		},
	}
	m := newTestGate(t, dir, "casey", "Associate")

	m, _ = m.Update(SuggestionsMsg{Suggestions: []model.TaskSuggestion{
		{Task: "deploy-pipeline", Name: "Deploy Pipeline"},
	}})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.input.Value(); got != "deploy-pipeline" {
		t.Errorf("tab fill = %q, want deploy-pipeline", got)
	}
}

func TestGateSuggestionFetchFailureIsAdvisory(t *testing.T) {
	dir := &fakeDirectory{
		tasks:      map[string]model.Task{"deploy-pipeline": {Task: "deploy-pipeline"}},
		assigned:   map[string]bool{"casey/deploy-pipeline": true},
		suggestErr: errors.New("directory down"),
	}
	m := newTestGate(t, dir, "casey", "Associate")

	m, _ = m.Update(SuggestionsMsg{Err: dir.suggestErr})
	if !m.toasts.HasToasts() {
		t.Error("fetch failure should surface a toast")
	}

	// Free text still authorizes.
	m = typeTask(m, "deploy-pipeline")
	m, cmd := pressEnter(m)
	_, msg := runCmd(m, cmd)
	if res := msg.(AuthorizeResultMsg); res.Err != nil {
		t.Errorf("free-text authorize after fetch failure: %v", res.Err)
	}
}

func TestGateTypingFiltersSuggestions(t *testing.T) {
	dir := &fakeDirectory{tasks: map[string]model.Task{}}
	m := newTestGate(t, dir, "casey", "Associate")

	m, _ = m.Update(SuggestionsMsg{Suggestions: []model.TaskSuggestion{
		{Task: "deploy-pipeline", Name: "Deploy Pipeline"},
		{Task: "audit-logs", Name: "Audit Logs"},
	}})

	m = typeTask(m, "audit")
	got := m.popup.GetSuggestions()
	if len(got) != 1 || got[0].Task != "audit-logs" {
		t.Errorf("filtered suggestions = %+v", got)
	}
}

// =============================================================================
// VIEW
// =============================================================================

func TestGateViewShowsIdentity(t *testing.T) {
	dir := &fakeDirectory{tasks: map[string]model.Task{}}
	m := newTestGate(t, dir, "casey", "Associate")

	view := m.View()
	if !strings.Contains(view, "casey") {
		t.Error("view should show the worker name")
	}
	if strings.Contains(view, directorNotice) {
		t.Error("worker gate should not show the director notice")
	}
}

func TestGateViewShowsDirectorNotice(t *testing.T) {
	dir := &fakeDirectory{tasks: map[string]model.Task{}}
	m := newTestGate(t, dir, "rivera", "Director")

	if !strings.Contains(m.View(), directorNotice) {
		t.Error("director gate should show the access notice")
	}
}

func TestGateGeneralShortcut(t *testing.T) {
	dir := &fakeDirectory{tasks: map[string]model.Task{}}
	m := newTestGate(t, dir, "casey", "Associate")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	if cmd == nil {
		t.Fatal("expected general-room command")
	}
	if _, ok := cmd().(GeneralSelectedMsg); !ok {
		t.Errorf("want GeneralSelectedMsg, got %T", cmd())
	}
}
