// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the room view component for the TUI.
//
// This file defines all Bubble Tea message types used by the room views.
// Messages are organized into the following categories:
//   - Channel lifecycle: connect, reconnect, disconnect, terminal failure
//   - Traffic: history hydration and live message delivery
//   - Async results: uploads and transcript exports
//   - Navigation: leaving a room and logging out
//
// Channel events originate on the websocket read goroutine and reach the
// program through tea.Program.Send, so every type here is immutable.
package chat

import (
	"github.com/taskdesk/taskchat-tui/internal/channel"
	"github.com/taskdesk/taskchat-tui/internal/model"
)

// =============================================================================
// CHANNEL LIFECYCLE MESSAGES
// =============================================================================

// ConnectedMsg signals the channel is up and the room join has been re-emitted.
type ConnectedMsg struct{}

// DisconnectedMsg signals the channel dropped.
type DisconnectedMsg struct {
	Err error
}

// ReconnectingMsg is delivered once per redial attempt.
type ReconnectingMsg struct {
	Attempt int
}

// ReconnectFailedMsg signals the redial budget is exhausted. The room stays
// open read-only and the status bar shows the terminal notice.
type ReconnectFailedMsg struct{}

// =============================================================================
// TRAFFIC MESSAGES
// =============================================================================

// HistoryMsg carries the sorted room history on join or rejoin.
type HistoryMsg struct {
	Messages []model.Message
}

// IncomingMessageMsg carries one live general-room message.
type IncomingMessageMsg struct {
	Message model.Message
}

// TaskMessageMsg carries one live task-scoped message. The room drops
// messages addressed to other task names, so delivery here is unfiltered.
type TaskMessageMsg struct {
	Message channel.TaskMessage
}

// =============================================================================
// ASYNC RESULT MESSAGES
// =============================================================================

// UploadResultMsg reports a finished file share.
type UploadResultMsg struct {
	Name string
	Err  error
}

// ExportFormat selects the transcript export encoding.
type ExportFormat int

const (
	ExportText ExportFormat = iota
	ExportPDF
)

// ExportResultMsg reports a finished transcript export.
type ExportResultMsg struct {
	Format ExportFormat
	Path   string
	Err    error
}

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// LeftRoomMsg is emitted after the room has been left so the outer model can
// switch sections.
type LeftRoomMsg struct{}

// LoggedOutMsg is emitted after an explicit logout; the outer model quits
// the program.
type LoggedOutMsg struct{}
