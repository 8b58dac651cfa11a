// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package room holds the client-side state of a chat room.
//
// A room owns its message buffer and the rules around sending: blank
// messages never leave the client, file shares are serialized, and the
// sender identity is re-read from the identity store at send time so a
// rename or sign-out in another window takes effect immediately.
package room

import (
	"context"
	"errors"
	"sync"

	"github.com/taskdesk/taskchat-tui/internal/channel"
	"github.com/taskdesk/taskchat-tui/internal/identity"
	"github.com/taskdesk/taskchat-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingRoomKey means the task record has no room key. This is
	// fatal: the session is torn down rather than joining a broken room.
	ErrMissingRoomKey = errors.New("room: task has no room key")

	// ErrBlankMessage means the draft was empty after trimming. The caller
	// keeps the draft as typed.
	ErrBlankMessage = errors.New("room: message is blank")

	// ErrUploadInFlight means a file share is already running. One at a time.
	ErrUploadInFlight = errors.New("room: upload already in progress")

	// ErrSendCooldown means the send came too soon after the previous one.
	ErrSendCooldown = errors.New("room: sending too fast")

	// ErrClosed means the room was left and cannot be used again.
	ErrClosed = errors.New("room: closed")
)

// =============================================================================
// DEPENDENCY SURFACES
// =============================================================================

// Channel is the realtime surface a room needs. *channel.Adapter satisfies it.
type Channel interface {
	JoinGeneral(username string) error
	JoinTaskRoom(taskName, username string) error
	SendMessage(msg model.Message) error
	SendTaskMessage(msg channel.TaskMessage) error
	Connected() bool
	Close() error
}

// Uploader pushes a local file to the backend. *api.Client satisfies it.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (fileURL, fileName string, err error)
}

// IdentitySource supplies the current sign-in at send time. *identity.Store
// satisfies it.
type IdentitySource interface {
	Current() (identity.Identity, error)
	SignOut() error
}

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle of a room.
type State int

const (
	// StateConnecting means the room exists but has not joined yet.
	StateConnecting State = iota
	// StateJoined means the join was sent and traffic flows.
	StateJoined
	// StateClosed means the room was left. Terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// buffer is the shared message store behind every room.
type buffer struct {
	mu   sync.RWMutex
	msgs []model.Message
}

// replace swaps the whole backlog, as history hydration does.
func (b *buffer) replace(msgs []model.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append([]model.Message(nil), msgs...)
}

// append adds one live message.
func (b *buffer) append(msg model.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

// snapshot returns a copy safe to hand to renderers and exporters.
func (b *buffer) snapshot() []model.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Message, len(b.msgs))
	copy(out, b.msgs)
	return out
}

func (b *buffer) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.msgs)
}
