// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package room

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/taskdesk/taskchat-tui/internal/channel"
	"github.com/taskdesk/taskchat-tui/internal/export"
	"github.com/taskdesk/taskchat-tui/internal/model"
)

// TaskRoom is the chat room scoped to one task.
type TaskRoom struct {
	task     model.Task
	ids      IdentitySource
	ch       Channel
	uploader Uploader

	buf buffer

	mu        sync.Mutex
	state     State
	uploading bool
}

// NewTaskRoom builds a room for the given task grant.
//
// A task record without a room key cannot be joined. That is fatal for the
// whole session: the identity is signed out exactly once, before any join
// traffic, and ErrMissingRoomKey is returned.
func NewTaskRoom(task model.Task, ids IdentitySource, ch Channel, uploader Uploader) (*TaskRoom, error) {
	if !task.HasRoomKey() {
		log.Printf("room: task %q has no room key, ending session", task.Name)
		if err := ids.SignOut(); err != nil {
			log.Printf("room: sign out failed: %v", err)
		}
		return nil, ErrMissingRoomKey
	}
	return &TaskRoom{
		task:     task,
		ids:      ids,
		ch:       ch,
		uploader: uploader,
		state:    StateConnecting,
	}, nil
}

// Task returns the task this room is scoped to.
func (r *TaskRoom) Task() model.Task {
	return r.task
}

// State returns the room lifecycle state.
func (r *TaskRoom) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Join announces the worker to the task room. The identity is read here,
// not at construction, so the freshest sign-in wins.
func (r *TaskRoom) Join() error {
	r.mu.Lock()
	if r.state == StateClosed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.mu.Unlock()

	id, err := r.ids.Current()
	if err != nil {
		return err
	}
	if err := r.ch.JoinTaskRoom(r.task.Task, id.Name); err != nil {
		return err
	}

	r.mu.Lock()
	r.state = StateJoined
	r.mu.Unlock()
	return nil
}

// =============================================================================
// INBOUND
// =============================================================================

// HydrateHistory replaces the buffer with the server backlog. The channel
// layer has already sorted it oldest first.
func (r *TaskRoom) HydrateHistory(msgs []model.Message) {
	r.buf.replace(msgs)
}

// Receive appends a live message if it belongs to this room. Traffic for
// other rooms is dropped.
func (r *TaskRoom) Receive(msg channel.TaskMessage) {
	if msg.TaskName != "" && msg.TaskName != r.task.Task {
		return
	}
	r.buf.append(msg.Message)
}

// Messages returns a copy of the transcript.
func (r *TaskRoom) Messages() []model.Message {
	return r.buf.snapshot()
}

// Len returns the transcript length.
func (r *TaskRoom) Len() int {
	return r.buf.len()
}

// =============================================================================
// OUTBOUND
// =============================================================================

// SendText sends a trimmed text message. Blank drafts return
// ErrBlankMessage and nothing is sent; the caller keeps the draft.
func (r *TaskRoom) SendText(draft string) error {
	content := strings.TrimSpace(draft)
	if content == "" {
		return ErrBlankMessage
	}

	r.mu.Lock()
	if r.state == StateClosed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.mu.Unlock()

	// Send-time identity read: the freshest sign-in is the sender.
	id, err := r.ids.Current()
	if err != nil {
		return err
	}

	msg := channel.TaskMessage{
		TaskName: r.task.Task,
		Message:  model.NewTextMessage(id.Name, content),
	}
	return r.ch.SendTaskMessage(msg)
}

// ShareFile uploads the file and announces it in the room. Only one share
// runs at a time; concurrent calls get ErrUploadInFlight.
func (r *TaskRoom) ShareFile(ctx context.Context, path string) error {
	r.mu.Lock()
	if r.state == StateClosed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.uploading {
		r.mu.Unlock()
		return ErrUploadInFlight
	}
	r.uploading = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.uploading = false
		r.mu.Unlock()
	}()

	fileURL, fileName, err := r.uploader.UploadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("room: upload failed: %w", err)
	}

	id, err := r.ids.Current()
	if err != nil {
		return err
	}

	msg := channel.TaskMessage{
		TaskName: r.task.Task,
		Message:  model.NewFileMessage(id.Name, fileURL, fileName),
	}
	msg.Content = "Shared a file: " + fileName
	return r.ch.SendTaskMessage(msg)
}

// Uploading reports whether a file share is in flight.
func (r *TaskRoom) Uploading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uploading
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportText writes the transcript as chat.txt under dir.
func (r *TaskRoom) ExportText(dir string) (string, error) {
	return export.WriteText(dir, r.buf.snapshot())
}

// ExportPDF writes the transcript as a dated PDF under dir, titled with
// the task's display name.
func (r *TaskRoom) ExportPDF(dir string) (string, error) {
	return export.WritePDF(dir, r.task.DisplayName(), r.buf.snapshot())
}

// =============================================================================
// TEARDOWN
// =============================================================================

// Leave closes the realtime connection. The identity stays signed in.
func (r *TaskRoom) Leave() error {
	r.mu.Lock()
	if r.state == StateClosed {
		r.mu.Unlock()
		return nil
	}
	r.state = StateClosed
	r.mu.Unlock()
	return r.ch.Close()
}

// Logout disconnects first, then signs the worker out.
func (r *TaskRoom) Logout() error {
	if err := r.Leave(); err != nil {
		return err
	}
	return r.ids.SignOut()
}
