// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package room

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taskdesk/taskchat-tui/internal/export"
	"github.com/taskdesk/taskchat-tui/internal/model"
)

// GeneralRoom is the shared room every signed-in worker may use. No access
// gate, no file sharing, and a short cooldown between sends to stop
// accidental rapid re-sends.
type GeneralRoom struct {
	ids IdentitySource
	ch  Channel

	buf     buffer
	limiter *rate.Limiter

	mu    sync.Mutex
	state State
}

// NewGeneralRoom builds the shared room. cooldown is the minimum gap
// between sends; 0 disables the guard.
func NewGeneralRoom(ids IdentitySource, ch Channel, cooldown time.Duration) *GeneralRoom {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cooldown > 0 {
		limiter = rate.NewLimiter(rate.Every(cooldown), 1)
	}
	return &GeneralRoom{
		ids:     ids,
		ch:      ch,
		limiter: limiter,
		state:   StateConnecting,
	}
}

// State returns the room lifecycle state.
func (r *GeneralRoom) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Join announces the worker to the shared room.
func (r *GeneralRoom) Join() error {
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
	if err := r.ch.JoinGeneral(id.Name); err != nil {
		return err
	}

	r.mu.Lock()
	r.state = StateJoined
	r.mu.Unlock()
	return nil
}

// HydrateHistory replaces the buffer with the sorted server backlog.
func (r *GeneralRoom) HydrateHistory(msgs []model.Message) {
	r.buf.replace(msgs)
}

// Receive appends a live message.
func (r *GeneralRoom) Receive(msg model.Message) {
	r.buf.append(msg)
}

// Messages returns a copy of the transcript.
func (r *GeneralRoom) Messages() []model.Message {
	return r.buf.snapshot()
}

// SendText sends a trimmed text message. Blank drafts return
// ErrBlankMessage; a send inside the cooldown window returns
// ErrSendCooldown and the draft survives for a later retry.
func (r *GeneralRoom) SendText(draft string) error {
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

	if !r.limiter.Allow() {
		return ErrSendCooldown
	}

	id, err := r.ids.Current()
	if err != nil {
		return err
	}
	return r.ch.SendMessage(model.NewTextMessage(id.Name, content))
}

// ExportText writes the transcript as chat.txt under dir.
func (r *GeneralRoom) ExportText(dir string) (string, error) {
	return export.WriteText(dir, r.buf.snapshot())
}

// ExportPDF writes the transcript as chat.pdf under dir.
func (r *GeneralRoom) ExportPDF(dir string) (string, error) {
	return export.WriteSimplePDF(dir, r.buf.snapshot())
}

// Leave closes the realtime connection.
func (r *GeneralRoom) Leave() error {
	r.mu.Lock()
	if r.state == StateClosed {
		r.mu.Unlock()
		return nil
	}
	r.state = StateClosed
	r.mu.Unlock()
	return r.ch.Close()
}
