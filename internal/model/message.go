// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"
	"time"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single chat message as it travels over the realtime channel.
// The JSON field names are fixed by the backend contract and must not change.
type Message struct {
	// ID is the server-assigned identifier. Outbound messages leave it
	// empty; the server fills it in before fanning the message out.
	ID string `json:"_id,omitempty"`

	// From is the sender's worker name.
	From string `json:"from"`

	// Content is the plain-text body. Empty for file announcements.
	Content string `json:"content"`

	// Timestamp is the machine-readable send time. Every outbound message
	// carries one; inbound messages missing it get the local receive time.
	Timestamp time.Time `json:"timestamp"`

	// Time is the human-readable clock string shown next to the message.
	Time string `json:"time,omitempty"`

	// FileURL and FileName are set only on file announcements. FileURL
	// points at the uploaded file on the backend.
	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// NewTextMessage builds an outbound text message stamped with the current
// local time.
func NewTextMessage(from, content string) Message {
	now := time.Now()
	return Message{
		From:      from,
		Content:   content,
		Timestamp: now,
		Time:      now.Format(DisplayClock),
	}
}

// NewFileMessage builds an outbound file announcement for an already
// uploaded file.
func NewFileMessage(from, fileURL, fileName string) Message {
	now := time.Now()
	return Message{
		From:      from,
		Timestamp: now,
		Time:      now.Format(DisplayClock),
		FileURL:   fileURL,
		FileName:  fileName,
	}
}

// DisplayClock is the layout used for the human-readable time string.
const DisplayClock = "15:04"

// IsFile reports whether the message announces an uploaded file rather than
// carrying text.
func (m Message) IsFile() bool {
	return m.FileURL != ""
}

// IsBlank reports whether the message has neither text nor a file attached.
func (m Message) IsBlank() bool {
	return strings.TrimSpace(m.Content) == "" && m.FileURL == ""
}

// DisplayTime returns the clock string for rendering. Messages that arrived
// without one fall back to formatting the timestamp locally.
func (m Message) DisplayTime() string {
	if m.Time != "" {
		return m.Time
	}
	return m.Timestamp.Format(DisplayClock)
}

// Normalize fills in pieces a sloppy peer may have omitted: a missing
// timestamp becomes now so the message still sorts and exports sensibly.
func (m *Message) Normalize(now time.Time) {
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
}

// =============================================================================
// ORDERING
// =============================================================================

// SortByTimestamp orders messages oldest first. The sort is stable so
// messages sharing a timestamp keep their arrival order. History from the
// server is not trusted to arrive sorted.
func SortByTimestamp(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
