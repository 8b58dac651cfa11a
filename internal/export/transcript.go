// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders chat transcripts to plain text and PDF files.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taskdesk/taskchat-tui/internal/model"
	"github.com/taskdesk/taskchat-tui/internal/util"
)

// TextFileName is the fixed name of plain-text exports.
const TextFileName = "chat.txt"

// PlainText renders the transcript one message per line:
//
//	from: content - time
//
// Messages without a clock string fall back to their timestamp.
func PlainText(msgs []model.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s - %s", msg.From, msg.Content, msg.DisplayTime()))
	}
	return strings.Join(lines, "\n")
}

// WriteText writes the plain-text transcript to dir/chat.txt and returns
// the full path. An empty dir means the current directory.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func WriteText(dir string, msgs []model.Message) (string, error) {
	path := filepath.Join(dir, TextFileName)
	if err := util.AtomicWriteFile(path, []byte(PlainText(msgs)), 0644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}
