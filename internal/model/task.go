// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// TASK TYPES
// =============================================================================

// Task is the task record the backend returns after a successful access
// check. Task is the room key used to join the task's chat room; Name is the
// human-facing title.
type Task struct {
	Task string `json:"task"`
	Name string `json:"name"`
}

// HasRoomKey reports whether the record carries the key needed to join the
// task's chat room. A record without one is unusable and treated as fatal by
// the room layer.
func (t Task) HasRoomKey() bool {
	return strings.TrimSpace(t.Task) != ""
}

// DisplayName returns the title to show in headers, falling back to the room
// key when the backend sent no separate name.
func (t Task) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Task
}

// TaskSuggestion is one entry from the task directory used to autocomplete
// the task field on the access gate.
type TaskSuggestion struct {
	ID   string `json:"_id,omitempty"`
	Task string `json:"task"`
	Name string `json:"name,omitempty"`
}

// FilterSuggestions returns the suggestions whose task name or assignee name
// contains the query, case-insensitively. A blank query matches everything.
func FilterSuggestions(all []TaskSuggestion, query string) []TaskSuggestion {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}
	out := make([]TaskSuggestion, 0, len(all))
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Task), query) ||
			strings.Contains(strings.ToLower(s.Name), query) {
			out = append(out, s)
		}
	}
	return out
}
