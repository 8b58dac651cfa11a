// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskdesk/taskchat-tui/internal/model"
	"github.com/taskdesk/taskchat-tui/internal/ui/styles"
	"github.com/taskdesk/taskchat-tui/internal/util"
)

// =============================================================================
// SUGGESTION POPUP COMPONENT
// =============================================================================

// SuggestionPopup displays a popup with task name suggestions below the
// task field on the access gate.
type SuggestionPopup struct {
	suggestions []model.TaskSuggestion
	selected    int
	maxVisible  int
	width       int
	theme       *styles.Theme
}

// NewSuggestionPopup creates a new suggestion popup.
func NewSuggestionPopup(theme *styles.Theme) *SuggestionPopup {
	return &SuggestionPopup{
		suggestions: nil,
		selected:    0,
		maxVisible:  8, // Show up to 8 suggestions at once
		width:       50,
		theme:       theme,
	}
}

// SetSuggestions sets the suggestions to display.
func (s *SuggestionPopup) SetSuggestions(suggestions []model.TaskSuggestion) {
	s.suggestions = suggestions
	s.selected = 0
}

// GetSuggestions returns the current suggestions.
func (s *SuggestionPopup) GetSuggestions() []model.TaskSuggestion {
	return s.suggestions
}

// GetSelected returns the selected index.
func (s *SuggestionPopup) GetSelected() int {
	return s.selected
}

// Next selects the next suggestion.
func (s *SuggestionPopup) Next() {
	if len(s.suggestions) == 0 {
		return
	}
	s.selected = (s.selected + 1) % len(s.suggestions)
}

// Prev selects the previous suggestion.
func (s *SuggestionPopup) Prev() {
	if len(s.suggestions) == 0 {
		return
	}
	s.selected--
	if s.selected < 0 {
		s.selected = len(s.suggestions) - 1
	}
}

// GetSelectedSuggestion returns the currently selected suggestion, or nil.
func (s *SuggestionPopup) GetSelectedSuggestion() *model.TaskSuggestion {
	if s.selected < 0 || s.selected >= len(s.suggestions) {
		return nil
	}
	return &s.suggestions[s.selected]
}

// HasSuggestions returns true if there are suggestions to show.
func (s *SuggestionPopup) HasSuggestions() bool {
	return len(s.suggestions) > 0
}

// Clear clears all suggestions.
func (s *SuggestionPopup) Clear() {
	s.suggestions = nil
	s.selected = 0
}

// SetWidth sets the popup width.
func (s *SuggestionPopup) SetWidth(width int) {
	s.width = width
}

// SetMaxVisible sets the maximum number of visible suggestions.
func (s *SuggestionPopup) SetMaxVisible(max int) {
	s.maxVisible = max
}

// View renders the suggestion popup.
func (s *SuggestionPopup) View() string {
	if len(s.suggestions) == 0 {
		return ""
	}

	// Calculate visible range (scrolling window)
	start := 0
	end := len(s.suggestions)

	if len(s.suggestions) > s.maxVisible {
		// Center the selected item in the window
		start = s.selected - s.maxVisible/2
		if start < 0 {
			start = 0
		}
		end = start + s.maxVisible
		if end > len(s.suggestions) {
			end = len(s.suggestions)
			start = end - s.maxVisible
			if start < 0 {
				start = 0
			}
		}
	}

	var items []string
	for i := start; i < end; i++ {
		items = append(items, s.renderItem(s.suggestions[i], i == s.selected))
	}

	content := strings.Join(items, "\n")

	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Cyan).
		Padding(0, 1).
		Width(s.width).
		MaxWidth(s.width)

	return boxStyle.Render(content)
}

// renderItem renders a single suggestion row.
func (s *SuggestionPopup) renderItem(sug model.TaskSuggestion, isSelected bool) string {
	// Room key (left aligned)
	keyStyle := lipgloss.NewStyle().
		Width(20).
		Foreground(styles.TextPrimary)

	// Display name (right of the key)
	nameStyle := lipgloss.NewStyle().
		Width(s.width - 24). // Account for padding and key width
		Foreground(styles.TextSecondary)

	if isSelected {
		keyStyle = keyStyle.
			Background(styles.Cyan).
			Foreground(styles.Surface).
			Bold(true)
		nameStyle = nameStyle.
			Foreground(styles.TextPrimary)
	}

	key := util.TruncateRunes(sug.Task, 20)
	name := util.TruncateRunes(sug.Name, s.width-24)

	// Indicator for selected item (ASCII)
	indicator := " "
	if isSelected {
		indicator = ">"
	}

	indicatorStyle := lipgloss.NewStyle().
		Width(2).
		Foreground(styles.Cyan)

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		indicatorStyle.Render(indicator),
		keyStyle.Render(key),
		nameStyle.Render(name),
	)
}

// ViewCompact renders a compact single-line suggestion indicator.
// Shows "Tab: N tasks" or "Tab: complete X" for a single suggestion.
func (s *SuggestionPopup) ViewCompact() string {
	if len(s.suggestions) == 0 {
		return ""
	}

	style := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	if len(s.suggestions) == 1 {
		return style.Render("Tab: complete \"" + s.suggestions[0].Task + "\"")
	}

	return style.Render("Tab: " + strconv.Itoa(len(s.suggestions)) + " tasks")
}
