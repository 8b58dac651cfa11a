// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// STATUS INDICATOR TESTS
// =============================================================================

func TestStatusIndicatorsDefined(t *testing.T) {
	indicators := []struct {
		name  string
		value string
	}{
		{"Success", StatusIndicators.Success},
		{"Error", StatusIndicators.Error},
		{"Warning", StatusIndicators.Warning},
		{"Info", StatusIndicators.Info},
		{"Pending", StatusIndicators.Pending},
		{"Active", StatusIndicators.Active},
	}

	for _, ind := range indicators {
		if ind.value == "" {
			t.Errorf("StatusIndicators.%s should be non-empty", ind.name)
		}
	}
}

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"RenderSuccess", RenderSuccess, StatusIndicators.Success},
		{"RenderError", RenderError, StatusIndicators.Error},
		{"RenderWarning", RenderWarning, StatusIndicators.Warning},
		{"RenderInfo", RenderInfo, StatusIndicators.Info},
	}

	for _, tt := range tests {
		out := tt.render("message text")
		if !strings.Contains(out, tt.indicator) {
			t.Errorf("%s output should contain %q shape indicator", tt.name, tt.indicator)
		}
		if !strings.Contains(out, "message text") {
			t.Errorf("%s output should contain the message", tt.name)
		}
	}
}

func TestRenderStatus(t *testing.T) {
	ok := RenderStatus(true, "joined")
	if !strings.Contains(ok, StatusIndicators.Success) {
		t.Error("RenderStatus(true) should use the success indicator")
	}

	fail := RenderStatus(false, "denied")
	if !strings.Contains(fail, StatusIndicators.Error) {
		t.Error("RenderStatus(false) should use the error indicator")
	}
}

// =============================================================================
// THEME TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme()

	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	// Verify styles are initialized by rendering a test string
	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"SelfBubble", theme.SelfBubble},
		{"PeerBubble", theme.PeerBubble},
		{"SystemNotice", theme.SystemNotice},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
		{"GateBox", theme.GateBox},
		{"SuggestionPopup", theme.SuggestionPopup},
		{"ErrorBox", theme.ErrorBox},
	}

	for _, s := range styles {
		rendered := s.style.Render("test")
		if rendered == "" {
			t.Errorf("%s style should be initialized", s.name)
		}
	}
}

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(120, 40)

	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize(120, 40) = %dx%d", theme.Width, theme.Height)
	}
}

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme()
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tt.width, got, tt.want)
		}
	}
}

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestSpinnerFrameAt(t *testing.T) {
	s := LineSpinner

	if s.FrameAt(0) != s.Frames[0] {
		t.Error("FrameAt(0) should return the first frame")
	}
	if s.FrameAt(len(s.Frames)) != s.Frames[0] {
		t.Error("FrameAt should wrap around the frame list")
	}
	if s.FrameAt(-1) == "" {
		t.Error("FrameAt should tolerate negative ticks")
	}

	empty := SpinnerConfig{FPS: 10}
	if empty.FrameAt(3) != "" {
		t.Error("FrameAt on an empty spinner should return the empty string")
	}
}

func TestSpinnerDuration(t *testing.T) {
	if LineSpinner.Duration() <= 0 {
		t.Error("spinner frame duration should be positive")
	}
}
