// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"
)

func TestNewErrorToast(t *testing.T) {
	toast := NewErrorToast("Upload failed")

	if toast.Message != "Upload failed" {
		t.Errorf("Expected message 'Upload failed', got '%s'", toast.Message)
	}
	if toast.Kind != ToastKindError {
		t.Errorf("Expected ToastKindError, got %d", toast.Kind)
	}
	if toast.Duration != ErrorToastDuration {
		t.Errorf("Expected duration %v, got %v", ErrorToastDuration, toast.Duration)
	}
	if !toast.Dismissible {
		t.Error("Expected toast to be dismissible")
	}
	if toast.ID == 0 {
		t.Error("Expected non-zero toast ID")
	}
}

func TestNewWarningToast(t *testing.T) {
	toast := NewWarningToast("Access check unavailable")

	if toast.Kind != ToastKindWarning {
		t.Errorf("Expected ToastKindWarning, got %d", toast.Kind)
	}
	if toast.Duration != WarningToastDuration {
		t.Errorf("Expected duration %v, got %v", WarningToastDuration, toast.Duration)
	}
}

func TestNewSuccessToast(t *testing.T) {
	toast := NewSuccessToast("File shared")

	if toast.Kind != ToastKindSuccess {
		t.Errorf("Expected ToastKindSuccess, got %d", toast.Kind)
	}
	if toast.Duration != DefaultToastDuration {
		t.Errorf("Expected duration %v, got %v", DefaultToastDuration, toast.Duration)
	}
}

func TestToastIsExpired(t *testing.T) {
	toast := NewStatusToast("Test")
	toast.Duration = 10 * time.Millisecond
	toast.CreatedAt = time.Now().Add(-20 * time.Millisecond)

	if !toast.IsExpired() {
		t.Error("Toast should be expired")
	}

	freshToast := NewStatusToast("Fresh")
	if freshToast.IsExpired() {
		t.Error("Fresh toast should not be expired")
	}
}

func TestToastTimeRemaining(t *testing.T) {
	toast := NewStatusToast("Test")
	toast.Duration = time.Hour

	if toast.TimeRemaining() <= 0 {
		t.Error("Fresh toast should have time remaining")
	}

	toast.CreatedAt = time.Now().Add(-2 * time.Hour)
	if toast.TimeRemaining() != 0 {
		t.Error("Expired toast should have zero time remaining")
	}
}

func TestToastManager(t *testing.T) {
	manager := NewToastManager()

	if manager.HasToasts() {
		t.Error("New manager should have no toasts")
	}

	id1 := manager.AddError("Error 1")
	manager.AddWarning("Warning 1")

	if !manager.HasToasts() {
		t.Error("Manager should have toasts after adding")
	}

	toasts := manager.GetToasts()
	if len(toasts) != 2 {
		t.Errorf("Expected 2 toasts, got %d", len(toasts))
	}

	manager.RemoveToast(id1)
	toasts = manager.GetToasts()
	if len(toasts) != 1 {
		t.Errorf("Expected 1 toast after removal, got %d", len(toasts))
	}

	manager.Clear()
	if manager.HasToasts() {
		t.Error("Manager should have no toasts after clear")
	}
}

func TestToastManagerNewestFirst(t *testing.T) {
	manager := NewToastManager()
	manager.AddStatus("first")
	manager.AddStatus("second")

	toasts := manager.GetToasts()
	if toasts[0].Message != "second" {
		t.Errorf("Newest toast should be first, got '%s'", toasts[0].Message)
	}
}

func TestToastManagerMaxToasts(t *testing.T) {
	manager := NewToastManager()
	for i := 0; i < 10; i++ {
		manager.AddStatus("toast")
	}

	if got := len(manager.GetToasts()); got > 5 {
		t.Errorf("Manager should cap visible toasts at 5, got %d", got)
	}
}

func TestTickToastsDropsExpired(t *testing.T) {
	manager := NewToastManager()

	expired := NewStatusToast("old")
	expired.CreatedAt = time.Now().Add(-time.Minute)
	manager.AddToast(expired)
	manager.AddStatus("fresh")

	remaining := manager.TickToasts()
	if len(remaining) != 1 {
		t.Fatalf("Expected 1 toast after tick, got %d", len(remaining))
	}
	if remaining[0].Message != "fresh" {
		t.Errorf("Expected 'fresh' to survive, got '%s'", remaining[0].Message)
	}
}

func TestRenderToastContainsMessage(t *testing.T) {
	toast := NewErrorToast("task room closed")
	out := RenderToast(toast, 80)

	if !strings.Contains(out, "task room closed") {
		t.Error("Rendered toast should contain the message")
	}
}

func TestRenderToastStackEmpty(t *testing.T) {
	if out := RenderToastStack(nil, 80, 24); out != "" {
		t.Error("Empty stack should render to the empty string")
	}
}

func TestWrapToastText(t *testing.T) {
	wrapped := wrapToastText("one two three four five", 9)
	lines := strings.Split(wrapped, "\n")
	if len(lines) < 2 {
		t.Error("Long text should wrap onto multiple lines")
	}
	for _, line := range lines {
		if len(line) > 9 {
			t.Errorf("Line %q exceeds wrap width", line)
		}
	}
}
