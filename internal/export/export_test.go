// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskdesk/taskchat-tui/internal/model"
)

func sampleMessages() []model.Message {
	base := time.Date(2025, 5, 1, 9, 30, 0, 0, time.Local)
	return []model.Message{
		{From: "ava", Content: "morning", Time: "9:30 AM", Timestamp: base},
		{From: "kim", Content: "status update ready", Time: "9:31 AM", Timestamp: base.Add(time.Minute)},
		{From: "ava", Content: "Shared a file: report.pdf", Time: "9:32 AM",
			Timestamp: base.Add(2 * time.Minute),
			FileURL:   "/uploads/report.pdf", FileName: "report.pdf"},
	}
}

func TestPlainTextFormat(t *testing.T) {
	got := PlainText(sampleMessages())
	want := "ava: morning - 9:30 AM\n" +
		"kim: status update ready - 9:31 AM\n" +
		"ava: Shared a file: report.pdf - 9:32 AM"
	if got != want {
		t.Errorf("PlainText =\n%q\nwant\n%q", got, want)
	}
}

func TestPlainTextFallsBackToTimestamp(t *testing.T) {
	msgs := []model.Message{{
		From:      "ava",
		Content:   "hi",
		Timestamp: time.Date(2025, 5, 1, 14, 5, 0, 0, time.Local),
	}}
	got := PlainText(msgs)
	if !strings.HasSuffix(got, "- 14:05") {
		t.Errorf("expected timestamp fallback, got %q", got)
	}
}

func TestPlainTextEmpty(t *testing.T) {
	if got := PlainText(nil); got != "" {
		t.Errorf("empty transcript = %q", got)
	}
}

func TestWriteText(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteText(dir, sampleMessages())
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if filepath.Base(path) != "chat.txt" {
		t.Errorf("file name = %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "kim: status update ready - 9:31 AM") {
		t.Errorf("transcript content missing: %q", data)
	}
}

func TestPDFFileName(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	got := PDFFileName("Launch Plan", now)
	if got != "chat-history-Launch-Plan-2025-05-01.pdf" {
		t.Errorf("file name = %q", got)
	}
}

func TestWritePDF(t *testing.T) {
	dir := t.TempDir()
	path, err := WritePDF(dir, "Launch", sampleMessages())
	if err != nil {
		t.Fatalf("WritePDF: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
	if len(data) < 500 {
		t.Errorf("suspiciously small PDF: %d bytes", len(data))
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "chat-history-Launch-") || !strings.HasSuffix(name, ".pdf") {
		t.Errorf("file name = %q", name)
	}
}

func TestWritePDFManyMessagesPaginates(t *testing.T) {
	msgs := make([]model.Message, 0, 60)
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.Local)
	for i := 0; i < 60; i++ {
		msgs = append(msgs, model.Message{
			From:      "ava",
			Content:   strings.Repeat("long line of chatter ", 6),
			Time:      "9:00 AM",
			Timestamp: at,
		})
	}

	dir := t.TempDir()
	path, err := WritePDF(dir, "busy-room", msgs)
	if err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty PDF")
	}
}

func TestWriteSimplePDF(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSimplePDF(dir, sampleMessages())
	if err != nil {
		t.Fatalf("WriteSimplePDF: %v", err)
	}
	if filepath.Base(path) != "chat.pdf" {
		t.Errorf("file name = %q", filepath.Base(path))
	}
	data, _ := os.ReadFile(path)
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}
