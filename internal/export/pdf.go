// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/taskdesk/taskchat-tui/internal/model"
	"github.com/taskdesk/taskchat-tui/internal/util"
)

// Layout constants for the room transcript PDF, in millimeters on A4.
const (
	pdfLeftMargin   = 20.0
	pdfWrapWidth    = 170.0
	pdfBottomGuard  = 20.0
	pdfLineStep     = 10.0
	pdfMessageGap   = 15.0
	pdfAttachIndent = 30.0
)

// PDFFileName returns the dated file name for a room transcript.
func PDFFileName(roomName string, now time.Time) string {
	return fmt.Sprintf("chat-history-%s-%s.pdf",
		util.SanitizeFilename(roomName), now.Format("2006-01-02"))
}

// WritePDF renders a room transcript as a PDF under dir and returns the
// full path. Each message shows a bold sender, wrapped content, a small
// right-aligned clock, and an italic attachment line for file shares.
func WritePDF(dir, roomName string, msgs []model.Message) (string, error) {
	now := time.Now()
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	_, pageH := pdf.GetPageSize()

	// Title and generation stamp.
	pdf.SetFont("Helvetica", "", 20)
	pdf.Text(pdfLeftMargin, 20, tr("Chat History - "+roomName))
	pdf.SetFontSize(10)
	pdf.Text(pdfLeftMargin, 30, tr("Generated on: "+now.Format("1/2/2006, 3:04:05 PM")))

	pdf.SetFontSize(12)
	y := 40.0

	for _, msg := range msgs {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Text(pdfLeftMargin, y, tr(msg.From+":"))

		pdf.SetFont("Helvetica", "", 12)
		lines := pdf.SplitText(tr(msg.Content), pdfWrapWidth)
		if len(lines) == 0 {
			lines = []string{""}
		}

		if y+pdfLineStep*float64(len(lines)) > pageH-pdfBottomGuard {
			pdf.AddPage()
			y = 20
		}

		for i, line := range lines {
			pdf.Text(pdfLeftMargin, y+5+pdfLineStep*float64(i), line)
		}

		// Clock, right-aligned against the wrap edge.
		clock := tr(msg.DisplayTime())
		pdf.SetFontSize(8)
		pdf.Text(pdfLeftMargin+pdfWrapWidth-pdf.GetStringWidth(clock), y, clock)
		pdf.SetFontSize(12)

		y += pdfLineStep*float64(len(lines)) + pdfMessageGap

		if msg.FileName != "" {
			if y > pageH-pdfBottomGuard {
				pdf.AddPage()
				y = 20
			}
			pdf.SetFont("Helvetica", "I", 12)
			pdf.Text(pdfAttachIndent, y, tr("Attachment: "+msg.FileName))
			y += pdfLineStep
		}
	}

	path := filepath.Join(dir, PDFFileName(roomName, now))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	return path, nil
}

// WriteSimplePDF renders the transcript as an unadorned text block, the
// general room's lightweight variant, to dir/chat.pdf.
func WriteSimplePDF(dir string, msgs []model.Message) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(10, 10)
	pdf.MultiCell(190, 6, tr(PlainText(msgs)), "", "L", false)

	path := filepath.Join(dir, "chat.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	return path, nil
}
