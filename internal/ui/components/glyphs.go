// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskdesk/taskchat-tui/internal/ui/styles"
)

// =============================================================================
// GLYPH PALETTE COMPONENT
// =============================================================================

// DefaultGlyphs is the fixed set offered by the palette. Chosen glyphs are
// appended to the message draft, never submitted on their own.
var DefaultGlyphs = []string{
	"\U0001F44D", // thumbs up
	"\U0001F44C", // ok hand
	"\U0001F600", // grinning
	"\U0001F602", // tears of joy
	"\U0001F389", // party popper
	"\U0001F4AF", // hundred
	"\U0001F525", // fire
	"✅",     // check mark
	"❌",     // cross mark
	"❤",     // heart
	"⭐",     // star
	"❓",     // question mark
}

// GlyphPalette is a horizontal picker of message glyphs. It replaces a
// pointer-driven emoji picker with keyboard selection.
type GlyphPalette struct {
	glyphs   []string
	selected int
	open     bool
	theme    *styles.Theme
}

// NewGlyphPalette creates a palette over the default glyph set.
func NewGlyphPalette(theme *styles.Theme) *GlyphPalette {
	return &GlyphPalette{
		glyphs: DefaultGlyphs,
		theme:  theme,
	}
}

// Open shows the palette and resets the selection.
func (g *GlyphPalette) Open() {
	g.open = true
	g.selected = 0
}

// Close hides the palette.
func (g *GlyphPalette) Close() {
	g.open = false
}

// Toggle flips the palette visibility.
func (g *GlyphPalette) Toggle() {
	if g.open {
		g.Close()
		return
	}
	g.Open()
}

// IsOpen returns true while the palette is visible.
func (g *GlyphPalette) IsOpen() bool {
	return g.open
}

// Next selects the next glyph.
func (g *GlyphPalette) Next() {
	if len(g.glyphs) == 0 {
		return
	}
	g.selected = (g.selected + 1) % len(g.glyphs)
}

// Prev selects the previous glyph.
func (g *GlyphPalette) Prev() {
	if len(g.glyphs) == 0 {
		return
	}
	g.selected--
	if g.selected < 0 {
		g.selected = len(g.glyphs) - 1
	}
}

// Selected returns the currently selected glyph, or "" when the set is empty.
func (g *GlyphPalette) Selected() string {
	if g.selected < 0 || g.selected >= len(g.glyphs) {
		return ""
	}
	return g.glyphs[g.selected]
}

// View renders the palette as a single bordered row.
func (g *GlyphPalette) View() string {
	if !g.open || len(g.glyphs) == 0 {
		return ""
	}

	var cells []string
	for i, glyph := range g.glyphs {
		style := g.theme.PaletteItem
		if i == g.selected {
			style = g.theme.PaletteItemSelected
		}
		cells = append(cells, style.Render(glyph))
	}

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	row := strings.Join(cells, " ")
	hint := hintStyle.Render("left/right: pick  enter: insert  esc: close")

	return g.theme.PaletteBox.Render(row + "\n" + hint)
}
