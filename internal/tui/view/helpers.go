package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// PlaceBox places content in a w x h box filled with bg.
func PlaceBox(w, h int, vAlign lipgloss.Position, content string, bg lipgloss.Color) string {
	placed := lipgloss.Place(w, h, lipgloss.Left, vAlign, content, lipgloss.WithWhitespaceBackground(bg))
	return FitLines(placed, w, h, bg)
}

// FitLines makes content exactly width columns by height lines. Short lines
// are filled with bg, long lines are cut and missing lines are added blank.
func FitLines(content string, width, height int, bg lipgloss.Color) string {
	if width <= 0 || height <= 0 {
		return content
	}
	fill := lipgloss.NewStyle().Background(bg)
	lines := strings.Split(content, "\n")
	out := make([]string, height)
	for i := range out {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		out[i] = fitLine(line, width, fill)
	}
	return strings.Join(out, "\n")
}

func fitLine(line string, width int, fill lipgloss.Style) string {
	w := lipgloss.Width(line)
	switch {
	case w > width:
		return ansi.Truncate(line, width, "")
	case w < width:
		return line + fill.Render(strings.Repeat(" ", width-w))
	}
	return line
}

// fitCell renders text in a lane cell exactly w columns wide, ending in an
// ellipsis when the text is cut.
func fitCell(text string, w int, style lipgloss.Style) string {
	if w <= 0 {
		return ""
	}
	text = ansi.Truncate(text, w-1, "…")
	return style.Width(w).MaxWidth(w).Render(text)
}

// Overlay centers dialog over the timeline in base. The dialog keeps bg
// across its inner style resets so the grid never shows through it.
func Overlay(base, dialog string, width, height int, bg lipgloss.Color) string {
	rows := dialogRows(dialog, width, bg)
	if len(rows) == 0 {
		return base
	}
	dw := lipgloss.Width(rows[0])
	top := max((height-len(rows))/2, 0)
	left := max((width-dw)/2, 0)

	lines := strings.Split(FitLines(base, width, height, ""), "\n")
	for i, row := range rows {
		y := top + i
		if y >= len(lines) {
			break
		}
		line := lines[y]
		lines[y] = ansi.Cut(line, 0, left) + row + ansi.Cut(line, left+dw, width)
	}
	return strings.Join(lines, "\n")
}

// dialogRows pads every dialog line to the widest one, at most maxWidth.
func dialogRows(dialog string, maxWidth int, bg lipgloss.Color) []string {
	lines := strings.Split(dialog, "\n")
	w := 0
	for _, line := range lines {
		w = max(w, lipgloss.Width(line))
	}
	w = min(w, maxWidth)
	if w <= 0 {
		return nil
	}

	fill := lipgloss.NewStyle().Background(bg)
	seq := backgroundSeq(bg)
	for i, line := range lines {
		line = fitLine(line, w, fill)
		if seq != "" {
			line = keepBackground(line, seq)
		}
		lines[i] = line + ansi.ResetStyle
	}
	return lines
}

// keepBackground puts seq back after every reset inside line.
func keepBackground(line, seq string) string {
	for _, reset := range []string{ansi.ResetStyle, "\x1b[0m", "\x1b[49m"} {
		line = strings.ReplaceAll(line, reset, reset+seq)
	}
	return line
}

func backgroundSeq(bg lipgloss.Color) string {
	if bg == "" {
		return ""
	}
	return ansi.Style{}.BackgroundColor(ansi.HexColor(string(bg))).String()
}
