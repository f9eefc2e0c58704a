package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewPalette_ItemShades(t *testing.T) {
	base := &Theme{
		Bg:          "#101010",
		BgHighlight: "#202020",
		BgSelection: "#303030",
		Fg:          "#ffffff",
		FgMuted:     "#aaaaaa",
		Accent:      "#ff0000",
		Event:       "#112233",
		Task:        "#445566",
		Current:     "#777777",
		Warning:     "#888888",
	}

	palette := NewPalette(base)

	if palette.EventBg != lipgloss.Color(darkenColor(base.Event)) {
		t.Fatalf("EventBg = %q, want %q", palette.EventBg, darkenColor(base.Event))
	}
	if palette.TaskBg != lipgloss.Color(darkenColor(base.Task)) {
		t.Fatalf("TaskBg = %q, want %q", palette.TaskBg, darkenColor(base.Task))
	}
	if palette.EventPastBgAlt != lipgloss.Color(alternateShade(muteColor(base.Event), false)) {
		t.Fatalf("EventPastBgAlt = %q, want %q", palette.EventPastBgAlt, alternateShade(muteColor(base.Event), false))
	}
	if palette.TaskPastBgAlt != lipgloss.Color(alternateShade(muteColor(base.Task), false)) {
		t.Fatalf("TaskPastBgAlt = %q, want %q", palette.TaskPastBgAlt, alternateShade(muteColor(base.Task), false))
	}
}

func TestNewPalette_ModalFallbacks(t *testing.T) {
	base := &Theme{
		Bg:          "#101010",
		BgHighlight: "#202020",
		BgSelection: "#303030",
		Fg:          "#ffffff",
		FgMuted:     "#aaaaaa",
		Accent:      "#ff0000",
		Event:       "#00ff00",
		Task:        "#0000ff",
		Current:     "#ffff00",
		Warning:     "#ff00ff",
	}

	palette := NewPalette(base)
	if palette.Modal.Bg != lipgloss.Color(base.BgHighlight) {
		t.Fatalf("Modal.Bg = %q, want %q", palette.Modal.Bg, base.BgHighlight)
	}
	if palette.Modal.Border.Dark != base.Accent {
		t.Fatalf("Modal.Border.Dark = %q, want %q", palette.Modal.Border.Dark, base.Accent)
	}
	if palette.Modal.Backdrop != lipgloss.Color(base.BgSelection) {
		t.Fatalf("Modal.Backdrop = %q, want %q", palette.Modal.Backdrop, base.BgSelection)
	}
}

func TestNewPalette_LightThemeInvertsShades(t *testing.T) {
	base := &Theme{
		Bg:          "#f5f5f5",
		BgHighlight: "#eeeeee",
		BgSelection: "#e0e0e0",
		Fg:          "#222222",
		FgMuted:     "#555555",
		Accent:      "#2f6feb",
		Event:       "#1d8a8a",
		Task:        "#2f8f2f",
		Current:     "#c97b00",
		Warning:     "#c2410c",
	}

	palette := NewPalette(base)
	if relativeLuminance(string(palette.EventBg)) <= relativeLuminance(base.Event) {
		t.Fatalf("EventBg luminance = %f, want greater than Event", relativeLuminance(string(palette.EventBg)))
	}
	if relativeLuminance(string(palette.TaskBg)) <= relativeLuminance(base.Task) {
		t.Fatalf("TaskBg luminance = %f, want greater than Task", relativeLuminance(string(palette.TaskBg)))
	}
}

func TestChooseTextColorPrefersContrast(t *testing.T) {
	bg := "#f0f0f0"
	lightText := "#ffffff"
	darkText := "#111111"

	if got := chooseTextColor(bg, lightText, darkText); got != darkText {
		t.Fatalf("chooseTextColor(%q, %q, %q) = %q, want %q", bg, lightText, darkText, got, darkText)
	}
}

func TestNewPalette_ConflictShade(t *testing.T) {
	th, err := Load("mocha")
	if err != nil {
		t.Fatalf("Load(mocha) unexpected error: %v", err)
	}
	palette := NewPalette(th)
	if palette.Conflict != lipgloss.Color(th.Conflict) {
		t.Fatalf("Conflict = %q, want %q", palette.Conflict, th.Conflict)
	}
	if palette.ConflictBg != lipgloss.Color(darkenColor(th.Conflict)) {
		t.Fatalf("ConflictBg = %q, want %q", palette.ConflictBg, darkenColor(th.Conflict))
	}
}
