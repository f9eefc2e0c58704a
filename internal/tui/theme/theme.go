// Package theme provides color themes for the TUI.
package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Default is the theme used when none is configured.
const Default = "mocha"

// Theme holds all colors for a TUI theme.
type Theme struct {
	Name        string
	Bg          string // Base background
	BgHighlight string // Item blocks, subtle highlight
	BgSelection string // Cursor, selection
	Fg          string // Primary foreground
	FgMuted     string // Hour labels, muted elements
	Accent      string // Title, primary accent, borders
	Event       string // Calendar events
	Task        string // Project tasks
	Current     string // Now line
	Warning     string // Drag preview, pending writes
	Conflict    string // Overlapping items

	// Modal palette (can override base theme values)
	BaseBg      string
	ModalBorder string
	TextPrimary string
	TextMuted   string
	Highlight   string
}

// Catppuccin flavours plus a plain light theme.
var builtin = map[string]Theme{
	"mocha": {
		Bg: "#1e1e2e", BgHighlight: "#313244", BgSelection: "#45475a",
		Fg: "#cdd6f4", FgMuted: "#7f849c", Accent: "#89b4fa",
		Event: "#89b4fa", Task: "#a6e3a1", Current: "#fab387",
		Warning: "#f9e2af", Conflict: "#f38ba8",
	},
	"macchiato": {
		Bg: "#24273a", BgHighlight: "#363a4f", BgSelection: "#494d64",
		Fg: "#cad3f5", FgMuted: "#8087a2", Accent: "#8aadf4",
		Event: "#8aadf4", Task: "#a6da95", Current: "#f5a97f",
		Warning: "#eed49f", Conflict: "#ed8796",
	},
	"frappe": {
		Bg: "#303446", BgHighlight: "#414559", BgSelection: "#51576d",
		Fg: "#c6d0f5", FgMuted: "#838ba7", Accent: "#8caaee",
		Event: "#8caaee", Task: "#a6d189", Current: "#ef9f76",
		Warning: "#e5c890", Conflict: "#e78284",
	},
	"latte": {
		Bg: "#eff1f5", BgHighlight: "#e6e9ef", BgSelection: "#ccd0da",
		Fg: "#4c4f69", FgMuted: "#8c8fa1", Accent: "#1e66f5",
		Event: "#1e66f5", Task: "#40a02b", Current: "#fe640b",
		Warning: "#df8e1d", Conflict: "#d20f39",
	},
	"light": {
		Bg: "#f5f5f5", BgHighlight: "#eeeeee", BgSelection: "#e0e0e0",
		Fg: "#222222", FgMuted: "#555555", Accent: "#2f6feb",
		Event: "#2f6feb", Task: "#2f8f2f", Current: "#c97b00",
		Warning: "#c2410c", Conflict: "#b91c1c",
		ModalBorder: "#2f6feb",
	},
}

// Color returns a lipgloss.Color for the given hex string.
func Color(hex string) lipgloss.Color {
	return lipgloss.Color(hex)
}

// Load returns a theme by name. Unknown names fall back to the default.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = Default
	}
	name = strings.ToLower(name)

	t, ok := builtin[name]
	if !ok {
		if name != Default {
			return Load(Default)
		}
		return nil, fmt.Errorf("loading theme %q: not found", name)
	}
	t.Name = name
	t.applyDefaults()
	return &t, nil
}

// ModalPalette provides the modal-specific colors derived from the theme.
type ModalPalette struct {
	BaseBg      string
	ModalBorder string
	TextPrimary string
	TextMuted   string
	Highlight   string
}

// Modal returns the modal palette, falling back to base theme colors when needed.
func (t *Theme) Modal() ModalPalette {
	return ModalPalette{
		BaseBg:      coalesce(t.BaseBg, t.BgHighlight, t.Bg),
		ModalBorder: coalesce(t.ModalBorder, t.Accent),
		TextPrimary: coalesce(t.TextPrimary, t.Fg),
		TextMuted:   coalesce(t.TextMuted, t.FgMuted),
		Highlight:   coalesce(t.Highlight, t.BgSelection, t.Accent),
	}
}

func (t *Theme) applyDefaults() {
	if t.BaseBg == "" {
		t.BaseBg = coalesce(t.BgHighlight, t.Bg)
	}
	if t.ModalBorder == "" {
		t.ModalBorder = t.Accent
	}
	if t.TextPrimary == "" {
		t.TextPrimary = t.Fg
	}
	if t.TextMuted == "" {
		t.TextMuted = t.FgMuted
	}
	if t.Highlight == "" {
		t.Highlight = coalesce(t.BgSelection, t.Accent)
	}
	if t.Conflict == "" {
		t.Conflict = t.Warning
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns a list of available theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte", "light"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	name = strings.ToLower(name)
	for _, themeName := range Available() {
		if themeName == name {
			return true
		}
	}
	return false
}
