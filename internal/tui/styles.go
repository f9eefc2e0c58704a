package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/dayline/internal/tui/theme"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	colorBg      lipgloss.Color
	colorFgMuted lipgloss.Color

	TitleStyle     lipgloss.Style
	SubtitleStyle  lipgloss.Style
	StaleStyle     lipgloss.Style
	SeparatorStyle lipgloss.Style

	// Time column
	TimeColumnStyle lipgloss.Style
	TimeHourStyle   lipgloss.Style
	TimeNowStyle    lipgloss.Style
	CursorStyle     lipgloss.Style

	FreeStyle lipgloss.Style

	// Item blocks
	EventStyle     lipgloss.Style
	TaskStyle      lipgloss.Style
	EventAltStyle  lipgloss.Style // adjacent events alternate shades
	TaskAltStyle   lipgloss.Style
	EventPastStyle lipgloss.Style
	TaskPastStyle  lipgloss.Style
	ConflictStyle  lipgloss.Style
	SelectedStyle  lipgloss.Style
	PreviewStyle   lipgloss.Style
	LockedStyle    lipgloss.Style

	// Footer
	StatsStyle         lipgloss.Style
	StatsEventStyle    lipgloss.Style
	StatsTaskStyle     lipgloss.Style
	StatsConflictStyle lipgloss.Style
	UnscheduledStyle   lipgloss.Style
	PromptStyle        lipgloss.Style
	PromptKindStyle    lipgloss.Style
	StatusStyle        lipgloss.Style
	HelpStyle          lipgloss.Style

	// Modal styles
	ModalStyle             lipgloss.Style
	ModalBgColor           lipgloss.Color
	ModalHeaderStyle       lipgloss.Style
	ModalFooterStyle       lipgloss.Style
	ModalTitleStyle        lipgloss.Style
	ModalBodyStyle         lipgloss.Style
	ModalMetaStyle         lipgloss.Style
	ModalButtonStyle       lipgloss.Style
	ModalButtonActiveStyle lipgloss.Style

	AppStyle lipgloss.Style
}

// NewStyles creates the styles for t.
func NewStyles(t *theme.Theme) *Styles {
	s := &Styles{}
	palette := theme.NewPalette(t)

	s.colorBg = palette.Bg
	s.colorFgMuted = palette.FgMuted

	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(palette.Accent).
		Background(palette.Bg)

	s.SubtitleStyle = lipgloss.NewStyle().
		Foreground(palette.FgMuted).
		Background(palette.Bg)

	s.StaleStyle = lipgloss.NewStyle().
		Foreground(palette.Warning).
		Background(palette.Bg).
		Bold(true)

	s.SeparatorStyle = lipgloss.NewStyle().
		Foreground(palette.BgSelection).
		Background(palette.Bg)

	s.TimeColumnStyle = lipgloss.NewStyle().
		Foreground(palette.FgMuted).
		Background(palette.Bg)

	s.TimeHourStyle = s.TimeColumnStyle.
		Foreground(palette.Accent)

	s.TimeNowStyle = lipgloss.NewStyle().
		Foreground(palette.TextOnCurrent).
		Background(palette.Current).
		Bold(true)

	s.CursorStyle = lipgloss.NewStyle().
		Foreground(palette.Accent).
		Background(palette.BgSelection).
		Bold(true)

	s.FreeStyle = lipgloss.NewStyle().
		Background(palette.Bg)

	block := lipgloss.NewStyle().Foreground(palette.Fg).Bold(true)
	s.EventStyle = block.Background(palette.EventBg)
	s.TaskStyle = block.Background(palette.TaskBg)
	s.EventAltStyle = block.Background(palette.EventBgAlt)
	s.TaskAltStyle = block.Background(palette.TaskBgAlt)

	// past items stay readable but drop the bold
	s.EventPastStyle = lipgloss.NewStyle().
		Foreground(palette.Fg).
		Background(palette.EventPastBg)
	s.TaskPastStyle = lipgloss.NewStyle().
		Foreground(palette.Fg).
		Background(palette.TaskPastBg)

	s.ConflictStyle = lipgloss.NewStyle().
		Foreground(palette.TextOnConflict).
		Background(palette.ConflictBg).
		Bold(true)

	s.SelectedStyle = lipgloss.NewStyle().
		Foreground(palette.TextOnWarning).
		Background(palette.Warning).
		Bold(true)

	s.PreviewStyle = lipgloss.NewStyle().
		Foreground(palette.TextOnAccent).
		Background(palette.Accent).
		Bold(true)

	s.LockedStyle = lipgloss.NewStyle().
		Foreground(palette.FgMuted).
		Background(palette.BgSelection).
		Italic(true)

	s.StatsStyle = lipgloss.NewStyle().
		Foreground(palette.Fg).
		Background(palette.Bg)

	s.StatsEventStyle = lipgloss.NewStyle().
		Foreground(palette.Event).
		Background(palette.Bg).
		Bold(true)

	s.StatsTaskStyle = lipgloss.NewStyle().
		Foreground(palette.Task).
		Background(palette.Bg).
		Bold(true)

	s.StatsConflictStyle = lipgloss.NewStyle().
		Foreground(palette.Conflict).
		Background(palette.Bg).
		Bold(true)

	s.UnscheduledStyle = lipgloss.NewStyle().
		Foreground(palette.FgMuted).
		Background(palette.Bg)

	s.PromptStyle = lipgloss.NewStyle().
		Foreground(palette.Fg).
		Background(palette.BgHighlight)

	s.PromptKindStyle = lipgloss.NewStyle().
		Foreground(palette.TextOnAccent).
		Background(palette.Accent).
		Bold(true).
		Padding(0, 1)

	s.StatusStyle = lipgloss.NewStyle().
		Foreground(palette.Warning).
		Background(palette.Bg).
		Bold(true)

	s.HelpStyle = lipgloss.NewStyle().
		Foreground(palette.FgMuted).
		Background(palette.Bg)

	modal := palette.Modal
	s.ModalBgColor = modal.Bg

	s.ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(modal.Border).
		Background(modal.Bg).
		Foreground(modal.Text).
		Padding(1, 1).
		Width(56).
		Align(lipgloss.Left)

	s.ModalHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(modal.Text).
		Background(modal.Bg).
		Padding(0, 1)

	s.ModalFooterStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(modal.Bg)

	s.ModalTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(modal.Text).
		Background(modal.Bg)

	s.ModalBodyStyle = lipgloss.NewStyle().
		Foreground(modal.Text).
		Background(modal.Bg)

	s.ModalMetaStyle = lipgloss.NewStyle().
		Foreground(modal.Muted).
		Background(modal.Bg)

	s.ModalButtonStyle = lipgloss.NewStyle().
		Background(modal.Panel).
		Foreground(modal.Text).
		Padding(0, 2)

	s.ModalButtonActiveStyle = lipgloss.NewStyle().
		Background(modal.Highlight).
		Foreground(modal.ReverseText).
		Padding(0, 2).
		Underline(true)

	s.AppStyle = lipgloss.NewStyle().
		Background(palette.Bg).
		Padding(1, 2)

	return s
}
