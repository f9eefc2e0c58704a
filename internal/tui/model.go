// Package tui provides the terminal timeline for dayline.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/session"
	"github.com/javiermolinar/dayline/internal/tui/commands"
	"github.com/javiermolinar/dayline/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeDrag        // a move, resize or create gesture is previewed
	ModePrompt
	ModeModal
)

// ModalType identifies the type of modal.
type ModalType int

const (
	ModalNone ModalType = iota
	ModalConflict
	ModalConfirmDelete
	ModalHelp
)

// promptPurpose is what a submitted prompt does.
type promptPurpose int

const (
	promptQuickAdd promptPurpose = iota
	promptTitle                  // title of an item placed with a create gesture
)

const (
	// rowMinutes is the duration of one timeline row.
	rowMinutes = 15
	// dragStep and dragJump are the gesture increments for j/k and J/K.
	dragStep = 5
	dragJump = 30

	defaultDayStart   = 7 * 60
	defaultDayEnd     = 22 * 60
	defaultTaskLength = 30
	statusDuration    = 3 * time.Second
)

// Options configure the TUI.
type Options struct {
	Theme      string
	DayStart   string // "HH:MM" of the first row shown when the day is empty
	DayEnd     string
	TaskLength int // minutes given to items placed with the create gesture
	Logger     *zap.Logger
	Now        func() time.Time
}

// Model is the main TUI model.
type Model struct {
	session *session.Session
	logger  *zap.Logger
	now     func() time.Time

	theme  *theme.Theme
	styles *Styles

	dayStart   int
	dayEnd     int
	taskLength int

	mode    Mode
	modal   ModalType
	loading bool
	shown   time.Time // day the cursor was placed for

	// cursor is the first minute of the highlighted row.
	cursor int
	// focus is the item the item keys act on.
	focus string

	gesture   *session.Gesture
	dragDelta int

	prompt        textinput.Model
	promptPurpose promptPurpose
	promptKind    item.Kind

	conflicts    []item.Item
	modalButton  int
	waiting      bool // a conflict answer is being written
	deleteTarget item.Item
	lastDeleted  string

	width  int
	height int

	statusMsg  string
	statusTime time.Time
}

// New creates a model showing s.
func New(s *session.Session, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TaskLength <= 0 {
		opts.TaskLength = defaultTaskLength
	}

	t, err := theme.Load(opts.Theme)
	if err != nil {
		t, _ = theme.Load(theme.Default)
	}
	styles := NewStyles(t)

	ti := textinput.New()
	ti.Placeholder = "9-10 standup, /task, /goto tomorrow"
	ti.CharLimit = 256
	ti.Prompt = "> "
	ti.TextStyle = styles.PromptStyle
	ti.PromptStyle = styles.PromptStyle

	m := Model{
		session:    s,
		logger:     opts.Logger,
		now:        opts.Now,
		theme:      t,
		styles:     styles,
		dayStart:   clockOr(opts.DayStart, defaultDayStart),
		dayEnd:     clockOr(opts.DayEnd, defaultDayEnd),
		taskLength: opts.TaskLength,
		mode:       ModeNormal,
		prompt:     ti,
		promptKind: item.KindEvent,
	}
	if m.dayEnd <= m.dayStart {
		m.dayStart, m.dayEnd = defaultDayStart, defaultDayEnd
	}
	m.cursor = m.initialCursor()
	return m
}

// Init loads the session's day.
func (m Model) Init() tea.Cmd {
	return commands.Load(m.session, m.session.Date())
}

// Run starts the TUI on s.
func Run(s *session.Session, opts Options) error {
	p := tea.NewProgram(New(s, opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running timeline: %w", err)
	}
	return nil
}

// Mode returns the interaction mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Modal returns the open modal.
func (m Model) Modal() ModalType {
	return m.modal
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.statusMsg
}

// Focus returns the ID of the focused item.
func (m Model) Focus() string {
	return m.focus
}

func clockOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := item.ToMinutes(s)
	if err != nil {
		return fallback
	}
	return v
}

// initialCursor starts on the current time for today, or the top of the
// working day otherwise.
func (m Model) initialCursor() int {
	now := m.now()
	date := m.session.Date()
	if now.Year() == date.Year() && now.YearDay() == date.YearDay() {
		return snapRow(now.Hour()*60 + now.Minute())
	}
	return snapRow(m.dayStart)
}

func snapRow(minute int) int {
	minute = max(0, min(minute, item.MinutesPerDay-rowMinutes))
	return minute - minute%rowMinutes
}

func (m Model) setStatus(msg string) (Model, tea.Cmd) {
	m.statusMsg = msg
	m.statusTime = m.now().Add(statusDuration)
	return m, tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return commands.ClearStatusMsg{}
	})
}
