package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/session"
	"github.com/javiermolinar/dayline/internal/tui/commands"
)

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	logKeyPress(m.logger, msg, m.mode)

	if msg.String() == "ctrl+c" {
		if m.gesture != nil {
			m.gesture.Cancel()
		}
		return m, tea.Quit
	}
	switch m.mode {
	case ModePrompt:
		return m.handlePromptKeys(msg)
	case ModeDrag:
		return m.handleDragKeys(msg)
	case ModeModal:
		return m.handleModalKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "j", "down":
		m.moveCursor(rowMinutes)
	case "k", "up":
		m.moveCursor(-rowMinutes)
	case "pgdown", "ctrl+d":
		m.moveCursor(4 * 60)
	case "pgup", "ctrl+u":
		m.moveCursor(-4 * 60)
	case "tab":
		m.cycleFocus()

	// Days
	case "h", "left":
		return m.loadDay(m.session.Date().AddDate(0, 0, -1))
	case "l", "right":
		return m.loadDay(m.session.Date().AddDate(0, 0, 1))
	case "t":
		return m.loadDay(m.now())
	case "g":
		return m.loadDay(m.session.Date())

	// Gestures
	case "m":
		return m.beginGesture(session.Move)
	case "r":
		return m.beginGesture(session.Resize)
	case "n":
		return m.openPrompt(promptTitle, "")

	// Prompt
	case "a":
		return m.openPrompt(promptQuickAdd, "")
	case "/":
		return m.openPrompt(promptQuickAdd, "/")

	// Item actions
	case "d", "x":
		it, ok := m.focused()
		if !ok {
			return m.setStatus("No item selected")
		}
		m.mode = ModeModal
		m.modal = ModalConfirmDelete
		m.deleteTarget = it
		return m, nil
	case "u":
		if m.lastDeleted == "" {
			return m.setStatus("Nothing to restore")
		}
		id := m.lastDeleted
		m.lastDeleted = ""
		return m, commands.Restore(m.session, id)
	case ">":
		return m.reschedule(1)
	case "<":
		return m.reschedule(-1)

	case "?":
		m.mode = ModeModal
		m.modal = ModalHelp
		return m, nil
	}

	return m, nil
}

// handleDragKeys moves the gesture preview. Nothing is written until enter.
func (m Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.gesture == nil {
		m.mode = ModeNormal
		return m, nil
	}

	switch msg.String() {
	case "j", "down":
		m.drag(dragStep)
	case "k", "up":
		m.drag(-dragStep)
	case "J", "shift+down":
		m.drag(dragJump)
	case "K", "shift+up":
		m.drag(-dragJump)
	case "esc", "q":
		m.gesture.Cancel()
		m.gesture = nil
		m.mode = ModeNormal
		m.focusAtCursor()
		logModeChange(m.logger, ModeNormal, "gesture cancelled")
		return m.setStatus("Cancelled")
	case "enter":
		return m.endGesture()
	}
	return m, nil
}

// handleModalKeys handles keys while a modal is open.
func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case ModalConflict:
		return m.handleConflictKeys(msg)
	case ModalConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	default:
		m.closeModal()
		return m, nil
	}
}

// handleConflictKeys answers the pending conflict. The item stays locked
// until the answer comes back.
func (m Model) handleConflictKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	switch msg.String() {
	case "c", "esc", "n":
		return m.resolve(session.Cancel)
	case "f", "y":
		return m.resolve(session.Force)
	case "tab", "left", "right", "h", "l":
		m.modalButton = 1 - m.modalButton
		return m, nil
	case "enter":
		if m.modalButton == 1 {
			return m.resolve(session.Force)
		}
		return m.resolve(session.Cancel)
	}
	return m, nil
}

func (m Model) resolve(d session.Decision) (tea.Model, tea.Cmd) {
	m.waiting = true
	return m, commands.Resolve(m.session, d)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		id := m.deleteTarget.ID
		m.closeModal()
		m.lastDeleted = id
		return m, commands.Delete(m.session, id)
	case "n", "esc", "q":
		m.closeModal()
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	m.cursor = snapRow(m.cursor + delta)
	m.focusAtCursor()
}

// cycleFocus steps through the items that share the cursor row.
func (m *Model) cycleFocus() {
	at := m.itemsAtCursor()
	if len(at) == 0 {
		m.focus = ""
		return
	}
	next := 0
	for i, it := range at {
		if it.ID == m.focus {
			next = (i + 1) % len(at)
			break
		}
	}
	m.focus = at[next].ID
}

func (m Model) focused() (item.Item, bool) {
	if m.focus == "" {
		return item.Item{}, false
	}
	return m.session.Find(m.focus)
}

func (m Model) loadDay(day time.Time) (tea.Model, tea.Cmd) {
	m.loading = true
	return m, commands.Load(m.session, day)
}

func (m Model) beginGesture(kind session.GestureKind) (tea.Model, tea.Cmd) {
	it, ok := m.focused()
	if !ok {
		return m.setStatus("No item selected")
	}

	var (
		g   *session.Gesture
		err error
	)
	if kind == session.Resize {
		g, err = m.session.BeginResize(it.ID)
	} else {
		g, err = m.session.BeginMove(it.ID)
	}
	if err != nil {
		return m.setStatus(gestureError(err))
	}
	return m.startDrag(g)
}

// beginCreate places a new item at the cursor once its title is known.
func (m Model) beginCreate(title string) (tea.Model, tea.Cmd) {
	if title == "" {
		return m.setStatus("A title is required")
	}
	start := m.cursor
	end := min(start+m.taskLength, item.MinutesPerDay-1)
	span, err := item.NewSpan(start, end)
	if err != nil {
		return m.setStatus(err.Error())
	}
	g, err := m.session.BeginCreate(m.promptKind, title, span)
	if err != nil {
		return m.setStatus(gestureError(err))
	}
	m.focus = session.DraftID
	return m.startDrag(g)
}

func (m Model) startDrag(g *session.Gesture) (tea.Model, tea.Cmd) {
	m.gesture = g
	m.dragDelta = 0
	m.mode = ModeDrag
	logModeChange(m.logger, ModeDrag, "gesture started")
	return m.setStatus("j/k to adjust, J/K for bigger steps, enter to save, esc to cancel")
}

func (m *Model) drag(delta int) {
	m.dragDelta += delta
	span := m.gesture.Drag(m.dragDelta)
	if m.gesture.Kind() == session.Resize {
		m.cursor = snapRow(span.End - 1)
	} else {
		m.cursor = snapRow(span.Start)
	}
}

// endGesture turns the final preview into a proposal.
func (m Model) endGesture() (tea.Model, tea.Cmd) {
	g := m.gesture
	m.gesture = nil
	m.mode = ModeNormal
	logModeChange(m.logger, ModeNormal, "gesture ended")

	p, changed := g.End()
	if !changed {
		m.focusAtCursor()
		return m.setStatus("Nothing to change")
	}

	verb := "Moved"
	switch g.Kind() {
	case session.Resize:
		verb = "Resized"
	case session.Create:
		verb = "Added"
		m.focus = ""
	}
	return m, commands.Propose(m.session, p, verb)
}

func (m Model) reschedule(days int) (tea.Model, tea.Cmd) {
	it, ok := m.focused()
	if !ok {
		return m.setStatus("No item selected")
	}
	if m.session.IsLocked(it.ID) {
		return m.setStatus(gestureError(session.ErrItemLocked))
	}
	return m, commands.Reschedule(m.session, it.ID, m.session.Date().AddDate(0, 0, days))
}

func gestureError(err error) string {
	switch {
	case errors.Is(err, session.ErrItemLocked):
		return "That item is waiting for a decision"
	case errors.Is(err, session.ErrUnscheduled):
		return "Unscheduled items have no time to change"
	case errors.Is(err, session.ErrGestureActive):
		return "Finish the current change first"
	default:
		return err.Error()
	}
}
