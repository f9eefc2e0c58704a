package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/session"
	"github.com/javiermolinar/dayline/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prompt.Width = max(msg.Width-12, 10)
		return m, nil

	case commands.DayLoadedMsg:
		m.loading = false
		if !msg.Date.Equal(m.shown) {
			m.shown = msg.Date
			m.cursor = m.initialCursor()
		}
		m.focusAtCursor()
		return m, nil

	case commands.WriteDoneMsg:
		return m.handleWriteDone(msg)

	case commands.ErrMsg:
		m.loading = false
		m.logger.Warn("timeline error", zap.Error(msg.Err))
		return m.setStatus(fmt.Sprintf("Error: %v", msg.Err))

	case commands.StatusMsgCmd:
		return m.setStatus(msg.Msg)

	case commands.ClearStatusMsg:
		if !m.now().Before(m.statusTime) {
			m.statusMsg = ""
		}
		return m, nil
	}

	if m.mode == ModePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleWriteDone applies the result of a session write. The session has
// already reloaded the day on commit.
func (m Model) handleWriteDone(msg commands.WriteDoneMsg) (tea.Model, tea.Cmd) {
	out := msg.Outcome

	if out.State == session.Conflicted {
		m.mode = ModeModal
		m.modal = ModalConflict
		m.modalButton = 0
		m.waiting = false
		m.conflicts = out.Conflicts
		if _, pending, ok := m.session.Pending(); ok && len(m.conflicts) == 0 {
			m.conflicts = pending
		}
		logModeChange(m.logger, ModeModal, "conflict")
		return m, nil
	}

	if m.modal == ModalConflict {
		m.closeModal()
	}
	switch {
	case out.ID != "":
		m.focusItem(out.ID)
	case m.focus != "":
		m.focusItem(m.focus)
	default:
		m.focusAtCursor()
	}

	switch {
	case errors.Is(msg.Err, session.ErrStaleReload):
		return m.setStatus(fmt.Sprintf("%s, but the day could not be reloaded (press g)", msg.Verb))
	case errors.Is(msg.Err, session.ErrBusy):
		return m.setStatus("Busy: another change is still being saved")
	case errors.Is(msg.Err, item.ErrNotFound):
		return m.setStatus("That item is gone; press g to reload")
	case msg.Err != nil:
		return m.setStatus(fmt.Sprintf("Error: %v", msg.Err))
	}
	return m.setStatus(msg.Verb)
}

func (m *Model) closeModal() {
	m.mode = ModeNormal
	m.modal = ModalNone
	m.conflicts = nil
	m.modalButton = 0
	m.waiting = false
	m.deleteTarget = item.Item{}
}

// focusItem moves the cursor to the start of id.
func (m *Model) focusItem(id string) {
	it, ok := m.session.Find(id)
	if !ok {
		m.focusAtCursor()
		return
	}
	m.focus = id
	if it.Span != nil {
		m.cursor = snapRow(it.Span.Start)
	}
}

// focusAtCursor focuses the first item in the cursor row, keeping the
// current focus when it is still there.
func (m *Model) focusAtCursor() {
	at := m.itemsAtCursor()
	for _, it := range at {
		if it.ID == m.focus {
			return
		}
	}
	m.focus = ""
	if len(at) > 0 {
		m.focus = at[0].ID
	}
}

// itemsAtCursor returns the scheduled items overlapping the cursor row,
// left to right.
func (m Model) itemsAtCursor() []item.Item {
	row := item.Span{Start: m.cursor, End: m.cursor + rowMinutes}
	var out []item.Item
	for _, slot := range m.session.Layout() {
		if slot.Item.Span != nil && slot.Item.Span.Overlaps(row) {
			out = append(out, slot.Item)
		}
	}
	return out
}
