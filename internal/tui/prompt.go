package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/tui/commands"
	"github.com/javiermolinar/dayline/internal/tui/input"
)

var promptCommands = []input.PromptCommand{
	{Name: "/event", Description: "Add an event"},
	{Name: "/task", Description: "Add a task"},
	{Name: "/goto", Description: "Open another day"},
	{Name: "/today", Description: "Back to today"},
	{Name: "/help", Description: "Show the keys"},
}

func (m Model) openPrompt(purpose promptPurpose, value string) (Model, tea.Cmd) {
	m.mode = ModePrompt
	m.promptPurpose = purpose
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.prompt.Focus()
	if purpose == promptTitle {
		m.prompt.Placeholder = "Title"
	} else {
		m.prompt.Placeholder = "9-10 standup, /task, /goto tomorrow"
	}
	logModeChange(m.logger, ModePrompt, "prompt opened")
	return m, textinput.Blink
}

func (m Model) closePrompt() Model {
	m.mode = ModeNormal
	m.prompt.Blur()
	m.prompt.Reset()
	return m
}

// handlePromptKeys handles keys while the prompt has focus.
func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closePrompt(), nil
	case "enter":
		value := m.prompt.Value()
		m = m.closePrompt()
		return m.handlePromptSubmit(value)
	case "tab":
		if value, ok := input.PromptAutocomplete(m.prompt.Value(), promptCommands); ok {
			m.prompt.SetValue(value)
			m.prompt.CursorEnd()
			return m, nil
		}
		m.promptKind = toggleKind(m.promptKind)
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handlePromptSubmit(value string) (tea.Model, tea.Cmd) {
	if m.promptPurpose == promptTitle {
		return m.beginCreate(strings.TrimSpace(value))
	}

	cmd, arg := input.Parse(value)
	switch cmd {
	case "":
		if arg == "" {
			return m, nil
		}
		return m, commands.QuickAdd(m.session, m.promptKind, arg)
	case "/event":
		return m.quickAdd(item.KindEvent, arg)
	case "/task":
		return m.quickAdd(item.KindTask, arg)
	case "/goto":
		day, err := dateutil.ParseDay(arg, m.now())
		if err != nil {
			return m.setStatus(err.Error())
		}
		m.loading = true
		return m, commands.Load(m.session, day)
	case "/today":
		m.loading = true
		return m, commands.Load(m.session, m.now())
	case "/help":
		m.mode = ModeModal
		m.modal = ModalHelp
		return m, nil
	default:
		return m.setStatus("Unknown command " + cmd)
	}
}

func (m Model) quickAdd(kind item.Kind, text string) (tea.Model, tea.Cmd) {
	if text == "" {
		return m.setStatus("Nothing to add")
	}
	return m, commands.QuickAdd(m.session, kind, text)
}

func toggleKind(k item.Kind) item.Kind {
	if k == item.KindTask {
		return item.KindEvent
	}
	return item.KindTask
}
