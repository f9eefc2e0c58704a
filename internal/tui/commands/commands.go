// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/session"
)

// DayLoadedMsg is sent when a day has been fetched into the session.
type DayLoadedMsg struct {
	Date time.Time
}

// WriteDoneMsg is sent when a session write returns, whatever the outcome.
type WriteDoneMsg struct {
	Verb    string // what was attempted, for the status line
	Outcome session.Outcome
	Err     error
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// Load fetches day into s.
func Load(s *session.Session, day time.Time) tea.Cmd {
	return func() tea.Msg {
		if err := s.Load(context.Background(), day); err != nil {
			return ErrMsg{Err: err}
		}
		return DayLoadedMsg{Date: s.Date()}
	}
}

// Propose submits p through the session state machine.
func Propose(s *session.Session, p item.Proposal, verb string) tea.Cmd {
	return write(verb, func(ctx context.Context) (session.Outcome, error) {
		return s.Propose(ctx, p)
	})
}

// Resolve answers the pending conflict.
func Resolve(s *session.Session, d session.Decision) tea.Cmd {
	verb := "Saved"
	if d == session.Cancel {
		verb = "Cancelled"
	}
	return write(verb, func(ctx context.Context) (session.Outcome, error) {
		return s.Resolve(ctx, d)
	})
}

// QuickAdd parses text into an item and proposes it.
func QuickAdd(s *session.Session, kind item.Kind, text string) tea.Cmd {
	return write("Added", func(ctx context.Context) (session.Outcome, error) {
		return s.QuickAdd(ctx, kind, text)
	})
}

// Delete moves an item to the trash.
func Delete(s *session.Session, id string) tea.Cmd {
	return write("Deleted", func(ctx context.Context) (session.Outcome, error) {
		return s.Delete(ctx, id)
	})
}

// Restore takes an item out of the trash.
func Restore(s *session.Session, id string) tea.Cmd {
	return write("Restored", func(ctx context.Context) (session.Outcome, error) {
		return s.Restore(ctx, id)
	})
}

// Reschedule moves an item to another day.
func Reschedule(s *session.Session, id string, day time.Time) tea.Cmd {
	return write("Rescheduled", func(ctx context.Context) (session.Outcome, error) {
		return s.Reschedule(ctx, id, day)
	})
}

// Status shows msg in the status line.
func Status(msg string) tea.Cmd {
	return func() tea.Msg {
		return StatusMsgCmd{Msg: msg}
	}
}

func write(verb string, run func(context.Context) (session.Outcome, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := run(context.Background())
		return WriteDoneMsg{Verb: verb, Outcome: out, Err: err}
	}
}
