// Package view provides view composition helpers for the TUI.
package view

import "github.com/charmbracelet/lipgloss"

// ViewState contains pre-rendered content and overlay metadata.
type ViewState struct {
	Width            int
	Height           int
	BaseContent      string
	ModalContent     string
	ShowModal        bool
	ModalBg          lipgloss.Color
	EmptyPlaceholder string
}

// Render composes the final view output.
func Render(state ViewState) string {
	if state.Width == 0 || state.Height == 0 {
		if state.EmptyPlaceholder != "" {
			return state.EmptyPlaceholder
		}
		return "Loading..."
	}

	if state.ShowModal && state.ModalContent != "" {
		return Overlay(state.BaseContent, state.ModalContent, state.Width, state.Height, state.ModalBg)
	}
	return state.BaseContent
}
