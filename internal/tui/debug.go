package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func logKeyPress(logger *zap.Logger, msg tea.KeyMsg, mode Mode) {
	logger.Debug("key",
		zap.String("key", msg.String()),
		zap.String("mode", mode.String()),
	)
}

func logModeChange(logger *zap.Logger, to Mode, reason string) {
	logger.Debug("mode change",
		zap.String("to", to.String()),
		zap.String("reason", reason),
	)
}

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDrag:
		return "drag"
	case ModePrompt:
		return "prompt"
	case ModeModal:
		return "modal"
	default:
		return "unknown"
	}
}
