package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/orb/internal/settings"
)

type frameMsg time.Time

type micResultMsg struct {
	err error
}

// SettingsChangedMsg tells the model the settings file was reloaded.
type SettingsChangedMsg struct {
	File settings.File
}

func frameCmd(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(max(fps, 1)), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
