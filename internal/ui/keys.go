package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	}
	return false
}

func helpText(hasQueue bool) string {
	parts := []string{"space pause", "s stop", "←/→ seek", "g goto", "+/- volume", "m mic", "v view", "c palette", "t stars", "a add"}
	if hasQueue {
		parts = append(parts, "n/p track", "j/k select", "enter play", "x remove", "J/K move")
	}
	parts = append(parts, "q quit")
	return strings.Join(parts, "  ")
}
