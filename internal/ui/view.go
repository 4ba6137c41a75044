package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/orb/internal/session"
	"github.com/olivier-w/orb/internal/util"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.browser != nil {
		return m.browser.View()
	}

	w := m.width
	if w < 30 {
		w = 50
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + m.renderHeader() + "\n\n")

	for _, line := range strings.Split(m.modes[m.mode].View(), "\n") {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderMeters())
	b.WriteString("\n")
	b.WriteString("  " + m.renderTransport(w) + "\n")
	b.WriteString("  " + m.renderStatusLine(w) + "\n")

	if q := m.renderQueue(w); q != "" {
		b.WriteString("\n" + q)
	}

	b.WriteString("\n")
	switch {
	case m.seeking:
		b.WriteString("  " + m.seekInput.View() + "\n")
	case m.status != "" && m.statusErr:
		b.WriteString("  " + errorStyle.Render(m.status) + "\n")
	case m.status != "":
		b.WriteString("  " + helpStyle.Render(m.status) + "\n")
	default:
		b.WriteString("\n")
	}
	b.WriteString("  " + helpStyle.Render(helpText(len(m.tracks) > 0)) + "\n")

	view := b.String()
	if pad := m.height - lipgloss.Height(view); pad > 0 {
		view += strings.Repeat("\n", pad)
	}
	return view
}

func (m Model) renderHeader() string {
	source := "no source"
	switch {
	case m.connecting:
		source = m.spinner.View() + " connecting microphone"
	case m.source == session.SourceMicrophone:
		source = "● microphone"
	case m.source == session.SourceFile:
		source = "♪ file"
	}
	beat := " "
	if m.params.Events.Beat {
		beat = labelStyle(m.palette.High).Render("◆")
	}
	return fmt.Sprintf("%s  %s  %s  %s",
		headerStyle.Render("orb"),
		statusStyle.Render(source),
		timeStyle.Render(m.palette.Name+" · "+m.modes[m.mode].Name()),
		beat)
}

func (m Model) renderMeters() string {
	labels := [meterCount]string{"bass", "mid ", "high"}
	colours := [meterCount]string{m.palette.Bass, m.palette.Mid, m.palette.High}
	var b strings.Builder
	for i := range m.meters {
		v := max(0, min(1, m.needles[i].pos))
		fmt.Fprintf(&b, "  %s %s %s\n",
			labelStyle(colours[i]).Render(labels[i]),
			m.meters[i].ViewAs(v),
			timeStyle.Render(fmt.Sprintf("%3d%%", int(v*100+0.5))))
	}
	return b.String()
}

func (m Model) renderTransport(w int) string {
	st := m.transport
	if st.Path == "" {
		return timeStyle.Render("nothing loaded  (a to add files)")
	}
	title := titleStyle.Render(trackTitle(st.Title, st.Path))
	elapsed := util.FormatDuration(st.Position)
	total := util.FormatDuration(st.Duration)
	barWidth := max(w-len(elapsed)-len(total)-6, 10)
	bar := renderProgressBar(st.Position, st.Duration, barWidth)
	return title + "\n  " + fmt.Sprintf("%s %s %s", timeStyle.Render(elapsed), bar, timeStyle.Render(total))
}

func (m Model) renderStatusLine(w int) string {
	icon, text := "❚❚", "paused"
	if m.transport.Playing {
		icon, text = "▶", "playing"
	}
	left := fmt.Sprintf("%s  %s", icon, text)
	right := fmt.Sprintf("rot %.2f  dist %.2f  bloom %.2f  %s",
		m.params.RotationSpeed, m.params.Distortion, m.params.Bloom, renderVolumePercent(m.transport.Volume))
	gap := max(w-lipgloss.Width(left)-lipgloss.Width(right)-4, 2)
	return statusStyle.Render(left) + spaces(gap) + statusStyle.Render(right)
}

// renderQueue shows a window of the playlist around the cursor.
func (m Model) renderQueue(w int) string {
	if len(m.tracks) == 0 {
		return ""
	}
	start := max(0, min(m.cursor-queueRows/2, len(m.tracks)-queueRows))
	end := min(start+queueRows, len(m.tracks))

	var b strings.Builder
	b.WriteString("  " + headerStyle.Render(fmt.Sprintf("playlist %d/%d", m.current+1, len(m.tracks))) + "\n")
	for i := start; i < end; i++ {
		t := m.tracks[i]
		marker := "  "
		if i == m.current {
			marker = "▶ "
		}
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		line := truncate(fmt.Sprintf("%s%s %d. %s", cursor, marker, i+1, trackTitle(t.Title, t.Path)), w-4)
		if i == m.cursor {
			b.WriteString("  " + selectedStyle.Render(line) + "\n")
		} else {
			b.WriteString("  " + queueStyle.Render(line) + "\n")
		}
	}
	return b.String()
}

func trackTitle(title, path string) string {
	if title != "" {
		return title
	}
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 1 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
