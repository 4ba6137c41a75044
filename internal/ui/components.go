package ui

import (
	"fmt"
	"strings"
	"time"
)

func renderProgressBar(elapsed, total time.Duration, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2

	var ratio float64
	if total > 0 {
		ratio = float64(elapsed) / float64(total)
	}
	ratio = max(0, min(1, ratio))

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

func renderVolumePercent(vol float64) string {
	return fmt.Sprintf("vol %d%%", int(vol*100+0.5))
}

func spaces(n int) string {
	return strings.Repeat(" ", max(n, 0))
}
