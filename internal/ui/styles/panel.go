package styles

import "github.com/charmbracelet/lipgloss"

// FrameStyle returns the border around the karaoke view. The border is
// highlighted while playback runs.
func FrameStyle(playing bool) lipgloss.Style {
	t := T()
	border := t.Border
	if playing {
		border = t.BorderFocus
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}
