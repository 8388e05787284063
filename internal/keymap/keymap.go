package keymap

import "strings"

// Binding ties keys to an action. Hint, when set, is shown in the footer.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Hint        string
}

// Karaoke holds the bindings of the lyrics preview, in footer order.
var Karaoke = []Binding{
	{ActionPlayPause, []string{" "}, "Play/pause", "space pause"},
	{ActionSeekBack, []string{"left", "h"}, "Seek -5s", "←/→ seek"},
	{ActionSeekForward, []string{"right", "l"}, "Seek +5s", ""},
	{ActionQuit, []string{"q", "esc", "ctrl+c"}, "Quit", "q quit"},
}

// Hints joins the footer hints of bindings.
func Hints(bindings []Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Hint != "" {
			hints = append(hints, b.Hint)
		}
	}
	return strings.Join(hints, " · ")
}
