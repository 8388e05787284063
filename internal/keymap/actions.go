// Package keymap defines key bindings and action dispatch for the player.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	ActionQuit        Action = "quit"
	ActionPlayPause   Action = "play_pause"
	ActionSeekBack    Action = "seek_back"
	ActionSeekForward Action = "seek_forward"
)
