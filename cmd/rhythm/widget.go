package main

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/rhythm/internal/errmsg"
	"github.com/llehouerou/rhythm/internal/ui/render"
)

var (
	widgetThemes = []string{"system", "light", "dark"}
	widgetFields = []string{"title", "artist", "album", "playing", "position", "duration", "show-lyrics", "theme"}
)

func newWidgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Inspect or edit the now-playing widget data",
	}
	cmd.AddCommand(newWidgetShowCmd(a), newWidgetSetCmd(a))
	return cmd
}

func newWidgetShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the widget data with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.state()
			if err != nil {
				return err
			}
			w, err := st.WidgetData()
			if err != nil {
				return errmsg.Error(errmsg.OpWidgetLoad, err)
			}

			out := cmd.OutOrStdout()
			state := "paused"
			if w.Playing {
				state = "playing"
			}
			fmt.Fprintf(out, "Title:       %s\n", w.Title)
			if w.Artist != "" {
				fmt.Fprintf(out, "Artist:      %s\n", w.Artist)
			}
			if w.Album != "" {
				fmt.Fprintf(out, "Album:       %s\n", w.Album)
			}
			fmt.Fprintf(out, "State:       %s\n", state)
			fmt.Fprintf(out, "Position:    %s / %s\n", render.Clock(w.Position), render.Clock(w.Duration))
			fmt.Fprintf(out, "Show lyrics: %t\n", w.ShowLyrics)
			fmt.Fprintf(out, "Theme:       %s\n", w.Theme)
			return nil
		},
	}
}

func newWidgetSetCmd(a *app) *cobra.Command {
	var (
		title, artist, album, theme string
		playing, showLyrics         bool
		position, duration          time.Duration
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the given widget fields, keeping the others",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if !slices.ContainsFunc(widgetFields, flags.Changed) {
				return errors.New("nothing to set")
			}
			if flags.Changed("theme") && !slices.Contains(widgetThemes, theme) {
				return fmt.Errorf("invalid theme %q (want one of %v)", theme, widgetThemes)
			}
			if position < 0 || duration < 0 {
				return errors.New("position and duration must not be negative")
			}

			st, err := a.state()
			if err != nil {
				return err
			}
			w, err := st.WidgetData()
			if err != nil {
				return errmsg.Error(errmsg.OpWidgetLoad, err)
			}

			if flags.Changed("title") {
				w.Title = title
			}
			if flags.Changed("artist") {
				w.Artist = artist
			}
			if flags.Changed("album") {
				w.Album = album
			}
			if flags.Changed("playing") {
				w.Playing = playing
			}
			if flags.Changed("position") {
				w.Position = position
			}
			if flags.Changed("duration") {
				w.Duration = duration
			}
			if flags.Changed("show-lyrics") {
				w.ShowLyrics = showLyrics
			}
			if flags.Changed("theme") {
				w.Theme = theme
			}

			if err := st.SaveWidgetData(w); err != nil {
				return errmsg.Error(errmsg.OpWidgetSave, err)
			}
			a.log.Debug("widget data saved", "title", w.Title, "playing", w.Playing)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "Track title")
	f.StringVar(&artist, "artist", "", "Track artist")
	f.StringVar(&album, "album", "", "Album")
	f.BoolVar(&playing, "playing", false, "Whether playback is running")
	f.DurationVar(&position, "position", 0, "Playback position")
	f.DurationVar(&duration, "duration", 0, "Track duration")
	f.BoolVar(&showLyrics, "show-lyrics", true, "Show the current lyric line")
	f.StringVar(&theme, "theme", "", "Widget theme (system, light, dark)")
	return cmd
}
