package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/llehouerou/rhythm/internal/errmsg"
	"github.com/llehouerou/rhythm/internal/lrclib"
	"github.com/llehouerou/rhythm/internal/lyrics"
	"github.com/llehouerou/rhythm/internal/ui/karaoke"
)

func newLyricsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lyrics",
		Short: "Parse, fetch and preview LRC lyrics",
	}
	cmd.AddCommand(
		newLyricsParseCmd(),
		newLyricsFetchCmd(a),
		newLyricsPlayCmd(a),
	)
	return cmd
}

func newLyricsParseCmd() *cobra.Command {
	var (
		at    time.Duration
		asLRC bool
	)

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse an LRC file and list its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := lyrics.LoadFile(args[0])
			if err != nil {
				return errors.New(errmsg.FormatWith(errmsg.OpLyricsParse, args[0], err))
			}

			out := cmd.OutOrStdout()
			if asLRC {
				return lyrics.FormatLRC(out, l)
			}

			active := -1
			if cmd.Flags().Changed("at") {
				active = l.LineAt(at)
			}
			return printLyrics(out, l, active)
		},
	}
	cmd.Flags().DurationVar(&at, "at", 0, "Mark the line active at this position (e.g. 1m05s)")
	cmd.Flags().BoolVar(&asLRC, "lrc", false, "Re-serialize as LRC instead of listing")
	return cmd
}

func newLyricsFetchCmd(a *app) *cobra.Command {
	var (
		track lyrics.TrackInfo
		asLRC bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Find lyrics next to a file, in the cache or on lrclib.net",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if track.FilePath == "" && (track.Artist == "" || track.Title == "") {
				return errors.New("either --file or both --artist and --title are required")
			}

			res := a.lyricsSource().Fetch(cmd.Context(), track)
			if res.Err != nil {
				return errmsg.Error(errmsg.OpLyricsFetch, res.Err)
			}
			if res.Lyrics == nil {
				return fmt.Errorf("no lyrics found for %s", describeTrack(track))
			}
			a.log.Info("lyrics found", "source", res.Source, "lines", len(res.Lyrics.Lines), "synced", res.Lyrics.IsSynced())

			out := cmd.OutOrStdout()
			if asLRC {
				return lyrics.FormatLRC(out, res.Lyrics)
			}
			fmt.Fprintf(out, "Source: %s\n", res.Source)
			return printLyrics(out, res.Lyrics, -1)
		},
	}
	cmd.Flags().StringVar(&track.Artist, "artist", "", "Track artist")
	cmd.Flags().StringVar(&track.Title, "title", "", "Track title")
	cmd.Flags().StringVar(&track.Album, "album", "", "Album name (narrows the lookup)")
	cmd.Flags().DurationVar(&track.Duration, "duration", 0, "Track duration (narrows the lookup)")
	cmd.Flags().StringVar(&track.FilePath, "file", "", "Audio file; a sibling .lrc is used when present")
	cmd.Flags().BoolVar(&asLRC, "lrc", false, "Print as LRC")
	return cmd
}

func newLyricsPlayCmd(a *app) *cobra.Command {
	var from time.Duration

	cmd := &cobra.Command{
		Use:   "play FILE",
		Short: "Preview lyrics karaoke-style in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := lyrics.LoadFile(args[0])
			if err != nil {
				return errors.New(errmsg.FormatWith(errmsg.OpLyricsLoad, args[0], err))
			}

			m := karaoke.New(l, from, karaoke.WithClock(a.clock))
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil {
				return errmsg.Error(errmsg.OpLyricsPlay, err)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&from, "from", 0, "Start position (e.g. 1m30s)")
	return cmd
}

// lyricsSource builds a lyrics source from the [lyrics] config.
func (a *app) lyricsSource() *lyrics.Source {
	cfg := a.cfg.GetLyricsConfig()
	var client *lrclib.Client
	if cfg.OnlineLyrics() {
		client = lrclib.New(lrclib.WithBaseURL(cfg.LrclibURL), lrclib.WithHTTPClient(a.httpClient))
	}
	return lyrics.NewSource(client, cfg.CacheDir, a.log)
}

func describeTrack(t lyrics.TrackInfo) string {
	if t.Artist != "" && t.Title != "" {
		return t.Artist + " - " + t.Title
	}
	return t.FilePath
}

// printLyrics lists metadata then one line per lyric, marking active.
func printLyrics(w io.Writer, l *lyrics.Lyrics, active int) error {
	var b strings.Builder
	for _, kv := range [][2]string{
		{"Title", l.Title},
		{"Artist", l.Artist},
		{"Album", l.Album},
		{"By", l.By},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
		}
	}
	if l.Length > 0 {
		fmt.Fprintf(&b, "Length: %s\n", lyrics.FormatTimestamp(l.Length))
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}

	synced := l.IsSynced()
	for i, line := range l.Lines {
		marker := "  "
		if i == active {
			marker = "▶ "
		}
		b.WriteString(marker)
		if synced {
			fmt.Fprintf(&b, "[%s] ", lyrics.FormatTimestamp(line.Time))
		}
		if line.Voice != "" {
			fmt.Fprintf(&b, "%s: ", line.Voice)
		}
		b.WriteString(line.Text)
		if n := len(line.Words); n > 0 {
			fmt.Fprintf(&b, " (%d words)", n)
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}
