package state

import (
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/rhythm/internal/db"
)

// Widget defaults used when nothing has been saved yet.
const (
	DefaultWidgetTitle = "Not playing"
	DefaultWidgetTheme = "system"
)

// WidgetData is a flat, read-only projection of the now-playing
// preferences used by home-screen style renderers.
type WidgetData struct {
	Title      string
	Artist     string
	Album      string
	Playing    bool
	Position   time.Duration
	Duration   time.Duration
	ShowLyrics bool
	Theme      string
}

// DefaultWidgetData returns the projection shown when no data is stored.
func DefaultWidgetData() WidgetData {
	return WidgetData{
		Title:      DefaultWidgetTitle,
		ShowLyrics: true,
		Theme:      DefaultWidgetTheme,
	}
}

// WidgetData returns the saved widget projection. Missing rows and NULL
// columns fall back to DefaultWidgetData.
func (m *Manager) WidgetData() (WidgetData, error) {
	var title, artist, album, theme sql.NullString
	var playing, position, duration, showLyrics sql.NullInt64

	row := m.db.QueryRow(`
		SELECT title, artist, album, playing, position_ms, duration_ms, show_lyrics, theme
		FROM widget_data WHERE id = 1
	`)
	err := row.Scan(&title, &artist, &album, &playing, &position, &duration, &showLyrics, &theme)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultWidgetData(), nil
	}
	if err != nil {
		return WidgetData{}, err
	}

	w := DefaultWidgetData()
	if t := db.NullStringValue(title); t != "" {
		w.Title = t
	}
	w.Artist = db.NullStringValue(artist)
	w.Album = db.NullStringValue(album)
	w.Playing = db.NullInt64Value(playing) != 0
	w.Position = time.Duration(db.NullInt64Value(position)) * time.Millisecond
	w.Duration = time.Duration(db.NullInt64Value(duration)) * time.Millisecond
	if showLyrics.Valid {
		w.ShowLyrics = showLyrics.Int64 != 0
	}
	if t := db.NullStringValue(theme); t != "" {
		w.Theme = t
	}
	if w.Duration > 0 && w.Position > w.Duration {
		w.Position = w.Duration
	}
	return w, nil
}

// nullIfDefault stores placeholders as NULL so the default keeps
// applying on read.
func nullIfDefault(v, def string) sql.NullString {
	if v == "" || v == def {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

// SaveWidgetData persists the widget projection. A title or theme equal
// to its default is stored as NULL.
func (m *Manager) SaveWidgetData(w WidgetData) error {
	_, err := m.db.Exec(`
		INSERT INTO widget_data (id, title, artist, album, playing, position_ms, duration_ms, show_lyrics, theme)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			playing = excluded.playing,
			position_ms = excluded.position_ms,
			duration_ms = excluded.duration_ms,
			show_lyrics = excluded.show_lyrics,
			theme = excluded.theme
	`, nullIfDefault(w.Title, DefaultWidgetTitle), w.Artist, w.Album, w.Playing,
		w.Position.Milliseconds(), w.Duration.Milliseconds(), w.ShowLyrics,
		nullIfDefault(w.Theme, DefaultWidgetTheme))
	return err
}
