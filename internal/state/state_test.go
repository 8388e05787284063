package state

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database with the schema initialized.
func setupTestDB(t *testing.T) *Manager {
	t.Helper()

	m, err := OpenPath(":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestInitSchema_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	for i := range 2 {
		if err := initSchema(db); err != nil {
			t.Fatalf("initSchema run %d failed: %v", i+1, err)
		}
	}

	var version int
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("query version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestOpenPath_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "rhythm.db")
	m, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	defer m.Close()

	if err := m.SaveUpdateState(UpdateState{ETag: `"abc"`}); err != nil {
		t.Fatalf("SaveUpdateState failed: %v", err)
	}
}

func TestGetUpdateState_Empty(t *testing.T) {
	m := setupTestDB(t)

	s, err := m.GetUpdateState()
	if err != nil {
		t.Fatalf("GetUpdateState failed: %v", err)
	}
	if s == nil {
		t.Fatal("GetUpdateState returned nil state")
	}
	if *s != (UpdateState{}) {
		t.Errorf("expected zero state, got %+v", s)
	}
}

func TestSaveAndGetUpdateState(t *testing.T) {
	m := setupTestDB(t)

	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := UpdateState{
		ETag:             `W/"123"`,
		LastModified:     "Sun, 01 Mar 2026 11:00:00 GMT",
		NotModifiedCount: 2,
		LastChecked:      checked,
		NextCheck:        checked.Add(24 * time.Hour),
		LatestVersion:    "v3.2.0",
		LatestURL:        "https://example.com/releases/v3.2.0",
		NotifiedVersion:  "v3.1.0",
	}
	if err := m.SaveUpdateState(want); err != nil {
		t.Fatalf("SaveUpdateState failed: %v", err)
	}

	got, err := m.GetUpdateState()
	if err != nil {
		t.Fatalf("GetUpdateState failed: %v", err)
	}
	if got.ETag != want.ETag || got.LastModified != want.LastModified {
		t.Errorf("validators = %q/%q, want %q/%q", got.ETag, got.LastModified, want.ETag, want.LastModified)
	}
	if got.NotModifiedCount != 2 {
		t.Errorf("NotModifiedCount = %d, want 2", got.NotModifiedCount)
	}
	if !got.LastChecked.Equal(want.LastChecked) {
		t.Errorf("LastChecked = %v, want %v", got.LastChecked, want.LastChecked)
	}
	if !got.NextCheck.Equal(want.NextCheck) {
		t.Errorf("NextCheck = %v, want %v", got.NextCheck, want.NextCheck)
	}
	if got.LatestVersion != want.LatestVersion || got.LatestURL != want.LatestURL {
		t.Errorf("latest = %q %q", got.LatestVersion, got.LatestURL)
	}
	if got.NotifiedVersion != want.NotifiedVersion {
		t.Errorf("NotifiedVersion = %q, want %q", got.NotifiedVersion, want.NotifiedVersion)
	}

	// Overwrite clears fields and zero times round-trip as zero.
	if err := m.SaveUpdateState(UpdateState{NotModifiedCount: 0}); err != nil {
		t.Fatalf("SaveUpdateState (overwrite) failed: %v", err)
	}
	got, err = m.GetUpdateState()
	if err != nil {
		t.Fatalf("GetUpdateState failed: %v", err)
	}
	if !got.LastChecked.IsZero() || got.ETag != "" {
		t.Errorf("expected cleared state, got %+v", got)
	}
}

func TestResetUpdateState(t *testing.T) {
	m := setupTestDB(t)

	if err := m.SaveUpdateState(UpdateState{ETag: "x", NotModifiedCount: 3}); err != nil {
		t.Fatalf("SaveUpdateState failed: %v", err)
	}
	if err := m.ResetUpdateState(); err != nil {
		t.Fatalf("ResetUpdateState failed: %v", err)
	}
	got, err := m.GetUpdateState()
	if err != nil {
		t.Fatalf("GetUpdateState failed: %v", err)
	}
	if got.NotModifiedCount != 0 || got.ETag != "" {
		t.Errorf("expected zero state after reset, got %+v", got)
	}
}

func TestWidgetData_Defaults(t *testing.T) {
	m := setupTestDB(t)

	w, err := m.WidgetData()
	if err != nil {
		t.Fatalf("WidgetData failed: %v", err)
	}
	if w != DefaultWidgetData() {
		t.Errorf("WidgetData = %+v, want defaults", w)
	}
}

func TestWidgetData_NullColumnsFallBack(t *testing.T) {
	m := setupTestDB(t)

	if _, err := m.DB().Exec(`INSERT INTO widget_data (id, artist) VALUES (1, 'Someone')`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	w, err := m.WidgetData()
	if err != nil {
		t.Fatalf("WidgetData failed: %v", err)
	}
	if w.Title != DefaultWidgetTitle {
		t.Errorf("Title = %q, want %q", w.Title, DefaultWidgetTitle)
	}
	if w.Theme != DefaultWidgetTheme {
		t.Errorf("Theme = %q, want %q", w.Theme, DefaultWidgetTheme)
	}
	if !w.ShowLyrics {
		t.Error("ShowLyrics = false, want default true")
	}
	if w.Artist != "Someone" {
		t.Errorf("Artist = %q, want %q", w.Artist, "Someone")
	}
}

func TestSaveAndGetWidgetData(t *testing.T) {
	m := setupTestDB(t)

	want := WidgetData{
		Title:      "Song",
		Artist:     "Artist",
		Album:      "Album",
		Playing:    true,
		Position:   42 * time.Second,
		Duration:   3 * time.Minute,
		ShowLyrics: false,
		Theme:      "dark",
	}
	if err := m.SaveWidgetData(want); err != nil {
		t.Fatalf("SaveWidgetData failed: %v", err)
	}

	got, err := m.WidgetData()
	if err != nil {
		t.Fatalf("WidgetData failed: %v", err)
	}
	if got != want {
		t.Errorf("WidgetData = %+v, want %+v", got, want)
	}
}

func TestSaveWidgetData_DefaultsStayNull(t *testing.T) {
	m := setupTestDB(t)

	w, err := m.WidgetData()
	if err != nil {
		t.Fatalf("WidgetData failed: %v", err)
	}
	w.Artist = "Someone"
	if err := m.SaveWidgetData(w); err != nil {
		t.Fatalf("SaveWidgetData failed: %v", err)
	}

	var title, theme sql.NullString
	if err := m.DB().QueryRow(`SELECT title, theme FROM widget_data WHERE id = 1`).Scan(&title, &theme); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if title.Valid {
		t.Errorf("stored title = %q, want NULL", title.String)
	}
	if theme.Valid {
		t.Errorf("stored theme = %q, want NULL", theme.String)
	}

	got, err := m.WidgetData()
	if err != nil {
		t.Fatalf("WidgetData failed: %v", err)
	}
	if got.Title != DefaultWidgetTitle || got.Artist != "Someone" {
		t.Errorf("WidgetData = %+v, want default title and saved artist", got)
	}
}

func TestWidgetData_PositionClampedToDuration(t *testing.T) {
	m := setupTestDB(t)

	if err := m.SaveWidgetData(WidgetData{Title: "x", Position: 5 * time.Minute, Duration: time.Minute}); err != nil {
		t.Fatalf("SaveWidgetData failed: %v", err)
	}
	got, err := m.WidgetData()
	if err != nil {
		t.Fatalf("WidgetData failed: %v", err)
	}
	if got.Position != time.Minute {
		t.Errorf("Position = %v, want %v", got.Position, time.Minute)
	}
}

func TestMock_ImplementsInterface(t *testing.T) {
	m := NewMock()
	if err := m.SaveUpdateState(UpdateState{ETag: "a"}); err != nil {
		t.Fatal(err)
	}
	s, _ := m.GetUpdateState()
	s.ETag = "mutated"
	again, _ := m.GetUpdateState()
	if again.ETag != "a" {
		t.Errorf("mock leaked internal state: %q", again.ETag)
	}
	if m.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", m.Saves())
	}
}
