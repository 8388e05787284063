package state

import (
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/rhythm/internal/db"
)

// UpdateState is the persisted record of the update checker.
type UpdateState struct {
	ETag             string
	LastModified     string
	NotModifiedCount int
	LastChecked      time.Time
	NextCheck        time.Time
	LatestVersion    string
	LatestURL        string
	NotifiedVersion  string
}

// GetUpdateState returns the saved update-check state.
// An empty database yields a zero state.
func (m *Manager) GetUpdateState() (*UpdateState, error) {
	var etag, lastModified, latest, latestURL, notified sql.NullString
	var notModified, lastChecked, nextCheck sql.NullInt64

	row := m.db.QueryRow(`
		SELECT etag, last_modified, not_modified_count, last_checked, next_check,
			latest_version, latest_url, notified_version
		FROM update_check WHERE id = 1
	`)
	err := row.Scan(&etag, &lastModified, &notModified, &lastChecked, &nextCheck,
		&latest, &latestURL, &notified)
	if errors.Is(err, sql.ErrNoRows) {
		return &UpdateState{}, nil
	}
	if err != nil {
		return nil, err
	}

	return &UpdateState{
		ETag:             db.NullStringValue(etag),
		LastModified:     db.NullStringValue(lastModified),
		NotModifiedCount: int(db.NullInt64Value(notModified)),
		LastChecked:      db.NullTimeValue(lastChecked),
		NextCheck:        db.NullTimeValue(nextCheck),
		LatestVersion:    db.NullStringValue(latest),
		LatestURL:        db.NullStringValue(latestURL),
		NotifiedVersion:  db.NullStringValue(notified),
	}, nil
}

// SaveUpdateState persists the update-check state.
func (m *Manager) SaveUpdateState(s UpdateState) error {
	_, err := m.db.Exec(`
		INSERT INTO update_check (id, etag, last_modified, not_modified_count,
			last_checked, next_check, latest_version, latest_url, notified_version)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			etag = excluded.etag,
			last_modified = excluded.last_modified,
			not_modified_count = excluded.not_modified_count,
			last_checked = excluded.last_checked,
			next_check = excluded.next_check,
			latest_version = excluded.latest_version,
			latest_url = excluded.latest_url,
			notified_version = excluded.notified_version
	`, s.ETag, s.LastModified, s.NotModifiedCount,
		db.TimeParam(s.LastChecked), db.TimeParam(s.NextCheck),
		s.LatestVersion, s.LatestURL, s.NotifiedVersion)
	return err
}

// ResetUpdateState forgets cached validators and the backoff counter.
func (m *Manager) ResetUpdateState() error {
	_, err := m.db.Exec(`DELETE FROM update_check WHERE id = 1`)
	return err
}
