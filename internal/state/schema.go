package state

import (
	"database/sql"

	"github.com/llehouerou/rhythm/internal/db"
)

const currentSchemaVersion = 2

func initSchema(conn *sql.DB) error {
	return db.WithTx(conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS update_check (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				etag TEXT,
				last_modified TEXT,
				not_modified_count INTEGER NOT NULL DEFAULT 0,
				last_checked INTEGER,
				next_check INTEGER,
				latest_version TEXT,
				latest_url TEXT,
				notified_version TEXT
			);

			CREATE TABLE IF NOT EXISTS widget_data (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				title TEXT,
				artist TEXT,
				album TEXT,
				playing INTEGER,
				position_ms INTEGER,
				duration_ms INTEGER,
				show_lyrics INTEGER,
				theme TEXT
			);
		`)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
		return err
	})
}
