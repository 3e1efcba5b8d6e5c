package journal

import (
	"database/sql"

	"github.com/llehouerou/songset/internal/db"
)

const currentSchemaVersion = 1

func initSchema(conn *sql.DB) error {
	return db.WithTx(conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				root TEXT NOT NULL,
				started_at INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS mutations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				kind TEXT NOT NULL CHECK (kind IN ('rename', 'move', 'delete')),
				source TEXT NOT NULL,
				target TEXT,
				at INTEGER NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_mutations_run ON mutations(run_id, id);
		`)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT OR IGNORE INTO schema_version (version) VALUES (?)
		`, currentSchemaVersion)
		return err
	})
}
