// Package journal records the destructive filesystem mutations applied to a
// dataset tree. Renames, moves and deletions cannot be undone, so every one
// of them is written down with the run that performed it.
package journal

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"

	"github.com/llehouerou/songset/internal/db"
)

const (
	appName    = "songset"
	dbFileName = "journal.db"
)

// Kind identifies a filesystem mutation.
type Kind string

const (
	KindRename Kind = "rename"
	KindMove   Kind = "move"
	KindDelete Kind = "delete"
)

// Mutation is a recorded filesystem change.
type Mutation struct {
	ID     int64
	RunID  int64
	Kind   Kind
	Source string
	Target string // empty for deletions
	At     time.Time
}

// Journal is an append-only log of mutations backed by SQLite.
type Journal struct {
	db    *sql.DB
	mu    sync.Mutex
	runID int64
}

// DefaultPath returns the journal location under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens the journal at path, creating its schema if needed.
func Open(path string) (*Journal, error) {
	conn, err := db.Open(path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &Journal{db: conn}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// BeginRun starts a new run over root. Subsequent mutations belong to it.
func (j *Journal) BeginRun(root string) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(`
		INSERT INTO runs (root, started_at) VALUES (?, ?)
	`, root, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	j.runID = id
	return id, nil
}

// Record appends a mutation to the current run.
func (j *Journal) Record(kind Kind, source, target string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.runID == 0 {
		return fmt.Errorf("record %s %s: no run started", kind, source)
	}

	var tgt sql.NullString
	if target != "" {
		tgt = sql.NullString{String: target, Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT INTO mutations (run_id, kind, source, target, at)
		VALUES (?, ?, ?, ?, ?)
	`, j.runID, string(kind), source, tgt, time.Now().UnixMilli())
	return err
}

// Mutations returns the mutations of a run in the order they were applied.
func (j *Journal) Mutations(runID int64) ([]Mutation, error) {
	rows, err := j.db.Query(`
		SELECT id, run_id, kind, source, target, at
		FROM mutations
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mutation
	for rows.Next() {
		var (
			m      Mutation
			kind   string
			target sql.NullString
			at     int64
		)
		if err := rows.Scan(&m.ID, &m.RunID, &kind, &m.Source, &target, &at); err != nil {
			return nil, err
		}
		m.Kind = Kind(kind)
		m.Target = db.NullStringValue(target)
		m.At = time.UnixMilli(at)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Counts returns the number of mutations per kind for a run.
func (j *Journal) Counts(runID int64) (map[Kind]int, error) {
	rows, err := j.db.Query(`
		SELECT kind, COUNT(*) FROM mutations WHERE run_id = ? GROUP BY kind
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[Kind(kind)] = n
	}
	return counts, rows.Err()
}
