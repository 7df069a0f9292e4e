// Package audit keeps a journal of destructive operations performed through
// `lv serve`. Deletions cannot be undone, so every attempt is recorded with
// its outcome in a small SQLite database next to the config.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/logview/pkg/model"
)

// SchemaVersion is stored in PRAGMA user_version.
const SchemaVersion = 1

// timeLayout has fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 50

// Action names a journaled operation.
type Action string

const (
	ActionDelete   Action = "delete"
	ActionDownload Action = "download"
)

// Record is one journal entry.
type Record struct {
	ID       string         `json:"id"`
	Time     time.Time      `json:"time"`
	Action   Action         `json:"action"`
	Filename string         `json:"filename"`
	Path     string         `json:"path"`
	Type     model.NodeType `json:"type"`
	Remote   string         `json:"remote,omitempty"`
	OK       bool           `json:"ok"`
	Error    string         `json:"error,omitempty"`
}

// Journal is an append-only record store.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path. ":memory:" gives a private
// in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// One connection: keeps :memory: databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db, now: time.Now}, nil
}

func createSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			at TEXT NOT NULL,
			action TEXT NOT NULL,
			filename TEXT NOT NULL,
			path TEXT NOT NULL,
			type TEXT NOT NULL,
			remote TEXT,
			ok INTEGER NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_at ON records(at)`,
		fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion),
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("create audit schema: %w", err)
		}
	}
	return nil
}

// Record appends rec, filling in ID and Time when they are zero. The stored
// record is returned.
func (j *Journal) Record(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Time.IsZero() {
		rec.Time = j.now()
	}
	rec.Time = rec.Time.UTC()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO records (id, at, action, filename, path, type, remote, ok, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time.Format(timeLayout), string(rec.Action), rec.Filename, rec.Path,
		string(rec.Type), rec.Remote, rec.OK, rec.Error)
	if err != nil {
		return Record{}, fmt.Errorf("insert audit record: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, action, filename, path, type, COALESCE(remote, ''), ok, COALESCE(error, '')
		 FROM records ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			r      Record
			at     string
			action string
			typ    string
		)
		if err := rows.Scan(&r.ID, &at, &action, &r.Filename, &r.Path, &typ, &r.Remote, &r.OK, &r.Error); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.Time, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parse audit time %q: %w", at, err)
		}
		r.Action = Action(action)
		r.Type = model.NodeType(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
