// Package catalog keeps a SQLite record of the snapshots taken and the
// per-profile sequence counter.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	profile    TEXT NOT NULL,
	sequence   INTEGER NOT NULL,
	archive    TEXT NOT NULL,
	algorithm  TEXT NOT NULL DEFAULT '',
	files      INTEGER NOT NULL DEFAULT 0,
	blobs      INTEGER NOT NULL DEFAULT 0,
	bytes      INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(profile, sequence)
);

CREATE TABLE IF NOT EXISTS counters (
	profile TEXT PRIMARY KEY,
	next    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_profile ON snapshots(profile);
`

// Entry is one recorded snapshot.
type Entry struct {
	ID        string
	Profile   string
	Sequence  int
	Archive   string
	Algorithm string
	Files     int
	Blobs     int
	Bytes     int64
	CreatedAt time.Time
}

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the catalog database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Next reserves the next sequence number of profile. The result is never
// below floor and never handed out twice, even after snapshots are deleted.
func (db *DB) Next(ctx context.Context, profile string, floor int) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var next int
	err = tx.QueryRowContext(ctx, `SELECT next FROM counters WHERE profile = ?`, profile).Scan(&next)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("catalog: read counter: %w", err)
	}
	seq := max(next, floor, 0)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO counters (profile, next) VALUES (?, ?)
		ON CONFLICT(profile) DO UPDATE SET next = excluded.next
	`, profile, seq+1)
	if err != nil {
		return 0, fmt.Errorf("catalog: advance counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("catalog: commit: %w", err)
	}
	return seq, nil
}

// Record stores e, assigning an ID and timestamp when they are unset.
func (db *DB) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO snapshots (id, profile, sequence, archive, algorithm, files, blobs, bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Profile, e.Sequence, e.Archive, e.Algorithm, e.Files, e.Blobs, e.Bytes, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: record %s[%d]: %w", e.Profile, e.Sequence, err)
	}
	return e, nil
}

// List returns the snapshots of profile ordered by sequence.
func (db *DB) List(ctx context.Context, profile string) ([]Entry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, profile, sequence, archive, algorithm, files, blobs, bytes, created_at
		FROM snapshots
		WHERE profile = ?
		ORDER BY sequence
	`, profile)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Profile, &e.Sequence, &e.Archive, &e.Algorithm,
			&e.Files, &e.Blobs, &e.Bytes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Forget drops the rows with the given IDs. Counters are left alone so
// forgotten sequence numbers are not reused.
func (db *DB) Forget(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM snapshots WHERE id = ?`)
	if err != nil {
		return 0, fmt.Errorf("catalog: prepare forget: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("catalog: forget %s: %w", id, err)
		}
		if c, err := res.RowsAffected(); err == nil {
			n += int(c)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("catalog: commit: %w", err)
	}
	return n, nil
}
