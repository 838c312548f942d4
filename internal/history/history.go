// Package history provides a SQLite-backed ledger of maintenance runs.
// Downstream collaborators compare the latest report digest against the
// previous run to decide whether a new notification is warranted or the
// findings are a duplicate.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	ran_at   DATETIME NOT NULL,
	findings INTEGER NOT NULL DEFAULT 0,
	warnings INTEGER NOT NULL DEFAULT 0,
	applied  INTEGER NOT NULL DEFAULT 0,
	digest   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_ran_at ON runs(ran_at);
`

// Run is one recorded maintenance run.
type Run struct {
	ID       int64     `json:"id"`
	RanAt    time.Time `json:"ran_at"`
	Findings int       `json:"findings"`
	Warnings int       `json:"warnings"`
	Applied  int       `json:"applied"`
	Digest   string    `json:"digest"`
}

// DB wraps a sql.DB with ledger operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record appends one run to the ledger and returns its id.
func (db *DB) Record(r Run) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO runs (ran_at, findings, warnings, applied, digest)
		VALUES (?, ?, ?, ?, ?)
	`, r.RanAt, r.Findings, r.Warnings, r.Applied, r.Digest)
	if err != nil {
		return 0, fmt.Errorf("history: record run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: last insert id: %w", err)
	}
	return id, nil
}

// LastDigest returns the digest of the most recent run, or empty string
// when the ledger is empty.
func (db *DB) LastDigest() (string, error) {
	var digest string
	err := db.conn.QueryRow(`SELECT digest FROM runs ORDER BY id DESC LIMIT 1`).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("history: last digest: %w", err)
	}
	return digest, nil
}

// Recent returns up to limit runs, newest first.
func (db *DB) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, ran_at, findings, warnings, applied, digest
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.RanAt, &r.Findings, &r.Warnings, &r.Applied, &r.Digest); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
