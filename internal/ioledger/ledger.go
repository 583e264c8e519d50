// Package ioledger keeps a record of catalog files that were loaded,
// so that an interrupted ingestion can be restarted without reloading
// finished files. The ledger is a local SQLite file.
package ioledger

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGo)
)

const createSQL = `CREATE TABLE IF NOT EXISTS loaded_files (
    table_name TEXT NOT NULL,
    path TEXT NOT NULL,
    rows INTEGER NOT NULL,
    loaded_at TEXT NOT NULL,
    PRIMARY KEY (table_name, path)
)`

// Entry is one loaded file.
type Entry struct {
	Table    string
	Path     string
	Rows     int64
	LoadedAt time.Time
}

// Ledger is safe for concurrent use by ingestion workers.
type Ledger struct {
	path string
	db   *sql.DB
}

// Open opens or creates the ledger at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, OpenError(path, err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(createSQL); err != nil {
		db.Close()
		return nil, OpenError(path, err)
	}
	return &Ledger{path: path, db: db}, nil
}

// Has reports whether file was already loaded into table.
func (l *Ledger) Has(ctx context.Context, table, file string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		"SELECT count(*) FROM loaded_files WHERE table_name = ? AND path = ?",
		table, file,
	).Scan(&n)
	if err != nil {
		return false, WriteError(l.path, err)
	}
	return n > 0, nil
}

// Record marks file as loaded into table with the given number of rows.
func (l *Ledger) Record(ctx context.Context, table, file string, rows int64) error {
	q := `INSERT INTO loaded_files (table_name, path, rows, loaded_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (table_name, path) DO UPDATE
SET rows = excluded.rows, loaded_at = excluded.loaded_at`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := l.db.ExecContext(ctx, q, table, file, rows, now); err != nil {
		return WriteError(l.path, err)
	}
	return nil
}

// Entries lists files loaded into table ordered by path.
func (l *Ledger) Entries(ctx context.Context, table string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT path, rows, loaded_at FROM loaded_files
WHERE table_name = ? ORDER BY path`, table)
	if err != nil {
		return nil, WriteError(l.path, err)
	}
	defer rows.Close()

	var res []Entry
	for rows.Next() {
		e := Entry{Table: table}
		var ts string
		if err = rows.Scan(&e.Path, &e.Rows, &ts); err != nil {
			return nil, WriteError(l.path, err)
		}
		e.LoadedAt, _ = time.Parse(time.RFC3339, ts)
		res = append(res, e)
	}
	if err = rows.Err(); err != nil {
		return nil, WriteError(l.path, err)
	}
	return res, nil
}

// Close closes the ledger file.
func (l *Ledger) Close() error {
	return l.db.Close()
}
