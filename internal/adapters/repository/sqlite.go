package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/okian/ranks/internal/domain/ranks"
)

// SQLiteStore keeps the document in a SQLite database. Every save replaces
// the previous contents in one transaction.
type SQLiteStore struct {
	db *sql.DB

	// corrupt is reported by the first Load when the file found at open
	// was not a usable database and was moved aside.
	corrupt error
}

// OpenSQLite opens or creates the database at path. A file that is not a
// SQLite database is renamed to <path>.corrupt-<unix> and a fresh database
// is created; the first Load then reports ranks.ErrCorrupt.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := openDB(path)
	if err == nil {
		return &SQLiteStore{db: db}, nil
	}
	if !isCorrupt(err) || path == ":memory:" {
		return nil, err
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if mvErr := os.Rename(path, aside); mvErr != nil {
		return nil, fmt.Errorf("move corrupt database aside: %w", mvErr)
	}
	for _, sfx := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + sfx)
	}
	db, reopenErr := openDB(path)
	if reopenErr != nil {
		return nil, reopenErr
	}
	return &SQLiteStore{
		db:      db,
		corrupt: fmt.Errorf("%w: %s moved to %s: %v", ranks.ErrCorrupt, path, aside, err),
	}, nil
}

// isCorrupt reports whether err says the file is not a readable database.
func isCorrupt(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS selected (
			player_id TEXT PRIMARY KEY,
			stat TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ranks (
			player_id TEXT NOT NULL,
			stat TEXT NOT NULL,
			label TEXT NOT NULL,
			PRIMARY KEY (player_id, stat)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the stored document. A database that was never saved to is
// ranks.ErrNoState, one recreated over a corrupt file is ranks.ErrCorrupt.
func (s *SQLiteStore) Load(ctx context.Context) (ranks.Document, error) {
	if err := s.corrupt; err != nil {
		s.corrupt = nil
		return ranks.Document{}, err
	}
	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'saved_at'`).Scan(&savedAt)
	if err == sql.ErrNoRows {
		return ranks.Document{}, ranks.ErrNoState
	}
	if err != nil {
		return ranks.Document{}, fmt.Errorf("read meta: %w", err)
	}

	doc := ranks.NewDocument()
	rows, err := s.db.QueryContext(ctx, `SELECT player_id, stat FROM selected`)
	if err != nil {
		return ranks.Document{}, fmt.Errorf("read selected: %w", err)
	}
	for rows.Next() {
		var id, stat string
		if err := rows.Scan(&id, &stat); err != nil {
			_ = rows.Close()
			return ranks.Document{}, fmt.Errorf("%w: selected row: %v", ranks.ErrCorrupt, err)
		}
		doc.Selected[id] = stat
	}
	if err := rows.Close(); err != nil {
		return ranks.Document{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT player_id, stat, label FROM ranks`)
	if err != nil {
		return ranks.Document{}, fmt.Errorf("read ranks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, stat, label string
		if err := rows.Scan(&id, &stat, &label); err != nil {
			return ranks.Document{}, fmt.Errorf("%w: ranks row: %v", ranks.ErrCorrupt, err)
		}
		if doc.Ranks[id] == nil {
			doc.Ranks[id] = make(map[string]string)
		}
		doc.Ranks[id][stat] = label
	}
	return doc, rows.Err()
}

// Save replaces the stored document with doc.
func (s *SQLiteStore) Save(ctx context.Context, doc ranks.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM selected`, `DELETE FROM ranks`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	sel, err := tx.PrepareContext(ctx, `INSERT INTO selected(player_id, stat) VALUES(?, ?)`)
	if err != nil {
		return err
	}
	defer sel.Close()
	for id, stat := range doc.Selected {
		if _, err := sel.ExecContext(ctx, id, stat); err != nil {
			return fmt.Errorf("insert selected %s: %w", id, err)
		}
	}

	rk, err := tx.PrepareContext(ctx, `INSERT INTO ranks(player_id, stat, label) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer rk.Close()
	for id, labels := range doc.Ranks {
		for stat, label := range labels {
			if _, err := rk.ExecContext(ctx, id, stat, label); err != nil {
				return fmt.Errorf("insert rank %s/%s: %w", id, stat, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('saved_at', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
