// Package store keeps the export ledger: a SQLite history of every JSON
// record the tool wrote.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded write.
type Entry struct {
	ID        string
	Design    string
	Document  string // source document, empty when not known
	Path      string
	Hash      string
	Params    int
	WrittenAt time.Time
}

// Ledger is the export history database.
type Ledger struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
	now    func() time.Time
}

// OpenLedger creates or opens the ledger at dbPath.
func OpenLedger(dbPath string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	l := &Ledger{db: db, dbPath: dbPath, now: time.Now}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return l, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exports (
		id TEXT PRIMARY KEY,
		design TEXT NOT NULL,
		path TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		params INTEGER NOT NULL,
		written_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exports_design ON exports(design);
	CREATE INDEX IF NOT EXISTS idx_exports_written_at ON exports(written_at);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return err
	}
	_, err := runMigrations(l.db, ledgerMigrations)
	return err
}

// Record stores e, filling in ID and WrittenAt when empty.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.WrittenAt.IsZero() {
		e.WrittenAt = l.now()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO exports (id, design, document, path, sha256, params, written_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Design, e.Document, e.Path, e.Hash, e.Params, e.WrittenAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record export of %s: %w", e.Design, err)
	}
	return nil
}

// Recent returns the newest entries first, at most limit of them.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return l.query(ctx,
		`SELECT id, design, document, path, sha256, params, written_at FROM exports ORDER BY written_at DESC, rowid DESC LIMIT ?`,
		limit)
}

// ForDesign returns the newest entries of one design.
func (l *Ledger) ForDesign(ctx context.Context, design string, limit int) ([]Entry, error) {
	return l.query(ctx,
		`SELECT id, design, document, path, sha256, params, written_at FROM exports WHERE design = ? ORDER BY written_at DESC, rowid DESC LIMIT ?`,
		design, limit)
}

func (l *Ledger) query(ctx context.Context, q string, args ...interface{}) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Design, &e.Document, &e.Path, &e.Hash, &e.Params, &e.WrittenAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
