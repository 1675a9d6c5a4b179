package store

import (
	"database/sql"
	"fmt"
)

// Migration adds a column that older ledgers lack.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// ledgerMigrations lists columns added after the first release of the ledger.
var ledgerMigrations = []Migration{
	{"exports", "document", "TEXT NOT NULL DEFAULT ''"},
}

// runMigrations applies pending column migrations. Tables that do not
// exist yet are skipped.
func runMigrations(db *sql.DB, migrations []Migration) (applied int, err error) {
	for _, m := range migrations {
		exists, err := tableExists(db, m.Table)
		if err != nil {
			return applied, err
		}
		if !exists {
			continue
		}
		has, err := columnExists(db, m.Table, m.Column)
		if err != nil {
			return applied, err
		}
		if has {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(query); err != nil {
			return applied, fmt.Errorf("migration %s.%s failed: %w", m.Table, m.Column, err)
		}
		applied++
	}
	return applied, nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
