package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			member_id TEXT NOT NULL,
			member_name TEXT NOT NULL,
			currency TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_member ON plans(member_id)`,

		`CREATE TABLE IF NOT EXISTS limit_nodes (
			plan_id TEXT NOT NULL,
			id TEXT NOT NULL,
			parent_id TEXT,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			service_types TEXT NOT NULL,
			limit_cents INTEGER NOT NULL,
			utilized_cents INTEGER NOT NULL,
			PRIMARY KEY (plan_id, id),
			FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_limit_nodes_parent ON limit_nodes(plan_id, parent_id)`,

		`CREATE TABLE IF NOT EXISTS claims (
			claim_number TEXT PRIMARY KEY,
			member_id TEXT NOT NULL,
			plan_id TEXT NOT NULL,
			claim_date DATETIME NOT NULL,
			provider TEXT NOT NULL,
			service_type TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_plan ON claims(plan_id, claim_date)`,

		`CREATE TABLE IF NOT EXISTS import_reports (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			format TEXT NOT NULL,
			plan_id TEXT NOT NULL,
			file_hash TEXT UNIQUE NOT NULL,
			record_count INTEGER NOT NULL,
			imported_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS findings (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			plan_id TEXT NOT NULL,
			node_id TEXT,
			claim_number TEXT,
			severity TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			description TEXT NOT NULL,
			detected_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_plan ON findings(plan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_type ON findings(type)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_severity ON findings(severity)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
