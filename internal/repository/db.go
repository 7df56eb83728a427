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

	// Enable WAL mode for better concurrent read performance.
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
		`CREATE TABLE IF NOT EXISTS hosts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT UNIQUE NOT NULL,
			currency TEXT NOT NULL,
			plan TEXT NOT NULL,
			payout_method TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hosts_active ON hosts(active)`,

		`CREATE TABLE IF NOT EXISTS collectives (
			id TEXT PRIMARY KEY,
			host_id TEXT NOT NULL,
			name TEXT NOT NULL,
			slug TEXT UNIQUE NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (host_id) REFERENCES hosts(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_collectives_host ON collectives(host_id)`,

		`CREATE TABLE IF NOT EXISTS plans (
			slug TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			share_percent TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Ledger rows. No foreign keys here: rows may reference accounts
		// outside the host set (the platform account owns credit rows).
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			collective_id TEXT NOT NULL,
			host_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			amount_in_host_currency INTEGER NOT NULL,
			host_currency TEXT NOT NULL,
			platform_fee_in_host_currency INTEGER,
			host_fee_in_host_currency INTEGER,
			transaction_group TEXT NOT NULL,
			platform_tip_for_group TEXT,
			description TEXT NOT NULL DEFAULT '',
			data TEXT NOT NULL DEFAULT '{}',
			settled INTEGER NOT NULL DEFAULT 0,
			settlement_id TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_host_created ON transactions(host_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_group ON transactions(transaction_group)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_tip_group ON transactions(platform_tip_for_group)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_settlement ON transactions(settlement_id)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			host_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			description TEXT NOT NULL,
			currency TEXT NOT NULL,
			total_amount INTEGER NOT NULL,
			payout_method TEXT NOT NULL,
			period_start DATETIME NOT NULL,
			period_end DATETIME NOT NULL,
			export_pending INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (host_id) REFERENCES hosts(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_host ON expenses(host_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_period ON expenses(period_start)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_export_pending ON expenses(export_pending)`,

		`CREATE TABLE IF NOT EXISTS expense_items (
			id TEXT PRIMARY KEY,
			expense_id TEXT NOT NULL,
			description TEXT NOT NULL,
			amount INTEGER NOT NULL,
			position INTEGER NOT NULL,
			incurred_at DATETIME NOT NULL,
			FOREIGN KEY (expense_id) REFERENCES expenses(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expense_items_expense ON expense_items(expense_id)`,

		`CREATE TABLE IF NOT EXISTS attached_files (
			id TEXT PRIMARY KEY,
			expense_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (expense_id) REFERENCES expenses(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attached_files_expense ON attached_files(expense_id)`,

		`CREATE TABLE IF NOT EXISTS settlement_runs (
			id TEXT PRIMARY KEY,
			period_start DATETIME NOT NULL,
			period_end DATETIME NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			hosts_total INTEGER NOT NULL,
			hosts_settled INTEGER NOT NULL,
			hosts_skipped INTEGER NOT NULL,
			hosts_failed INTEGER NOT NULL,
			tips_flagged INTEGER NOT NULL,
			failures TEXT NOT NULL DEFAULT '[]',
			flagged TEXT NOT NULL DEFAULT '[]',
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlement_runs_started ON settlement_runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
