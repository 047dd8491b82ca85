package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// getSchemaVersion reads PRAGMA user_version from the database.
func getSchemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// isLegacyDB reports whether an unversioned database already holds a tweets
// table, as left behind by the earlier dashboard.
func isLegacyDB(conn *sql.DB) (bool, error) {
	var count int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tweets'",
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for legacy tables: %w", err)
	}
	return count > 0, nil
}

// pending returns the migrations newer than current, in order.
func pending(current int) []Migration {
	var out []Migration
	for _, m := range migrations {
		if m.Version > current {
			out = append(out, m)
		}
	}
	return out
}

// migrate brings the database schema up to the latest version, tracked in
// PRAGMA user_version. An unversioned legacy database is run through every
// migration; the DDL only creates what is missing.
func migrate(conn *sql.DB) error {
	current, err := getSchemaVersion(conn)
	if err != nil {
		return err
	}

	todo := pending(current)
	if len(todo) == 0 {
		return nil
	}

	if current == 0 {
		legacy, err := isLegacyDB(conn)
		if err != nil {
			return err
		}
		if legacy {
			slog.Info("adopting unversioned tweets database")
		}
	}

	for _, m := range todo {
		if err := applyMigration(conn, m); err != nil {
			return err
		}
	}
	slog.Info("database schema up to date", "from", current, "to", latestVersion())
	return nil
}

func applyMigration(conn *sql.DB, m Migration) error {
	slog.Info("applying migration", "version", m.Version, "description", m.Description)

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	if err := m.Up(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}

	// modernc/sqlite does not honour user_version inside the transaction.
	// Every migration is idempotent, so a crash before this line re-runs it.
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("setting version %d: %w", m.Version, err)
	}
	return nil
}
