package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend persists snapshot collections in a single SQLite table,
// one row per (workspace, week, metric) with a JSON payload column.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at path and ensures the
// snapshot table exists.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database %q: %w", path, err)
	}
	// Single connection avoids "database is locked" errors under concurrency.
	db.SetMaxOpenConns(1)

	const schema = `
		CREATE TABLE IF NOT EXISTS snapshots (
			workspace_id TEXT NOT NULL,
			week         TEXT NOT NULL,
			metric       TEXT NOT NULL,
			payload      TEXT NOT NULL,
			PRIMARY KEY (workspace_id, week, metric)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Load reads the complete collection for a workspace. Rows with corrupt
// payloads are logged and skipped rather than failing the load.
func (b *SQLiteBackend) Load(workspaceID string) (Collection, error) {
	rows, err := b.db.Query(
		`SELECT week, metric, payload FROM snapshots WHERE workspace_id = ?`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	col := Collection{}
	for rows.Next() {
		var week, metric, payload string
		if err := rows.Scan(&week, &metric, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		var fields Fields
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			log.Warn().Err(err).Str("week", week).Str("metric", metric).Msg("Skipping corrupt snapshot payload")
			continue
		}

		if col[week] == nil {
			col[week] = make(map[string]Fields)
		}
		col[week][metric] = fields
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}

	return col, nil
}

// Store replaces the workspace's rows with the given collection inside one
// transaction, mirroring the file backend's whole-document rewrite.
func (b *SQLiteBackend) Store(workspaceID string, col Collection) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE workspace_id = ?`, workspaceID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO snapshots (workspace_id, week, metric, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for week, metrics := range col {
		for metric, fields := range metrics {
			payload, err := json.Marshal(fields)
			if err != nil {
				return fmt.Errorf("failed to encode snapshot %s/%s: %w", week, metric, err)
			}
			if _, err := stmt.Exec(workspaceID, week, metric, string(payload)); err != nil {
				return fmt.Errorf("failed to insert snapshot %s/%s: %w", week, metric, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}

	log.Debug().Str("workspace", workspaceID).Int("weeks", len(col)).Msg("Snapshots saved to database")
	return nil
}

// Close releases the underlying database handle.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
