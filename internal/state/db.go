// Package state provides SQLite-based snapshot persistence for aiq.
// The in-memory task store stays the source of truth; snapshots exist so the
// status command can inspect the last run without the orchestrator process.
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/aiqueue/aiq/pkg/models"
)

// DB wraps an SQLite database connection with snapshot operations.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultDBPath returns the path to the project-local snapshot database.
func DefaultDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".aiq", "state.db")
}

// Open opens an SQLite database at the given path.
// It creates the parent directories if they don't exist.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Tasks},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Tasks = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	lane TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	depends_on TEXT,
	assignee TEXT,
	capability TEXT,
	params TEXT,
	output TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_lane ON tasks(lane);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

// SaveSnapshot replaces the stored snapshot with the given tasks. Clearing
// first keeps the table a picture of the last run; without it, runs with
// fresh uuids would accumulate and mix.
func (db *DB) SaveSnapshot(tasks []*models.Task) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear previous snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tasks (id, title, description, lane, status, depends_on, assignee, capability, params, output, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		dependsOn, err := encodeJSON(t.DependsOn)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode depends_on for task %s: %w", t.ID, err)
		}
		params, err := encodeJSON(t.Params)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode params for task %s: %w", t.ID, err)
		}
		output, err := encodeJSON(t.Output)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode output for task %s: %w", t.ID, err)
		}

		_, err = stmt.Exec(t.ID, t.Title, t.Description, string(t.Lane), string(t.Status),
			dependsOn, t.Assignee, t.Capability, params, output, t.CreatedAt)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("save task %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// LoadTasks returns all snapshot tasks ordered by creation time.
func (db *DB) LoadTasks() ([]*models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT id, title, description, lane, status, depends_on, assignee, capability, params, output, created_at
		FROM tasks ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var t models.Task
		var description, dependsOn, assignee, capability, params, output sql.NullString
		var lane, status string

		err := rows.Scan(&t.ID, &t.Title, &description, &lane, &status,
			&dependsOn, &assignee, &capability, &params, &output, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		t.Description = description.String
		t.Lane = models.Lane(lane)
		t.Status = models.TaskStatus(status)
		t.Assignee = assignee.String
		t.Capability = capability.String
		if err := decodeJSON(dependsOn.String, &t.DependsOn); err != nil {
			return nil, fmt.Errorf("decode depends_on for task %s: %w", t.ID, err)
		}
		if err := decodeJSON(params.String, &t.Params); err != nil {
			return nil, fmt.Errorf("decode params for task %s: %w", t.ID, err)
		}
		if err := decodeJSON(output.String, &t.Output); err != nil {
			return nil, fmt.Errorf("decode output for task %s: %w", t.ID, err)
		}

		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// SummaryCounts returns snapshot task counts keyed by lane and by status.
func (db *DB) SummaryCounts() (map[string]int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	counts := make(map[string]int)
	for _, q := range []string{
		"SELECT lane, COUNT(*) FROM tasks GROUP BY lane",
		"SELECT status, COUNT(*) FROM tasks GROUP BY status",
	} {
		rows, err := db.conn.Query(q)
		if err != nil {
			return nil, fmt.Errorf("summary counts: %w", err)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan summary row: %w", err)
			}
			counts[key] = n
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return counts, nil
}

// encodeJSON marshals v, returning "" for empty values to keep NULL columns.
func encodeJSON(v interface{}) (string, error) {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return "", nil
		}
	case map[string]string:
		if len(val) == 0 {
			return "", nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeJSON unmarshals data into v, leaving v untouched for empty input.
func decodeJSON(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
