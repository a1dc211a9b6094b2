// Package state provides SQLite-based snapshot persistence for aiq.
package state

import (
	"io"

	"github.com/aiqueue/aiq/pkg/models"
)

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// SnapshotStore defines the interface for task snapshot persistence.
// This allows commands to work with any snapshot backend without depending
// on the concrete SQLite implementation.
type SnapshotStore interface {
	io.Closer
	Migrator
	SaveSnapshot(tasks []*models.Task) error
	LoadTasks() ([]*models.Task, error)
	SummaryCounts() (map[string]int, error)
}

// Compile-time verification that DB implements the interfaces.
var (
	_ SnapshotStore = (*DB)(nil)
	_ Migrator      = (*DB)(nil)
)
