package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rubric-grader-api/internal/models"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
)

const snapshotSchema = `CREATE TABLE IF NOT EXISTS grading_snapshots (
	workspace TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	payload TEXT NOT NULL,
	saved_at TIMESTAMP NOT NULL
)`

// SnapshotRepository persists workspace snapshots in PostgreSQL or SQLite.
type SnapshotRepository struct {
	db        *sqlx.DB
	workspace string
}

// NewSnapshotRepository constructs the repository for one workspace.
func NewSnapshotRepository(db *sqlx.DB, workspace string) *SnapshotRepository {
	if workspace == "" {
		workspace = "default"
	}
	return &SnapshotRepository{db: db, workspace: workspace}
}

// EnsureSchema creates the snapshot table when missing.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

// Load returns the stored snapshot of the workspace.
func (r *SnapshotRepository) Load(ctx context.Context) (*models.SnapshotRecord, error) {
	query := r.db.Rebind(`SELECT workspace, version, payload, saved_at FROM grading_snapshots WHERE workspace = ?`)
	var record models.SnapshotRecord
	if err := r.db.GetContext(ctx, &record, query, r.workspace); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "snapshot not found")
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &record, nil
}

// Save inserts or replaces the workspace snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, record *models.SnapshotRecord) error {
	if record == nil {
		return fmt.Errorf("save snapshot: nil record")
	}
	record.Workspace = r.workspace
	query := r.db.Rebind(`INSERT INTO grading_snapshots (workspace, version, payload, saved_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (workspace)
DO UPDATE SET version = EXCLUDED.version, payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at`)
	if _, err := r.db.ExecContext(ctx, query, record.Workspace, record.Version, record.Payload, record.SavedAt.UTC()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
