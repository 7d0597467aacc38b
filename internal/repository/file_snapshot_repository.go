package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/rubric-grader-api/internal/models"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
)

type snapshotFiles interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
}

// FileSnapshotRepository keeps the workspace snapshot as a JSON document on
// disk.
type FileSnapshotRepository struct {
	files     snapshotFiles
	workspace string
}

// NewFileSnapshotRepository stores the snapshot of workspace through files.
func NewFileSnapshotRepository(files snapshotFiles, workspace string) *FileSnapshotRepository {
	if strings.TrimSpace(workspace) == "" {
		workspace = "default"
	}
	return &FileSnapshotRepository{files: files, workspace: workspace}
}

// Filename is the snapshot document name relative to the storage root.
func (r *FileSnapshotRepository) Filename() string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", "..", "-", " ", "_")
	return fmt.Sprintf("%s.snapshot.json", replacer.Replace(r.workspace))
}

// Load reads the stored snapshot document.
func (r *FileSnapshotRepository) Load(ctx context.Context) (*models.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.files.Read(r.Filename())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "snapshot not found")
		}
		return nil, fmt.Errorf("load snapshot file: %w", err)
	}
	return &models.SnapshotRecord{Workspace: r.workspace, Payload: string(data)}, nil
}

// Save replaces the snapshot document.
func (r *FileSnapshotRepository) Save(ctx context.Context, record *models.SnapshotRecord) error {
	if record == nil {
		return fmt.Errorf("save snapshot file: nil record")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	record.Workspace = r.workspace
	if record.SavedAt.IsZero() {
		record.SavedAt = time.Now().UTC()
	}
	if _, err := r.files.Save(r.Filename(), []byte(record.Payload)); err != nil {
		return fmt.Errorf("save snapshot file: %w", err)
	}
	return nil
}
