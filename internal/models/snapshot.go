package models

import "time"

// SnapshotVersion is written into every persisted snapshot.
const SnapshotVersion = 2

// View identifies which screen the workspace was on when it was saved.
type View string

const (
	// ViewSetup is the rubric/roster editor.
	ViewSetup View = "setup"
	// ViewGrader is the score entry screen.
	ViewGrader View = "grader"
)

// Snapshot is the persisted workspace document.
type Snapshot struct {
	Version    int           `json:"version"`
	SavedAt    time.Time     `json:"savedAt"`
	ActiveView View          `json:"activeView"`
	Setup      Setup         `json:"setup"`
	Grading    *GradingState `json:"grading"`
}

// SnapshotRecord is a stored, encoded snapshot.
type SnapshotRecord struct {
	Workspace string    `db:"workspace"`
	Version   int       `db:"version"`
	Payload   string    `db:"payload"`
	SavedAt   time.Time `db:"saved_at"`
}
