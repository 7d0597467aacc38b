package dto

import (
	"time"

	"github.com/noah-isme/rubric-grader-api/internal/models"
)

// SetupResponse is the draft setup with its validation state.
type SetupResponse struct {
	Setup          models.Setup `json:"setup"`
	WeightTotal    float64      `json:"weight_total"`
	WeightBalanced bool         `json:"weight_balanced"`
	Errors         []string     `json:"errors"`
	Revision       int64        `json:"revision"`
}

// WorkspaceResponse exposes the grade tree and the active view.
type WorkspaceResponse struct {
	Revision int64                `json:"revision"`
	View     models.View          `json:"view"`
	Grading  *models.GradingState `json:"grading"`
}

// MutationResult reports the outcome of one workspace step.
type MutationResult struct {
	Revision    int64 `json:"revision"`
	Changed     bool  `json:"changed"`
	Index       *int  `json:"index,omitempty"`
	DroppedData *bool `json:"dropped_data,omitempty"`
}

// ViewRequest switches between the setup editor and the grader.
type ViewRequest struct {
	View string `json:"view" validate:"required,oneof=setup grader"`
}

// SlotEntryRequest replaces one scoring slot. A null score clears the slot.
type SlotEntryRequest struct {
	Score     *float64 `json:"score"`
	Deduction int      `json:"deduction" validate:"gte=0,lte=100"`
}

// SectionEntryRequest replaces a student's section override and comment.
type SectionEntryRequest struct {
	OverrideScore *float64 `json:"override_score"`
	Comment       string   `json:"comment" validate:"max=4000"`
}

// UpdateStudentRequest patches a student record.
type UpdateStudentRequest struct {
	Name               *string  `json:"name" validate:"omitempty,max=120"`
	TotalOverride      *float64 `json:"total_override"`
	ClearTotalOverride bool     `json:"clear_total_override"`
}

// UpdateClassRequest patches a class record.
type UpdateClassRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	SupportNote *string `json:"support_note" validate:"omitempty,max=4000"`
}

// RenameRequest renames a section or a scoring item.
type RenameRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// NoteRequest replaces the overall progress note.
type NoteRequest struct {
	Note string `json:"note" validate:"max=4000"`
}

// ActiveClassRequest selects the active class. Null clears the selection.
type ActiveClassRequest struct {
	ClassIndex *int `json:"class_index" validate:"omitempty,gte=0"`
}

// SelectedStudentRequest selects a student inside a class. Null clears it.
type SelectedStudentRequest struct {
	StudentIndex *int `json:"student_index" validate:"omitempty,gte=0"`
}

// SectionOrderRequest either replaces the display order or moves one section.
type SectionOrderRequest struct {
	Order []int `json:"order" validate:"required_without_all=From To,omitempty,dive,gte=0"`
	From  *int  `json:"from" validate:"required_with=To,omitempty,gte=0"`
	To    *int  `json:"to" validate:"required_with=From,omitempty,gte=0"`
}

// Export kinds.
const (
	ExportKindClassReport   = "class"
	ExportKindStudentSheet  = "student"
	ExportKindStudentSheets = "class-sheets"
)

// ExportRequest describes a rendered export.
type ExportRequest struct {
	Kind         string `json:"kind" form:"kind" validate:"required,oneof=class student class-sheets"`
	ClassIndex   int    `json:"class_index" form:"class_index" validate:"gte=0"`
	StudentIndex *int   `json:"student_index" form:"student_index" validate:"required_if=Kind student,omitempty,gte=0"`
	Format       string `json:"format" form:"format" validate:"required,oneof=csv pdf"`
}

// ExportLinkResponse describes a stored export and its signed download link.
type ExportLinkResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
