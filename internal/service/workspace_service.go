package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rubric-grader-api/internal/dto"
	"github.com/noah-isme/rubric-grader-api/internal/grading"
	"github.com/noah-isme/rubric-grader-api/internal/models"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
)

// Scheduler arms a deferred save.
type Scheduler interface {
	Schedule()
}

// WorkspaceConfig tunes the workspace service.
type WorkspaceConfig struct {
	Name       string
	SummaryTTL time.Duration
}

// WorkspaceService owns the draft setup and the grade tree. Every mutation
// runs as one step under the mutex: it either commits completely or leaves
// the workspace untouched, and readers only ever receive clones.
type WorkspaceService struct {
	mu       sync.RWMutex
	setup    models.Setup
	state    *models.GradingState
	view     models.View
	revision int64

	cfg       WorkspaceConfig
	cache     *CacheService
	metrics   *MetricsService
	autosave  Scheduler
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkspaceService builds an empty workspace holding the default setup.
func NewWorkspaceService(cfg WorkspaceConfig, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *WorkspaceService {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceService{
		setup:     grading.NormalizeSetup(nil),
		view:      models.ViewSetup,
		cfg:       cfg,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// SetAutosave attaches the scheduler notified after every committed step.
func (s *WorkspaceService) SetAutosave(scheduler Scheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosave = scheduler
}

// Revision returns the number of committed steps.
func (s *WorkspaceService) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Restore replaces the workspace with a loaded snapshot without scheduling a
// save.
func (s *WorkspaceService) Restore(snapshot models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(snapshot)
}

// Import replaces the workspace with an uploaded snapshot and schedules a save.
func (s *WorkspaceService) Import(ctx context.Context, snapshot models.Snapshot) (dto.MutationResult, error) {
	return s.step(ctx, "snapshot.import", func() (dto.MutationResult, bool, error) {
		s.apply(snapshot)
		return dto.MutationResult{}, true, nil
	})
}

func (s *WorkspaceService) apply(snapshot models.Snapshot) {
	s.setup = snapshot.Setup.Clone()
	s.state = snapshot.Grading.Clone()
	s.view = models.ViewSetup
	if s.state != nil && snapshot.ActiveView != models.ViewSetup {
		s.view = models.ViewGrader
	}
}

// Snapshot captures the workspace for persistence. While the grader is open
// the stored setup is derived from the grade tree so both halves agree.
func (s *WorkspaceService) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	setup := s.setup.Clone()
	if s.view == models.ViewGrader && s.state != nil {
		setup = grading.SetupFromGrading(s.state)
	}
	return models.Snapshot{
		Version:    models.SnapshotVersion,
		SavedAt:    time.Now().UTC(),
		ActiveView: s.view,
		Setup:      setup,
		Grading:    s.state.Clone(),
	}
}

// Setup returns the draft setup with its validation state.
func (s *WorkspaceService) Setup() dto.SetupResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return setupResponse(s.setup.Clone(), s.revision)
}

// ReplaceSetup normalises raw into the new draft setup. The grade tree only
// follows the includeComments flag until the setup is applied.
func (s *WorkspaceService) ReplaceSetup(ctx context.Context, raw any) (dto.SetupResponse, error) {
	var resp dto.SetupResponse
	_, err := s.step(ctx, "setup.replace", func() (dto.MutationResult, bool, error) {
		s.setup = grading.NormalizeSetup(raw)
		if s.state != nil {
			s.state.IncludeComments = s.setup.IncludeComments
		}
		resp = setupResponse(s.setup.Clone(), s.revision+1)
		return dto.MutationResult{}, true, nil
	})
	return resp, err
}

// ValidateSetup reports the problems of raw, or of the draft when raw is nil.
func (s *WorkspaceService) ValidateSetup(raw any) dto.SetupResponse {
	if raw == nil {
		return s.Setup()
	}
	return setupResponse(grading.NormalizeSetup(raw), s.Revision())
}

// ApplySetup instantiates the draft setup: a fresh grade tree on first use,
// otherwise the existing tree reconciled onto the new setup.
func (s *WorkspaceService) ApplySetup(ctx context.Context) (dto.WorkspaceResponse, error) {
	var resp dto.WorkspaceResponse
	_, err := s.step(ctx, "setup.apply", func() (dto.MutationResult, bool, error) {
		if messages := grading.ValidateSetup(s.setup); len(messages) > 0 {
			return dto.MutationResult{}, false, setupError(s.setup, messages)
		}
		s.state = grading.Reconcile(s.state, s.setup)
		s.view = models.ViewGrader
		resp = dto.WorkspaceResponse{Revision: s.revision + 1, View: s.view, Grading: s.state.Clone()}
		return dto.MutationResult{}, true, nil
	})
	return resp, err
}

// SetView switches the active view. Opening the setup editor re-derives the
// draft from the grade tree.
func (s *WorkspaceService) SetView(ctx context.Context, req dto.ViewRequest) (dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MutationResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid view payload")
	}
	return s.step(ctx, "view.set", func() (dto.MutationResult, bool, error) {
		view := models.View(req.View)
		if view == models.ViewGrader && s.state == nil {
			return dto.MutationResult{}, false, errNoGrading()
		}
		changed := s.view != view
		if view == models.ViewSetup && s.state != nil {
			s.setup = grading.SetupFromGrading(s.state)
			changed = true
		}
		s.view = view
		return dto.MutationResult{}, changed, nil
	})
}

// Workspace returns the grade tree.
func (s *WorkspaceService) Workspace() (dto.WorkspaceResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return dto.WorkspaceResponse{}, errNoGrading()
	}
	return dto.WorkspaceResponse{Revision: s.revision, View: s.view, Grading: s.state.Clone()}, nil
}

// Grading returns a clone of the grade tree.
func (s *WorkspaceService) Grading() (*models.GradingState, error) {
	state, _, err := s.current()
	return state, err
}

// ClassSummary returns the metrics of one class and whether they came from
// the summary cache.
func (s *WorkspaceService) ClassSummary(ctx context.Context, classIndex int) (models.ClassMetrics, bool, error) {
	state, revision, err := s.current()
	if err != nil {
		return models.ClassMetrics{}, false, err
	}
	if state.Class(classIndex) == nil {
		return models.ClassMetrics{}, false, classNotFound(classIndex)
	}
	key := SummaryKey(s.cfg.Name, revision, fmt.Sprintf("class:%d", classIndex))
	metrics, hit := cached(ctx, s.cache, key, s.cfg.SummaryTTL, func() models.ClassMetrics {
		return grading.ClassMetrics(state, classIndex)
	})
	return metrics, hit, nil
}

// CohortSummary returns the metrics of every class and whether they came from
// the summary cache.
func (s *WorkspaceService) CohortSummary(ctx context.Context) (models.CohortMetrics, bool, error) {
	state, revision, err := s.current()
	if err != nil {
		return models.CohortMetrics{}, false, err
	}
	metrics, hit := cached(ctx, s.cache, SummaryKey(s.cfg.Name, revision, "cohort"), s.cfg.SummaryTTL, func() models.CohortMetrics {
		return grading.CohortMetrics(state)
	})
	return metrics, hit, nil
}

// ClearData wipes every entered score, override, comment and note.
func (s *WorkspaceService) ClearData(ctx context.Context) (dto.MutationResult, error) {
	return s.mutate(ctx, "grading.clear", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		grading.ClearEnteredData(state)
		return dto.MutationResult{}, true, nil
	})
}

// SetOverallNote replaces the overall progress note.
func (s *WorkspaceService) SetOverallNote(ctx context.Context, req dto.NoteRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid note payload"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "note.set", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		changed := state.OverallProgressNote != req.Note
		state.OverallProgressNote = req.Note
		return dto.MutationResult{}, changed, nil
	})
}

// SetActiveClass selects the active class.
func (s *WorkspaceService) SetActiveClass(ctx context.Context, req dto.ActiveClassRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid class selection"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "class.select", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if err := grading.SelectClass(state, req.ClassIndex); err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{Index: req.ClassIndex}, true, nil
	})
}

// AddClass appends a class with one blank student and makes it active.
func (s *WorkspaceService) AddClass(ctx context.Context) (dto.MutationResult, error) {
	return s.mutate(ctx, "class.add", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		index, err := grading.AddClass(state)
		if err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{Index: &index}, true, nil
	})
}

// UpdateClass renames a class or replaces its support note.
func (s *WorkspaceService) UpdateClass(ctx context.Context, classIndex int, req dto.UpdateClassRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid class payload"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "class.update", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if state.Class(classIndex) == nil {
			return dto.MutationResult{}, false, classNotFound(classIndex)
		}
		changed := false
		if req.Name != nil {
			renamed, err := grading.RenameClass(state, classIndex, *req.Name)
			if err != nil {
				return dto.MutationResult{}, false, err
			}
			changed = renamed
		}
		if req.SupportNote != nil {
			if err := grading.SetClassNote(state, classIndex, *req.SupportNote); err != nil {
				return dto.MutationResult{}, false, err
			}
			changed = true
		}
		return dto.MutationResult{}, changed, nil
	})
}

// RemoveClass deletes a class. The last class cannot be removed.
func (s *WorkspaceService) RemoveClass(ctx context.Context, classIndex int) (dto.MutationResult, error) {
	return s.mutate(ctx, "class.remove", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if err := grading.RemoveClass(state, classIndex); err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{}, true, nil
	})
}

// ReorderSections replaces a class's section display order or moves one
// section within it.
func (s *WorkspaceService) ReorderSections(ctx context.Context, classIndex int, req dto.SectionOrderRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid section order"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "section.reorder", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if req.From != nil && req.To != nil {
			moved, err := grading.MoveSection(state, classIndex, *req.From, *req.To)
			return dto.MutationResult{}, moved, err
		}
		if err := grading.SetSectionOrder(state, classIndex, req.Order); err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{}, true, nil
	})
}

// SelectStudent selects the student shown in a class.
func (s *WorkspaceService) SelectStudent(ctx context.Context, classIndex int, req dto.SelectedStudentRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid student selection"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "student.select", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if err := grading.SelectStudent(state, classIndex, req.StudentIndex); err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{Index: req.StudentIndex}, true, nil
	})
}

// AddStudent appends a blank student to a class and selects it.
func (s *WorkspaceService) AddStudent(ctx context.Context, classIndex int) (dto.MutationResult, error) {
	return s.mutate(ctx, "student.add", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		index, err := grading.AddStudent(state, classIndex)
		if err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{Index: &index}, true, nil
	})
}

// UpdateStudent renames a student or changes the total override.
func (s *WorkspaceService) UpdateStudent(ctx context.Context, classIndex, studentIndex int, req dto.UpdateStudentRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid student payload"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "student.update", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if state.Student(classIndex, studentIndex) == nil {
			return dto.MutationResult{}, false, studentNotFound(classIndex, studentIndex)
		}
		changed := false
		if req.Name != nil {
			renamed, err := grading.RenameStudent(state, classIndex, studentIndex, *req.Name)
			if err != nil {
				return dto.MutationResult{}, false, err
			}
			changed = renamed
		}
		switch {
		case req.ClearTotalOverride:
			if err := grading.SetTotalOverride(state, classIndex, studentIndex, nil); err != nil {
				return dto.MutationResult{}, false, err
			}
			changed = true
		case req.TotalOverride != nil:
			if err := grading.SetTotalOverride(state, classIndex, studentIndex, req.TotalOverride); err != nil {
				return dto.MutationResult{}, false, err
			}
			changed = true
		}
		return dto.MutationResult{}, changed, nil
	})
}

// RemoveStudent deletes a student. The last student of a class cannot be
// removed.
func (s *WorkspaceService) RemoveStudent(ctx context.Context, classIndex, studentIndex int) (dto.MutationResult, error) {
	return s.mutate(ctx, "student.remove", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if err := grading.RemoveStudent(state, classIndex, studentIndex); err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{}, true, nil
	})
}

// SetSectionEntry replaces a student's section override and comment.
func (s *WorkspaceService) SetSectionEntry(ctx context.Context, classIndex, studentIndex, sectionIndex int, req dto.SectionEntryRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid section entry"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "section.entry", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if err := grading.SetSectionOverride(state, classIndex, studentIndex, sectionIndex, req.OverrideScore); err != nil {
			return dto.MutationResult{}, false, err
		}
		if err := grading.SetSectionComment(state, classIndex, studentIndex, sectionIndex, req.Comment); err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{}, true, nil
	})
}

// SetSlotEntry replaces one scoring slot of a student.
func (s *WorkspaceService) SetSlotEntry(ctx context.Context, classIndex, studentIndex, sectionIndex, slot int, req dto.SlotEntryRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid score entry"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "score.set", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if err := grading.SetScore(state, classIndex, studentIndex, sectionIndex, slot, req.Score); err != nil {
			return dto.MutationResult{}, false, err
		}
		if err := grading.SetDeduction(state, classIndex, studentIndex, sectionIndex, slot, req.Deduction); err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{}, true, nil
	})
}

// RenameSection renames a rubric section.
func (s *WorkspaceService) RenameSection(ctx context.Context, sectionIndex int, req dto.RenameRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid section name"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "section.rename", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		renamed, err := grading.RenameSection(state, sectionIndex, req.Name)
		return dto.MutationResult{}, renamed, err
	})
}

// RenameItem renames one scoring slot of a section.
func (s *WorkspaceService) RenameItem(ctx context.Context, sectionIndex, slot int, req dto.RenameRequest) (dto.MutationResult, error) {
	if err := s.validate(req, "invalid item name"); err != nil {
		return dto.MutationResult{}, err
	}
	return s.mutate(ctx, "item.rename", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		renamed, err := grading.RenameItem(state, sectionIndex, slot, req.Name)
		return dto.MutationResult{}, renamed, err
	})
}

// AddSlot appends a scoring slot to a section.
func (s *WorkspaceService) AddSlot(ctx context.Context, sectionIndex int) (dto.MutationResult, error) {
	return s.mutate(ctx, "slot.add", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		if err := grading.AddSlot(state, sectionIndex); err != nil {
			return dto.MutationResult{}, false, err
		}
		slots := state.Sections[sectionIndex].Slots
		return dto.MutationResult{Index: &slots}, true, nil
	})
}

// RemoveSlot drops the last scoring slot of a section and reports whether
// entered data was lost.
func (s *WorkspaceService) RemoveSlot(ctx context.Context, sectionIndex int) (dto.MutationResult, error) {
	return s.mutate(ctx, "slot.remove", func(state *models.GradingState) (dto.MutationResult, bool, error) {
		removed, err := grading.RemoveSlot(state, sectionIndex)
		if err != nil {
			return dto.MutationResult{}, false, err
		}
		return dto.MutationResult{Index: &removed.Slots, DroppedData: &removed.DroppedData}, true, nil
	})
}

type stepFunc func() (dto.MutationResult, bool, error)

// step runs fn under the write lock. A step that reports a change bumps the
// revision, invalidates cached summaries and schedules a save.
func (s *WorkspaceService) step(ctx context.Context, action string, fn stepFunc) (dto.MutationResult, error) {
	s.mu.Lock()
	result, changed, err := fn()
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("workspace step rejected", zap.String("action", action), zap.Error(err))
		return dto.MutationResult{}, err
	}
	if changed {
		s.revision++
	}
	result.Revision = s.revision
	result.Changed = changed
	autosave := s.autosave
	s.mu.Unlock()

	if changed {
		s.metrics.RecordMutation(action, result.Revision)
		if err := s.cache.Invalidate(ctx, SummaryPattern(s.cfg.Name)); err != nil {
			s.logger.Warn("summary cache invalidation failed", zap.String("action", action), zap.Error(err))
		}
		if autosave != nil {
			autosave.Schedule()
		}
	}
	return result, nil
}

// mutate runs fn against a clone of the grade tree and swaps it in on success.
func (s *WorkspaceService) mutate(ctx context.Context, action string, fn func(state *models.GradingState) (dto.MutationResult, bool, error)) (dto.MutationResult, error) {
	return s.step(ctx, action, func() (dto.MutationResult, bool, error) {
		if s.state == nil {
			return dto.MutationResult{}, false, errNoGrading()
		}
		draft := s.state.Clone()
		result, changed, err := fn(draft)
		if err != nil {
			return dto.MutationResult{}, false, err
		}
		if changed {
			s.state = draft
		}
		return result, changed, nil
	})
}

func (s *WorkspaceService) current() (*models.GradingState, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, s.revision, errNoGrading()
	}
	return s.state.Clone(), s.revision, nil
}

func (s *WorkspaceService) validate(req any, message string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

func setupResponse(setup models.Setup, revision int64) dto.SetupResponse {
	errs := grading.ValidateSetup(setup)
	if errs == nil {
		errs = []string{}
	}
	return dto.SetupResponse{
		Setup:          setup,
		WeightTotal:    grading.WeightTotal(setup),
		WeightBalanced: grading.WeightBalanced(setup),
		Errors:         errs,
		Revision:       revision,
	}
}

func setupError(setup models.Setup, messages []string) error {
	if !grading.WeightBalanced(setup) {
		return appErrors.WithDetails(appErrors.ErrInvalidWeights, messages)
	}
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "setup is invalid"), messages)
}

func errNoGrading() error {
	return appErrors.Clone(appErrors.ErrPreconditionFailed, "grading sheet has not been created; apply the setup first")
}

func classNotFound(classIndex int) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %d not found", classIndex))
}

func studentNotFound(classIndex, studentIndex int) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %d not found in class %d", studentIndex, classIndex))
}
