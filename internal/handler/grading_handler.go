package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rubric-grader-api/internal/dto"
	"github.com/noah-isme/rubric-grader-api/internal/middleware"
	"github.com/noah-isme/rubric-grader-api/internal/models"
	"github.com/noah-isme/rubric-grader-api/pkg/response"
)

type gradingService interface {
	Workspace() (dto.WorkspaceResponse, error)
	Revision() int64
	SetView(ctx context.Context, req dto.ViewRequest) (dto.MutationResult, error)
	ClassSummary(ctx context.Context, classIndex int) (models.ClassMetrics, bool, error)
	CohortSummary(ctx context.Context) (models.CohortMetrics, bool, error)
	ClearData(ctx context.Context) (dto.MutationResult, error)
	SetOverallNote(ctx context.Context, req dto.NoteRequest) (dto.MutationResult, error)
	SetActiveClass(ctx context.Context, req dto.ActiveClassRequest) (dto.MutationResult, error)
	AddClass(ctx context.Context) (dto.MutationResult, error)
	UpdateClass(ctx context.Context, classIndex int, req dto.UpdateClassRequest) (dto.MutationResult, error)
	RemoveClass(ctx context.Context, classIndex int) (dto.MutationResult, error)
	ReorderSections(ctx context.Context, classIndex int, req dto.SectionOrderRequest) (dto.MutationResult, error)
	SelectStudent(ctx context.Context, classIndex int, req dto.SelectedStudentRequest) (dto.MutationResult, error)
	AddStudent(ctx context.Context, classIndex int) (dto.MutationResult, error)
	UpdateStudent(ctx context.Context, classIndex, studentIndex int, req dto.UpdateStudentRequest) (dto.MutationResult, error)
	RemoveStudent(ctx context.Context, classIndex, studentIndex int) (dto.MutationResult, error)
	SetSectionEntry(ctx context.Context, classIndex, studentIndex, sectionIndex int, req dto.SectionEntryRequest) (dto.MutationResult, error)
	SetSlotEntry(ctx context.Context, classIndex, studentIndex, sectionIndex, slot int, req dto.SlotEntryRequest) (dto.MutationResult, error)
	RenameSection(ctx context.Context, sectionIndex int, req dto.RenameRequest) (dto.MutationResult, error)
	RenameItem(ctx context.Context, sectionIndex, slot int, req dto.RenameRequest) (dto.MutationResult, error)
	AddSlot(ctx context.Context, sectionIndex int) (dto.MutationResult, error)
	RemoveSlot(ctx context.Context, sectionIndex int) (dto.MutationResult, error)
}

// GradingHandler exposes the grade tree, its metrics and every edit to it.
type GradingHandler struct {
	service gradingService
}

// NewGradingHandler constructs a grading handler.
func NewGradingHandler(service gradingService) *GradingHandler {
	return &GradingHandler{service: service}
}

// Get godoc
// @Summary Get the grade tree
// @Tags Grading
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /grading [get]
func (h *GradingHandler) Get(c *gin.Context) {
	ws, err := h.service.Workspace()
	if err != nil {
		response.Error(c, err)
		return
	}
	setRevision(c, ws.Revision)
	response.OK(c, ws)
}

// SetView godoc
// @Summary Switch between the setup editor and the grader
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.ViewRequest true "View"
// @Success 200 {object} response.Envelope
// @Router /workspace/view [put]
func (h *GradingHandler) SetView(c *gin.Context) {
	var req dto.ViewRequest
	if err := bindJSON(c, &req, "invalid view payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.SetView(c.Request.Context(), req))
}

// Summary godoc
// @Summary Cohort summary across every class
// @Tags Grading
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grading/summary [get]
func (h *GradingHandler) Summary(c *gin.Context) {
	summary, cacheHit, err := h.service.CohortSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSummary(c, summary, cacheHit)
}

// ClassSummary godoc
// @Summary Metrics of one class
// @Tags Grading
// @Produce json
// @Param class path int true "Class index"
// @Success 200 {object} response.Envelope
// @Router /grading/classes/{class}/summary [get]
func (h *GradingHandler) ClassSummary(c *gin.Context) {
	classIndex, err := indexParam(c, "class")
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, cacheHit, err := h.service.ClassSummary(c.Request.Context(), classIndex)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSummary(c, summary, cacheHit)
}

// ClearData godoc
// @Summary Clear every entered score, override, comment and note
// @Tags Grading
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grading/data [delete]
func (h *GradingHandler) ClearData(c *gin.Context) {
	h.respond(c)(h.service.ClearData(c.Request.Context()))
}

// SetNote godoc
// @Summary Replace the overall progress note
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.NoteRequest true "Note"
// @Success 200 {object} response.Envelope
// @Router /grading/note [put]
func (h *GradingHandler) SetNote(c *gin.Context) {
	var req dto.NoteRequest
	if err := bindJSON(c, &req, "invalid note payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.SetOverallNote(c.Request.Context(), req))
}

// SetActiveClass godoc
// @Summary Select the active class
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.ActiveClassRequest true "Active class"
// @Success 200 {object} response.Envelope
// @Router /grading/active-class [put]
func (h *GradingHandler) SetActiveClass(c *gin.Context) {
	var req dto.ActiveClassRequest
	if err := bindJSON(c, &req, "invalid active class payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.SetActiveClass(c.Request.Context(), req))
}

// AddClass godoc
// @Summary Add a class with one blank student
// @Tags Grading
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /grading/classes [post]
func (h *GradingHandler) AddClass(c *gin.Context) {
	h.created(c)(h.service.AddClass(c.Request.Context()))
}

// UpdateClass godoc
// @Summary Rename a class or change its support note
// @Tags Grading
// @Accept json
// @Produce json
// @Param class path int true "Class index"
// @Param payload body dto.UpdateClassRequest true "Class patch"
// @Success 200 {object} response.Envelope
// @Router /grading/classes/{class} [patch]
func (h *GradingHandler) UpdateClass(c *gin.Context) {
	classIndex, err := indexParam(c, "class")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateClassRequest
	if err := bindJSON(c, &req, "invalid class payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.UpdateClass(c.Request.Context(), classIndex, req))
}

// RemoveClass godoc
// @Summary Remove a class
// @Tags Grading
// @Produce json
// @Param class path int true "Class index"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grading/classes/{class} [delete]
func (h *GradingHandler) RemoveClass(c *gin.Context) {
	classIndex, err := indexParam(c, "class")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.RemoveClass(c.Request.Context(), classIndex))
}

// ReorderSections godoc
// @Summary Change the display order of sections for a class
// @Tags Grading
// @Accept json
// @Produce json
// @Param class path int true "Class index"
// @Param payload body dto.SectionOrderRequest true "Order or move"
// @Success 200 {object} response.Envelope
// @Router /grading/classes/{class}/section-order [put]
func (h *GradingHandler) ReorderSections(c *gin.Context) {
	classIndex, err := indexParam(c, "class")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SectionOrderRequest
	if err := bindJSON(c, &req, "invalid section order payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.ReorderSections(c.Request.Context(), classIndex, req))
}

// SelectStudent godoc
// @Summary Select a student inside a class
// @Tags Grading
// @Accept json
// @Produce json
// @Param class path int true "Class index"
// @Param payload body dto.SelectedStudentRequest true "Selection"
// @Success 200 {object} response.Envelope
// @Router /grading/classes/{class}/selected-student [put]
func (h *GradingHandler) SelectStudent(c *gin.Context) {
	classIndex, err := indexParam(c, "class")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SelectedStudentRequest
	if err := bindJSON(c, &req, "invalid selection payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.SelectStudent(c.Request.Context(), classIndex, req))
}

// AddStudent godoc
// @Summary Add a blank student to a class
// @Tags Grading
// @Produce json
// @Param class path int true "Class index"
// @Success 201 {object} response.Envelope
// @Router /grading/classes/{class}/students [post]
func (h *GradingHandler) AddStudent(c *gin.Context) {
	classIndex, err := indexParam(c, "class")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.created(c)(h.service.AddStudent(c.Request.Context(), classIndex))
}

// UpdateStudent godoc
// @Summary Rename a student or set their total override
// @Tags Grading
// @Accept json
// @Produce json
// @Param class path int true "Class index"
// @Param student path int true "Student index"
// @Param payload body dto.UpdateStudentRequest true "Student patch"
// @Success 200 {object} response.Envelope
// @Router /grading/classes/{class}/students/{student} [patch]
func (h *GradingHandler) UpdateStudent(c *gin.Context) {
	idx, err := indexParams(c, "class", "student")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateStudentRequest
	if err := bindJSON(c, &req, "invalid student payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.UpdateStudent(c.Request.Context(), idx[0], idx[1], req))
}

// RemoveStudent godoc
// @Summary Remove a student
// @Tags Grading
// @Produce json
// @Param class path int true "Class index"
// @Param student path int true "Student index"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grading/classes/{class}/students/{student} [delete]
func (h *GradingHandler) RemoveStudent(c *gin.Context) {
	idx, err := indexParams(c, "class", "student")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.RemoveStudent(c.Request.Context(), idx[0], idx[1]))
}

// SetSectionEntry godoc
// @Summary Set a student's section override and comment
// @Tags Grading
// @Accept json
// @Produce json
// @Param class path int true "Class index"
// @Param student path int true "Student index"
// @Param section path int true "Section index"
// @Param payload body dto.SectionEntryRequest true "Section entry"
// @Success 200 {object} response.Envelope
// @Router /grading/classes/{class}/students/{student}/sections/{section} [put]
func (h *GradingHandler) SetSectionEntry(c *gin.Context) {
	idx, err := indexParams(c, "class", "student", "section")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SectionEntryRequest
	if err := bindJSON(c, &req, "invalid section entry payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.SetSectionEntry(c.Request.Context(), idx[0], idx[1], idx[2], req))
}

// SetSlotEntry godoc
// @Summary Set one scoring slot
// @Tags Grading
// @Accept json
// @Produce json
// @Param class path int true "Class index"
// @Param student path int true "Student index"
// @Param section path int true "Section index"
// @Param slot path int true "Slot index"
// @Param payload body dto.SlotEntryRequest true "Slot entry"
// @Success 200 {object} response.Envelope
// @Router /grading/classes/{class}/students/{student}/sections/{section}/slots/{slot} [put]
func (h *GradingHandler) SetSlotEntry(c *gin.Context) {
	idx, err := indexParams(c, "class", "student", "section", "slot")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SlotEntryRequest
	if err := bindJSON(c, &req, "invalid slot entry payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.SetSlotEntry(c.Request.Context(), idx[0], idx[1], idx[2], idx[3], req))
}

// RenameSection godoc
// @Summary Rename a section
// @Tags Grading
// @Accept json
// @Produce json
// @Param section path int true "Section index"
// @Param payload body dto.RenameRequest true "Name"
// @Success 200 {object} response.Envelope
// @Router /grading/sections/{section} [patch]
func (h *GradingHandler) RenameSection(c *gin.Context) {
	sectionIndex, err := indexParam(c, "section")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RenameRequest
	if err := bindJSON(c, &req, "invalid rename payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.RenameSection(c.Request.Context(), sectionIndex, req))
}

// RenameItem godoc
// @Summary Rename a scoring item
// @Tags Grading
// @Accept json
// @Produce json
// @Param section path int true "Section index"
// @Param slot path int true "Slot index"
// @Param payload body dto.RenameRequest true "Name"
// @Success 200 {object} response.Envelope
// @Router /grading/sections/{section}/items/{slot} [patch]
func (h *GradingHandler) RenameItem(c *gin.Context) {
	idx, err := indexParams(c, "section", "slot")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RenameRequest
	if err := bindJSON(c, &req, "invalid rename payload"); err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.RenameItem(c.Request.Context(), idx[0], idx[1], req))
}

// AddSlot godoc
// @Summary Add a scoring slot to a section
// @Tags Grading
// @Produce json
// @Param section path int true "Section index"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grading/sections/{section}/slots [post]
func (h *GradingHandler) AddSlot(c *gin.Context) {
	sectionIndex, err := indexParam(c, "section")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.created(c)(h.service.AddSlot(c.Request.Context(), sectionIndex))
}

// RemoveSlot godoc
// @Summary Remove the last scoring slot of a section
// @Tags Grading
// @Produce json
// @Param section path int true "Section index"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grading/sections/{section}/slots [delete]
func (h *GradingHandler) RemoveSlot(c *gin.Context) {
	sectionIndex, err := indexParam(c, "section")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c)(h.service.RemoveSlot(c.Request.Context(), sectionIndex))
}

func (h *GradingHandler) respond(c *gin.Context) func(dto.MutationResult, error) {
	return func(result dto.MutationResult, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		setRevision(c, result.Revision)
		response.OK(c, result)
	}
}

func (h *GradingHandler) created(c *gin.Context) func(dto.MutationResult, error) {
	return func(result dto.MutationResult, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		setRevision(c, result.Revision)
		response.Created(c, result)
	}
}

func (h *GradingHandler) respondSummary(c *gin.Context, summary interface{}, cacheHit bool) {
	revision := h.service.Revision()
	setRevision(c, revision)
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	meta["revision"] = revision
	response.OK(c, summary, meta)
}
