package handler

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rubric-grader-api/internal/dto"
	"github.com/noah-isme/rubric-grader-api/internal/service"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
	"github.com/noah-isme/rubric-grader-api/pkg/response"
)

type exportService interface {
	Render(ctx context.Context, req dto.ExportRequest) (*service.ExportFile, error)
	Store(ctx context.Context, req dto.ExportRequest) (*dto.ExportLinkResponse, error)
	Download(token string) (*os.File, string, error)
}

// ExportHandler renders grade reports and serves stored exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// ClassReport godoc
// @Summary Download a class report
// @Description With sheets=true every student's grade sheet is exported instead.
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param class path int true "Class index"
// @Param format query string false "csv or pdf" default(csv)
// @Param sheets query bool false "Export every student sheet"
// @Success 200 {file} file
// @Router /exports/classes/{class} [get]
func (h *ExportHandler) ClassReport(c *gin.Context) {
	classIndex, err := indexParam(c, "class")
	if err != nil {
		response.Error(c, err)
		return
	}
	req := dto.ExportRequest{Kind: dto.ExportKindClassReport, ClassIndex: classIndex, Format: formatQuery(c)}
	if sheets, _ := strconv.ParseBool(c.Query("sheets")); sheets {
		req.Kind = dto.ExportKindStudentSheets
	}
	h.render(c, req)
}

// StudentSheet godoc
// @Summary Download a student grade sheet
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param class path int true "Class index"
// @Param student path int true "Student index"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /exports/classes/{class}/students/{student} [get]
func (h *ExportHandler) StudentSheet(c *gin.Context) {
	idx, err := indexParams(c, "class", "student")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.render(c, dto.ExportRequest{
		Kind:         dto.ExportKindStudentSheet,
		ClassIndex:   idx[0],
		StudentIndex: &idx[1],
		Format:       formatQuery(c),
	})
}

// Create godoc
// @Summary Store an export behind a signed download link
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export request"
// @Success 201 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRequest
	if err := bindJSON(c, &req, "invalid export payload"); err != nil {
		response.Error(c, err)
		return
	}
	link, err := h.service.Store(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Download godoc
// @Summary Download a stored export
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, name, err := h.service.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unable to read export"))
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}

func (h *ExportHandler) render(c *gin.Context, req dto.ExportRequest) {
	file, err := h.service.Render(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func formatQuery(c *gin.Context) string {
	return strings.ToLower(c.DefaultQuery("format", "csv"))
}
