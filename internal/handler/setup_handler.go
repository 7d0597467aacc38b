package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rubric-grader-api/internal/dto"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
	"github.com/noah-isme/rubric-grader-api/pkg/response"
)

type setupService interface {
	Setup() dto.SetupResponse
	ReplaceSetup(ctx context.Context, raw any) (dto.SetupResponse, error)
	ValidateSetup(raw any) dto.SetupResponse
	ApplySetup(ctx context.Context) (dto.WorkspaceResponse, error)
}

// SetupHandler exposes the draft rubric and roster configuration.
type SetupHandler struct {
	service setupService
}

// NewSetupHandler constructs a setup handler.
func NewSetupHandler(service setupService) *SetupHandler {
	return &SetupHandler{service: service}
}

// Get godoc
// @Summary Get the draft setup
// @Tags Setup
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /setup [get]
func (h *SetupHandler) Get(c *gin.Context) {
	resp := h.service.Setup()
	setRevision(c, resp.Revision)
	response.OK(c, resp)
}

// Replace godoc
// @Summary Replace the draft setup
// @Description Any JSON object is accepted and normalised; invalid fields fall back to defaults.
// @Tags Setup
// @Accept json
// @Produce json
// @Param payload body models.Setup true "Setup"
// @Success 200 {object} response.Envelope
// @Router /setup [put]
func (h *SetupHandler) Replace(c *gin.Context) {
	raw, err := decodeAny(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp, err := h.service.ReplaceSetup(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	setRevision(c, resp.Revision)
	response.OK(c, resp)
}

// Validate godoc
// @Summary Validate a setup without storing it
// @Description An empty body validates the current draft.
// @Tags Setup
// @Accept json
// @Produce json
// @Param payload body models.Setup false "Setup"
// @Success 200 {object} response.Envelope
// @Router /setup/validate [post]
func (h *SetupHandler) Validate(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		response.OK(c, h.service.Setup())
		return
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "setup must be valid JSON"))
		return
	}
	response.OK(c, h.service.ValidateSetup(raw))
}

// Apply godoc
// @Summary Apply the draft setup to the grade tree
// @Description Builds the grade tree on first use and reconciles it afterwards.
// @Tags Setup
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /setup/apply [post]
func (h *SetupHandler) Apply(c *gin.Context) {
	resp, err := h.service.ApplySetup(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	setRevision(c, resp.Revision)
	response.OK(c, resp)
}

func decodeAny(c *gin.Context) (any, error) {
	body, err := readBody(c)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "payload must be valid JSON")
	}
	return raw, nil
}
