package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rubric-grader-api/internal/dto"
	"github.com/noah-isme/rubric-grader-api/internal/models"
	"github.com/noah-isme/rubric-grader-api/internal/service"
	"github.com/noah-isme/rubric-grader-api/pkg/response"
)

type snapshotWorkspace interface {
	Snapshot() models.Snapshot
	Revision() int64
	Import(ctx context.Context, snapshot models.Snapshot) (dto.MutationResult, error)
}

type snapshotCodec interface {
	Encode(snapshot models.Snapshot) ([]byte, error)
	Decode(payload []byte) (models.Snapshot, error)
}

type flusher interface {
	Flush(ctx context.Context) error
}

// SnapshotHandler exports, imports and force-saves the workspace snapshot.
type SnapshotHandler struct {
	workspace snapshotWorkspace
	codec     snapshotCodec
	saver     flusher
}

// NewSnapshotHandler constructs a snapshot handler.
func NewSnapshotHandler(workspace snapshotWorkspace, codec snapshotCodec, saver flusher) *SnapshotHandler {
	return &SnapshotHandler{workspace: workspace, codec: codec, saver: saver}
}

// Export godoc
// @Summary Export the workspace snapshot
// @Description With download=true the snapshot is sent as an attachment named after its save time.
// @Tags Snapshot
// @Produce json
// @Param download query bool false "Send as attachment"
// @Success 200 {object} models.Snapshot
// @Router /snapshot [get]
func (h *SnapshotHandler) Export(c *gin.Context) {
	snapshot := h.workspace.Snapshot()
	payload, err := h.codec.Encode(snapshot)
	if err != nil {
		response.Error(c, err)
		return
	}
	setRevision(c, h.workspace.Revision())
	c.Header("Cache-Control", "no-store")
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", service.BackupFilename(snapshot.SavedAt)))
	}
	c.Data(http.StatusOK, "application/json", payload)
}

// Import godoc
// @Summary Replace the workspace with a snapshot
// @Description Payloads that are not a JSON object are rejected as a whole and nothing is applied.
// @Tags Snapshot
// @Accept json
// @Produce json
// @Param payload body models.Snapshot true "Snapshot"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /snapshot [post]
func (h *SnapshotHandler) Import(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	snapshot, err := h.codec.Decode(body)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.workspace.Import(c.Request.Context(), snapshot)
	if err != nil {
		response.Error(c, err)
		return
	}
	setRevision(c, result.Revision)
	response.OK(c, result)
}

// Save godoc
// @Summary Persist the workspace now
// @Description Cancels any pending autosave and writes the snapshot synchronously.
// @Tags Snapshot
// @Success 204
// @Failure 500 {object} response.Envelope
// @Router /snapshot/save [post]
func (h *SnapshotHandler) Save(c *gin.Context) {
	if err := h.saver.Flush(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	setRevision(c, h.workspace.Revision())
	response.NoContent(c)
}
