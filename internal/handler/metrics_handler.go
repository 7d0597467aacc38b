package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rubric-grader-api/internal/service"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
	"github.com/noah-isme/rubric-grader-api/pkg/response"
)

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	checks  map[string]ReadinessCheck
}

// NewMetricsHandler constructs a metrics handler. Checks are run by Ready.
func NewMetricsHandler(metrics *service.MetricsService, checks map[string]ReadinessCheck) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, checks: checks}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every readiness check and reports the failing ones.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{}
	var failed []string
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			failed = append(failed, name)
			continue
		}
		status[name] = "ok"
	}
	if len(failed) > 0 {
		appErr := appErrors.New("NOT_READY", http.StatusServiceUnavailable, "service not ready")
		appErr.Details = failed
		response.Error(c, appErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": status})
}

// System godoc
// @Summary Process level metrics snapshot
// @Tags Observability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system/metrics [get]
func (h *MetricsHandler) System(c *gin.Context) {
	response.OK(c, h.metrics.Snapshot())
}
