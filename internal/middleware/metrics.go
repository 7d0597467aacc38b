package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rubric-grader-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records every request against metricsSvc. Requests are labelled by
// route template, so /grading/classes/3/summary and /grading/classes/4/summary
// share one series. Requests that match no route share the "unmatched" label.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		done := metricsSvc.TrackInFlight()
		defer done()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
