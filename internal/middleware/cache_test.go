package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResponseMetaRecordsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen map[string]interface{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		seen = ExtractMeta(c)
	})
	r.Use(WithResponseMeta())
	r.GET("/summary", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/summary", nil))
	assert.Equal(t, true, seen[cacheHitKey])
	assert.Contains(t, seen, "processing_time_ms")
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	SetCacheHit(c, false)
	assert.Equal(t, map[string]interface{}{cacheHitKey: false}, ExtractMeta(c))
	assert.Empty(t, ExtractMeta(nil))
}
