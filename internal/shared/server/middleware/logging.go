package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shadow7-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		trackingCode, _ := c.Get("trackingCode")
		pipelineStatus, _ := c.Get("pipelineStatus")

		telemetry.Info("request.complete", map[string]any{
			"request_id":      reqID,
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"status":          status,
			"tracking_code":   trackingCode,
			"pipeline_status": pipelineStatus,
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
	}
}
