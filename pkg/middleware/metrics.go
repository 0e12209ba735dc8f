package middleware

import (
	"bitwise74/bboard/internal/metrics"

	"github.com/gin-gonic/gin"
)

// NewMetricsMiddleware counts responses by status code
func NewMetricsMiddleware(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		rec.RecordHTTPStatus(c.Writer.Status())
	}
}
