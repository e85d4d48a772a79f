package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hospital-admin-server/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs it when done.
// Errors attached by handlers are logged with the request id.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		for _, e := range c.Errors {
			log.WithRequestID(requestID).WithError(e.Err).Warn("Request failed")
		}
		log.HTTPRequest(requestID, c.Request.Method, c.FullPath(), c.ClientIP(), c.Writer.Status(), time.Since(start).Milliseconds())
	}
}
