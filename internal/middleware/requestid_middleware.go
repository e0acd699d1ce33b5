package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDContextKey = "requestID"

// RequestIDHeader carries the request ID back to clients and accepts one from
// upstream proxies.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a unique ID to every request so log lines across the
// request lifecycle can be correlated. An incoming X-Request-ID is trusted
// and propagated; otherwise a new UUID is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// RequestIDFromContext returns the request ID set by RequestID, or "".
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}
