package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/metrics"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestContext tags each request with a request id and a logger carried in
// the request context.
func RequestContext(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = logging.NewRequestID()
		}
		c.Header(requestIDHeader, reqID)

		ctx := logging.WithRequestID(c.Request.Context(), reqID)
		ctx = logging.IntoContext(ctx, logger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AccessLog records latency metrics and logs every request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Observe(duration.Seconds())

		logging.FromContext(c.Request.Context()).Info(c.Request.Context(), "http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", duration))
	}
}

const userIDKey = "user_id"

// RequireUser rejects requests without X-User-ID and stores the id on the
// gin context.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(userIDHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + userIDHeader})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
