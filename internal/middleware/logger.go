package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"healthinsure/internal/pkg/response"
)

const headerRequestID = "X-Request-ID"

// RequestLogger logs one structured line per request and tags it with a request id.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := requestID(c)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Set(response.LoggerKey, log.WithField("request_id", rid))
		c.Writer.Header().Set(headerRequestID, rid)

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"request_id": rid,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"user_id":    c.GetInt64(ctxUserID),
			"role":       c.GetString(ctxRole),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

// Recovery turns a panic into a 500 response and logs it with the stack.
func Recovery(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.WithFields(logrus.Fields{
					"request_id": c.GetString("request_id"),
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"panic":      fmt.Sprintf("%v", recovered),
					"stack":      string(debug.Stack()),
				}).Error("panic recovered")

				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			}
		}()

		c.Next()
	}
}

func requestID(c *gin.Context) string {
	requestID := c.GetHeader(headerRequestID)
	if requestID == "" {
		requestID = c.GetHeader("X-Request-Id")
	}
	return requestID
}
