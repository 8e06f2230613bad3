package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"healthinsure/internal/domain"
)

// LoggerKey is the gin context key holding the request-scoped *logrus.Entry.
const LoggerKey = "logger"

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// ValidationError answers 400 for a body or query that failed to bind.
func ValidationError(c *gin.Context, err error) {
	ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", err.Error())
}

// FromError maps the domain error kinds to HTTP statuses. Anything else is logged and
// answered as 500 without leaking the cause.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrInvalidOperation):
		Error(c, http.StatusUnprocessableEntity, "INVALID_OPERATION", err.Error())
	default:
		requestLog(c).WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func requestLog(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(LoggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.StandardLogger()
}
