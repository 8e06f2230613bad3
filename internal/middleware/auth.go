package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"healthinsure/internal/domain"
	"healthinsure/internal/pkg/jwt"
	"healthinsure/internal/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth authenticates the bearer token and stores user_id and role on the context.
// Websocket upgrades may pass the token as the "token" query parameter instead.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, code, msg := bearerToken(c)
		if raw == "" {
			response.Error(c, http.StatusUnauthorized, code, msg)
			return
		}

		claims, err := jwtService.ValidateToken(raw)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (token, code, message string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if websocketUpgrade(c) {
			if t := c.Query("token"); t != "" {
				return t, "", ""
			}
		}
		return "", "AUTH_HEADER_MISSING", "Authorization header is required"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
	}
	return strings.TrimSpace(parts[1]), "", ""
}

func websocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

// Actor returns the authenticated caller set by JWTAuth.
func Actor(c *gin.Context) domain.Actor {
	return domain.Actor{
		UserID: c.GetInt64(ctxUserID),
		Role:   domain.UserRole(c.GetString(ctxRole)),
	}
}
