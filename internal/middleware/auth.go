package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/platform/logger"
	"github.com/riplabs/annotdb-backend/internal/services"
)

type AuthMiddleware struct {
	log     *logger.Logger
	clients services.ClientService
}

func NewAuthMiddleware(baseLog *logger.Logger, clients services.ClientService) *AuthMiddleware {
	return &AuthMiddleware{
		log:     baseLog.With("middleware", "AuthMiddleware"),
		clients: clients,
	}
}

// RequireClient rejects requests that do not carry a registered client's
// auth token.
func (am *AuthMiddleware) RequireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing auth token",
			})
			return
		}
		ok, err := am.clients.Authenticate(c.Request.Context(), token)
		if err != nil {
			am.log.Error("token lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "internal server error",
			})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid auth token",
			})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if token := c.GetHeader("X-Auth-Token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return c.Query("token")
}
