package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"auction-platform/internal/accounts/tokens"
	model "auction-platform/internal/models"
	"auction-platform/services/auction/helpers"
	"auction-platform/utils"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// AuthRequired validates the bearer token and stores the caller's identity
// in the request context
func AuthRequired(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			utils.JSONError(c, http.StatusUnauthorized, errMissingToken, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateUserJWT(tokenString, jwtSecret)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, err, "invalid or expired token")
			utils.Warn("AuthRequired: token rejected", map[string]any{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(helpers.ContextUserIDKey, claims.UserID)
		c.Set(helpers.ContextRoleKey, string(claims.Role))
		c.Next()
	}
}

// AdminRequired allows only callers holding the admin role. Must run after
// AuthRequired.
func AdminRequired(c *gin.Context) {
	role := model.Role(c.GetString(helpers.ContextRoleKey))
	if role != model.RoleAdmin {
		utils.JSONError(c, http.StatusForbidden, errAdminOnly, "admin role required")
		c.Abort()
		return
	}
	c.Next()
}
