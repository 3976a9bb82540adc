package middleware

import (
	"strings"

	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/jwt"
	"leadmsg/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware validates the bearer token on each request and resolves
// the authenticated caller identity into the gin context. Every messaging
// operation downstream reads the caller from here; there is no process-wide
// current-user state.
func JWTAuthMiddleware(jwtService *jwt.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Error(errors.NewUnauthenticatedError("Authentication required"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Error(errors.NewUnauthenticatedError("Invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			if log != nil {
				log.Warn("token validation failed",
					"path", c.Request.URL.Path,
					"error", err.Error(),
				)
			}
			c.Error(errors.NewUnauthenticatedError("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("userID", claims.UserID)

		c.Next()
	}
}

// CallerID returns the authenticated user ID set by JWTAuthMiddleware.
func CallerID(c *gin.Context) (string, bool) {
	userID := c.GetString("userID")
	return userID, userID != ""
}
