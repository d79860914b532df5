package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/service"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
	"github.com/escolar-dev/sie-enrollment-api/pkg/response"
)

// ContextUserKey is the gin context key storing verified token claims.
const ContextUserKey = "currentUser"

// extractToken pulls the raw token from the request. The Authorization
// header is preferred; the session cookie is the fallback for browser
// clients that cannot attach headers.
func extractToken(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}

	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// Auth protects routes by requiring a valid token, from either the
// Authorization header or the session cookie.
func Auth(tokens *service.TokenService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c, cookieName)
		if raw == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the verified claims stored on the context, or nil
// when the route ran without the Auth middleware.
func CurrentClaims(c *gin.Context) *models.Claims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}
