package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
	"github.com/escolar-dev/sie-enrollment-api/pkg/response"
)

// RolePolicy describes what a route demands of the caller's role set.
// ImplicitAdmin grants administrators access to routes that name other
// roles; admin-only routes simply list the admin role and leave it off.
type RolePolicy struct {
	Required      []models.Role
	ImplicitAdmin bool
}

// Allows reports whether the caller's role set satisfies the policy. An
// empty required list admits any authenticated caller.
func (p RolePolicy) Allows(roles models.RoleSet) bool {
	if len(p.Required) == 0 {
		return true
	}
	if p.ImplicitAdmin && roles.Has(models.RoleAdmin) {
		return true
	}
	return roles.HasAny(p.Required...)
}

// RBAC enforces a role policy on routes behind the Auth middleware.
func RBAC(policy RolePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !policy.Allows(claims.Roles) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRoles builds the common policy: the named roles plus implicit
// admin access.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return RBAC(RolePolicy{Required: roles, ImplicitAdmin: true})
}

// AdminOnly admits administrators exclusively.
func AdminOnly() gin.HandlerFunc {
	return RBAC(RolePolicy{Required: []models.Role{models.RoleAdmin}})
}
