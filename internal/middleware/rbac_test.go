package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

func performWithRoles(t *testing.T, guard gin.HandlerFunc, roles models.RoleSet) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/guarded", func(c *gin.Context) {
		if roles != nil {
			c.Set(ContextUserKey, &models.Claims{Roles: roles})
		}
		c.Next()
	}, guard, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	return w.Code
}

func TestRolePolicyAllows(t *testing.T) {
	studentOnly := RolePolicy{Required: []models.Role{models.RoleStudent}}
	assert.True(t, studentOnly.Allows(models.RoleSet{models.RoleStudent}))
	assert.False(t, studentOnly.Allows(models.RoleSet{models.RoleAdmin}))

	withImplicit := RolePolicy{Required: []models.Role{models.RoleStudent}, ImplicitAdmin: true}
	assert.True(t, withImplicit.Allows(models.RoleSet{models.RoleStudent}))
	assert.True(t, withImplicit.Allows(models.RoleSet{models.RoleAdmin}))

	open := RolePolicy{}
	assert.True(t, open.Allows(models.RoleSet{}))
	assert.True(t, open.Allows(nil))
}

func TestRBACRequireRolesAdmitsImplicitAdmin(t *testing.T) {
	guard := RequireRoles(models.RoleStudent)

	assert.Equal(t, http.StatusOK, performWithRoles(t, guard, models.RoleSet{models.RoleStudent}))
	assert.Equal(t, http.StatusOK, performWithRoles(t, guard, models.RoleSet{models.RoleAdmin}))
}

func TestRBACAdminOnlyRejectsStudent(t *testing.T) {
	guard := AdminOnly()

	assert.Equal(t, http.StatusOK, performWithRoles(t, guard, models.RoleSet{models.RoleAdmin}))
	assert.Equal(t, http.StatusForbidden, performWithRoles(t, guard, models.RoleSet{models.RoleStudent}))
}

func TestRBACEmptyRoleSetForbidden(t *testing.T) {
	guard := RequireRoles(models.RoleStudent)

	assert.Equal(t, http.StatusForbidden, performWithRoles(t, guard, models.RoleSet{}))
}

func TestRBACMissingClaimsUnauthorized(t *testing.T) {
	guard := AdminOnly()

	assert.Equal(t, http.StatusUnauthorized, performWithRoles(t, guard, nil))
}
