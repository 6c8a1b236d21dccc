package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/salaedu/sala-api/internal/models"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		name string
		role models.UserRole
		perm Permission
		want bool
	}{
		{"admin holds everything", models.RoleAdmin, PermManageSchools, true},
		{"principal manages classes", models.RolePrincipal, PermManageClasses, true},
		{"principal cannot manage schools", models.RolePrincipal, PermManageSchools, false},
		{"teacher records attendance", models.RoleTeacher, PermRecordAttendance, true},
		{"student cannot record attendance", models.RoleStudent, PermRecordAttendance, false},
		{"student views scores", models.RoleStudent, PermViewScores, true},
		{"teacher cannot manage accounts", models.RoleTeacher, PermManageAccounts, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.role, tc.perm))
		})
	}
}

func performWithRole(role models.UserRole, perm Permission) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", func(c *gin.Context) {
		c.Set(ContextUserKey, models.Principal{UserID: "usr-1", Role: role})
	}, Require(perm), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAllowsPermittedRole(t *testing.T) {
	w := performWithRole(models.RoleTeacher, PermRecordScores)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireBlocksForbiddenRole(t *testing.T) {
	w := performWithRole(models.RoleStudent, PermRecordScores)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireBlocksAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", Require(PermViewScores), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
