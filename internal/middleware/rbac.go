package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/salaedu/sala-api/internal/models"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
	"github.com/salaedu/sala-api/pkg/response"
)

// Permission names one guarded operation. Route guards reference
// permissions, not roles, so the role matrix lives in one place.
type Permission string

const (
	PermManageSchools     Permission = "schools:manage"
	PermViewSchools       Permission = "schools:view"
	PermManageAccounts    Permission = "accounts:manage"
	PermManageClasses     Permission = "classes:manage"
	PermViewClasses       Permission = "classes:view"
	PermViewPeople        Permission = "people:view"
	PermManagePrincipals  Permission = "principals:manage"
	PermRecordAttendance  Permission = "attendance:record"
	PermViewAttendance    Permission = "attendance:view"
	PermRecordScores      Permission = "scores:record"
	PermViewScores        Permission = "scores:view"
	PermViewReports       Permission = "reports:view"
	PermFinalizeResults   Permission = "results:finalize"
	PermViewResults       Permission = "results:view"
	PermManageEvents      Permission = "events:manage"
	PermViewEvents        Permission = "events:view"
	PermManageSubjects    Permission = "subjects:manage"
	PermViewNotifications Permission = "notifications:view"
)

// rolePermissions is the role matrix. Admins implicitly hold every
// permission and are not listed.
var rolePermissions = map[Permission][]models.UserRole{
	PermManageSchools:     {},
	PermViewSchools:       {models.RolePrincipal, models.RoleTeacher, models.RoleStudent},
	PermManageAccounts:    {models.RolePrincipal},
	PermManageClasses:     {models.RolePrincipal},
	PermViewClasses:       {models.RolePrincipal, models.RoleTeacher, models.RoleStudent},
	PermViewPeople:        {models.RolePrincipal, models.RoleTeacher},
	PermManagePrincipals:  {},
	PermRecordAttendance:  {models.RoleTeacher},
	PermViewAttendance:    {models.RolePrincipal, models.RoleTeacher, models.RoleStudent},
	PermRecordScores:      {models.RoleTeacher},
	PermViewScores:        {models.RolePrincipal, models.RoleTeacher, models.RoleStudent},
	PermViewReports:       {models.RolePrincipal, models.RoleTeacher},
	PermFinalizeResults:   {models.RolePrincipal, models.RoleTeacher},
	PermViewResults:       {models.RolePrincipal, models.RoleTeacher, models.RoleStudent},
	PermManageEvents:      {models.RolePrincipal},
	PermViewEvents:        {models.RolePrincipal, models.RoleTeacher, models.RoleStudent},
	PermManageSubjects:    {models.RolePrincipal},
	PermViewNotifications: {models.RolePrincipal, models.RoleTeacher, models.RoleStudent},
}

// Allowed reports whether a role holds the permission.
func Allowed(role models.UserRole, perm Permission) bool {
	if role == models.RoleAdmin {
		return true
	}
	for _, r := range rolePermissions[perm] {
		if r == role {
			return true
		}
	}
	return false
}

// Require blocks callers whose role does not hold the permission. Must run
// after JWT.
func Require(perm Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		principalValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		principal := principalValue.(models.Principal)

		if !Allowed(principal.Role, perm) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
