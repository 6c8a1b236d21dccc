package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salaedu/sala-api/internal/middleware"
	"github.com/salaedu/sala-api/internal/service"
)

// Handlers bundles every endpoint handler for route registration.
type Handlers struct {
	Auth          *AuthHandler
	Accounts      *AccountHandler
	Schools       *SchoolHandler
	Subjects      *SubjectHandler
	Classes       *ClassHandler
	Schedules     *ScheduleHandler
	Teachers      *TeacherHandler
	Students      *StudentHandler
	Principals    *PrincipalHandler
	Attendance    *AttendanceHandler
	Scores        *ScoreHandler
	Results       *AcademicResultHandler
	Events        *EventHandler
	Notifications *NotificationHandler
}

// RegisterRoutes mounts the API under the given prefix. Every route past
// login requires a valid token; scoped routes additionally resolve the
// caller's tenant boundary and check role permissions.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService, scopes *service.ScopeService) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))
	authed.GET("/auth/me", h.Auth.Me)
	authed.PUT("/auth/password", h.Auth.ChangePassword)
	authed.PUT("/accounts/profile", h.Accounts.UpdateProfile)

	authed.GET("/notifications", middleware.Require(middleware.PermViewNotifications), h.Notifications.Recent)
	authed.GET("/notifications/unread", middleware.Require(middleware.PermViewNotifications), h.Notifications.UnreadCount)
	authed.PUT("/notifications/read-all", middleware.Require(middleware.PermViewNotifications), h.Notifications.MarkAllRead)
	authed.PUT("/notifications/:id/read", middleware.Require(middleware.PermViewNotifications), h.Notifications.MarkRead)

	scoped := authed.Group("")
	scoped.Use(middleware.Scope(scopes))

	scoped.GET("/schools", middleware.Require(middleware.PermViewSchools), h.Schools.List)
	scoped.GET("/schools/:id", middleware.Require(middleware.PermViewSchools), h.Schools.Get)
	scoped.POST("/schools", middleware.Require(middleware.PermManageSchools), h.Schools.Create)
	scoped.PUT("/schools/:id", middleware.Require(middleware.PermManageSchools), h.Schools.Update)
	scoped.DELETE("/schools/:id", middleware.Require(middleware.PermManageSchools), h.Schools.Delete)

	scoped.POST("/accounts", middleware.Require(middleware.PermManageAccounts), h.Accounts.Create)
	scoped.DELETE("/accounts/:id", middleware.Require(middleware.PermManageAccounts), h.Accounts.Deactivate)

	scoped.GET("/subjects", middleware.Require(middleware.PermViewClasses), h.Subjects.List)
	scoped.GET("/subjects/:id", middleware.Require(middleware.PermViewClasses), h.Subjects.Get)
	scoped.POST("/subjects", middleware.Require(middleware.PermManageSubjects), h.Subjects.Create)
	scoped.PUT("/subjects/:id", middleware.Require(middleware.PermManageSubjects), h.Subjects.Update)
	scoped.DELETE("/subjects/:id", middleware.Require(middleware.PermManageSubjects), h.Subjects.Delete)

	scoped.GET("/classes", middleware.Require(middleware.PermViewClasses), h.Classes.List)
	scoped.GET("/classes/:id", middleware.Require(middleware.PermViewClasses), h.Classes.Get)
	scoped.GET("/classes/:id/schedules", middleware.Require(middleware.PermViewClasses), h.Classes.Schedules)
	scoped.POST("/classes", middleware.Require(middleware.PermManageClasses), h.Classes.Create)
	scoped.PUT("/classes/:id", middleware.Require(middleware.PermManageClasses), h.Classes.Update)
	scoped.DELETE("/classes/:id", middleware.Require(middleware.PermManageClasses), h.Classes.Delete)
	scoped.POST("/classes/:id/students", middleware.Require(middleware.PermManageClasses), h.Classes.EnrollStudents)
	scoped.DELETE("/classes/:id/students/:studentId", middleware.Require(middleware.PermManageClasses), h.Classes.RemoveStudent)

	scoped.GET("/schedules", middleware.Require(middleware.PermViewClasses), h.Schedules.List)

	scoped.GET("/teachers", middleware.Require(middleware.PermViewPeople), h.Teachers.List)
	scoped.GET("/teachers/:id", middleware.Require(middleware.PermViewPeople), h.Teachers.Get)
	scoped.GET("/teachers/:id/classes", middleware.Require(middleware.PermViewPeople), h.Teachers.Classes)
	scoped.PUT("/teachers/:id/school", middleware.Require(middleware.PermManageAccounts), h.Teachers.AssignSchool)

	scoped.GET("/students", middleware.Require(middleware.PermViewPeople), h.Students.List)
	scoped.GET("/students/:id", middleware.Require(middleware.PermViewPeople), h.Students.Get)
	scoped.PUT("/students/:id/school", middleware.Require(middleware.PermManageAccounts), h.Students.AssignSchool)

	scoped.GET("/principals", middleware.Require(middleware.PermManagePrincipals), h.Principals.List)
	scoped.GET("/principals/:id", middleware.Require(middleware.PermManagePrincipals), h.Principals.Get)
	scoped.PUT("/principals/:id/school", middleware.Require(middleware.PermManagePrincipals), h.Principals.AssignSchool)

	scoped.GET("/attendance", middleware.Require(middleware.PermViewAttendance), h.Attendance.List)
	scoped.GET("/attendance/me", middleware.Require(middleware.PermViewAttendance), h.Attendance.Mine)
	scoped.POST("/attendance/bulk", middleware.Require(middleware.PermRecordAttendance), h.Attendance.BulkRecord)
	scoped.GET("/attendance/students/:studentId/summary", middleware.Require(middleware.PermViewAttendance), h.Attendance.StudentSummary)

	scoped.GET("/scores", middleware.Require(middleware.PermViewScores), h.Scores.List)
	scoped.POST("/scores/bulk", middleware.Require(middleware.PermRecordScores), h.Scores.BulkRecord)
	scoped.DELETE("/scores/:id", middleware.Require(middleware.PermRecordScores), h.Scores.Delete)
	scoped.GET("/scores/report", middleware.Require(middleware.PermViewReports), h.Scores.Standings)
	scoped.GET("/scores/students/:studentId/report", middleware.Require(middleware.PermViewScores), h.Scores.Report)
	scoped.GET("/scores/students/:studentId/report/export", middleware.Require(middleware.PermViewScores), h.Scores.ExportReport)

	scoped.GET("/results", middleware.Require(middleware.PermViewResults), h.Results.List)
	scoped.PUT("/results", middleware.Require(middleware.PermFinalizeResults), h.Results.Upsert)
	scoped.POST("/results/bulk", middleware.Require(middleware.PermFinalizeResults), h.Results.Publish)
	scoped.DELETE("/results/:id", middleware.Require(middleware.PermFinalizeResults), h.Results.Delete)

	scoped.GET("/events", middleware.Require(middleware.PermViewEvents), h.Events.List)
	scoped.GET("/events/:id", middleware.Require(middleware.PermViewEvents), h.Events.Get)
	scoped.POST("/events", middleware.Require(middleware.PermManageEvents), h.Events.Create)
	scoped.PUT("/events/:id", middleware.Require(middleware.PermManageEvents), h.Events.Update)
	scoped.DELETE("/events/:id", middleware.Require(middleware.PermManageEvents), h.Events.Delete)
}

// RegisterHealth mounts liveness and readiness probes outside the API prefix.
func RegisterHealth(r *gin.Engine, readiness func() error) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := readiness(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}
