package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/internal/service"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
	"github.com/salaedu/sala-api/pkg/query"
	"github.com/salaedu/sala-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	scopes     *service.ScopeService
	metrics    *service.MetricsService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, scopes *service.ScopeService, metrics *service.MetricsService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, scopes: scopes, metrics: metrics}
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param class_id query string false "Filter by class"
// @Param student_id query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param date query string false "Filter by date"
// @Param date_from query string false "Range start"
// @Param date_to query string false "Range end"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	params := c.Request.URL.Query()
	if principal, ok := principalFromContext(c); ok && principal.Role == models.RoleStudent {
		studentID, err := h.scopes.StudentID(c.Request.Context(), principal)
		if err != nil {
			response.Error(c, err)
			return
		}
		params.Set("student_id", studentID)
	}
	records, total, err := h.attendance.List(c.Request.Context(), params, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := query.PageParams(params, 50)
	response.JSON(c, http.StatusOK, records, &response.Pagination{Page: page, Limit: limit, TotalCount: total})
}

// Mine godoc
// @Summary List the caller's own attendance records
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date_from query string false "Range start"
// @Param date_to query string false "Range end"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance/me [get]
func (h *AttendanceHandler) Mine(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	studentID, err := h.scopes.StudentID(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	params := c.Request.URL.Query()
	params.Set("student_id", studentID)
	records, total, err := h.attendance.List(c.Request.Context(), params, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := query.PageParams(params, 50)
	response.JSON(c, http.StatusOK, records, &response.Pagination{Page: page, Limit: limit, TotalCount: total})
}

// BulkRecord godoc
// @Summary Record attendance for a class in one batch
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.BulkAttendanceRequest true "Attendance batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) BulkRecord(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	teacherID, err := h.scopes.TeacherID(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	written, err := h.attendance.BulkRecord(c.Request.Context(), req, teacherID, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveBulkWrite("attendance", written)
	response.OK(c, gin.H{"rows_written": written})
}

// StudentSummary godoc
// @Summary Attendance counts per status for one student in a class
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param class_id query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/students/{studentId}/summary [get]
func (h *AttendanceHandler) StudentSummary(c *gin.Context) {
	if !ensureOwnStudent(c, h.scopes, c.Param("studentId")) {
		return
	}
	summary, err := h.attendance.StudentSummary(c.Request.Context(), c.Param("studentId"), c.Query("class_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
