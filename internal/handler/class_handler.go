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

// ClassHandler exposes class and enrollment endpoints.
type ClassHandler struct {
	classes   *service.ClassService
	schedules *service.ScheduleService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService, schedules *service.ScheduleService) *ClassHandler {
	return &ClassHandler{classes: classes, schedules: schedules}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param school_id query string false "Filter by school"
// @Param academic_year query string false "Filter by academic year"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	params := c.Request.URL.Query()
	classes, total, err := h.classes.List(c.Request.Context(), params, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := query.PageParams(params, 25)
	response.JSON(c, http.StatusOK, classes, &response.Pagination{Page: page, Limit: limit, TotalCount: total})
}

// Get godoc
// @Summary Get class detail with schedules and roster
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"), scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, class)
}

// Create godoc
// @Summary Create class with schedules and teacher assignments
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req models.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class, optionally replacing its schedules
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body models.UpdateClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req models.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Update(c.Request.Context(), c.Param("id"), req, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, class)
}

// Delete godoc
// @Summary Delete class with its schedules and enrollments
// @Tags Classes
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 204 "deleted"
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.classes.Delete(c.Request.Context(), c.Param("id"), scopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// EnrollStudents godoc
// @Summary Enroll students into a class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body models.EnrollStudentsRequest true "Student IDs"
// @Success 204 "enrolled"
// @Router /classes/{id}/students [post]
func (h *ClassHandler) EnrollStudents(c *gin.Context) {
	var req models.EnrollStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.classes.EnrollStudents(c.Request.Context(), c.Param("id"), req, scopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveStudent godoc
// @Summary Remove a student from a class
// @Tags Classes
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 204 "removed"
// @Router /classes/{id}/students/{studentId} [delete]
func (h *ClassHandler) RemoveStudent(c *gin.Context) {
	if err := h.classes.RemoveStudent(c.Request.Context(), c.Param("id"), c.Param("studentId"), scopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Schedules godoc
// @Summary List the schedules of a class
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/schedules [get]
func (h *ClassHandler) Schedules(c *gin.Context) {
	if _, err := h.classes.Get(c.Request.Context(), c.Param("id"), scopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	schedules, err := h.schedules.ListByClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedules)
}
