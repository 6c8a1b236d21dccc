package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/internal/service"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
	"github.com/salaedu/sala-api/pkg/query"
	"github.com/salaedu/sala-api/pkg/response"
)

// ScoreHandler exposes score and report endpoints.
type ScoreHandler struct {
	scores  *service.ScoreService
	scopes  *service.ScopeService
	metrics *service.MetricsService
}

// NewScoreHandler constructs ScoreHandler.
func NewScoreHandler(scores *service.ScoreService, scopes *service.ScopeService, metrics *service.MetricsService) *ScoreHandler {
	return &ScoreHandler{scores: scores, scopes: scopes, metrics: metrics}
}

// List godoc
// @Summary List scores
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Filter by student"
// @Param class_id query string false "Filter by class"
// @Param subject_id query string false "Filter by subject"
// @Param assessment_type query string false "Filter by assessment type"
// @Param date_from query string false "Range start"
// @Param date_to query string false "Range end"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /scores [get]
func (h *ScoreHandler) List(c *gin.Context) {
	params := c.Request.URL.Query()
	if principal, ok := principalFromContext(c); ok && principal.Role == models.RoleStudent {
		studentID, err := h.scopes.StudentID(c.Request.Context(), principal)
		if err != nil {
			response.Error(c, err)
			return
		}
		params.Set("student_id", studentID)
	}
	scores, total, err := h.scores.List(c.Request.Context(), params, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := query.PageParams(params, 50)
	response.JSON(c, http.StatusOK, scores, &response.Pagination{Page: page, Limit: limit, TotalCount: total})
}

// BulkRecord godoc
// @Summary Record scores for a subject in one batch
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.BulkScoreRequest true "Score batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scores/bulk [post]
func (h *ScoreHandler) BulkRecord(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.BulkScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	teacherID, err := h.scopes.TeacherID(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	written, err := h.scores.BulkRecord(c.Request.Context(), req, teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveBulkWrite("scores", written)
	response.OK(c, gin.H{"rows_written": written})
}

// Delete godoc
// @Summary Delete a score
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param id path string true "Score ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /scores/{id} [delete]
func (h *ScoreHandler) Delete(c *gin.Context) {
	if err := h.scores.Delete(c.Request.Context(), c.Param("id"), scopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Standings godoc
// @Summary Ranked score report for a class or a whole school
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param class_id query string false "Class to report on"
// @Param school_id query string false "School to report on"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scores/report [get]
func (h *ScoreHandler) Standings(c *gin.Context) {
	report, err := h.scores.Standings(c.Request.Context(), c.Query("class_id"), c.Query("school_id"), scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Report godoc
// @Summary Per-subject averages and grades for a student
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /scores/students/{studentId}/report [get]
func (h *ScoreHandler) Report(c *gin.Context) {
	if !ensureOwnStudent(c, h.scopes, c.Param("studentId")) {
		return
	}
	report, err := h.scores.Report(c.Request.Context(), c.Param("studentId"), scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// ExportReport godoc
// @Summary Download a student report as CSV or PDF
// @Tags Scores
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /scores/students/{studentId}/report/export [get]
func (h *ScoreHandler) ExportReport(c *gin.Context) {
	if !ensureOwnStudent(c, h.scopes, c.Param("studentId")) {
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	data, contentType, err := h.scores.ExportReport(c.Request.Context(), c.Param("studentId"), format, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s.%s", c.Param("studentId"), format))
	c.Data(http.StatusOK, contentType, data)
}
