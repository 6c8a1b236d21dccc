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

// AcademicResultHandler exposes finalized period result endpoints.
type AcademicResultHandler struct {
	results *service.AcademicResultService
	metrics *service.MetricsService
}

// NewAcademicResultHandler constructs AcademicResultHandler.
func NewAcademicResultHandler(results *service.AcademicResultService, metrics *service.MetricsService) *AcademicResultHandler {
	return &AcademicResultHandler{results: results, metrics: metrics}
}

// List godoc
// @Summary List academic results
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Filter by student"
// @Param class_id query string false "Filter by class"
// @Param subject_id query string false "Filter by subject"
// @Param period query string false "Filter by period"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /results [get]
func (h *AcademicResultHandler) List(c *gin.Context) {
	params := c.Request.URL.Query()
	results, total, err := h.results.List(c.Request.Context(), params, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := query.PageParams(params, 50)
	response.JSON(c, http.StatusOK, results, &response.Pagination{Page: page, Limit: limit, TotalCount: total})
}

// Upsert godoc
// @Summary Finalize a period result, inserting or replacing by key
// @Tags Results
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpsertAcademicResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Router /results [put]
func (h *AcademicResultHandler) Upsert(c *gin.Context) {
	var req models.UpsertAcademicResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.results.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Publish godoc
// @Summary Publish period results for a class and subject in one batch
// @Tags Results
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.PublishResultsRequest true "Result batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /results/bulk [post]
func (h *AcademicResultHandler) Publish(c *gin.Context) {
	var req models.PublishResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	written, err := h.results.Publish(c.Request.Context(), req, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveBulkWrite("results", written)
	response.OK(c, gin.H{"rows_written": written})
}

// Delete godoc
// @Summary Delete an academic result
// @Tags Results
// @Security BearerAuth
// @Param id path string true "Result ID"
// @Success 204 "deleted"
// @Router /results/{id} [delete]
func (h *AcademicResultHandler) Delete(c *gin.Context) {
	if err := h.results.Delete(c.Request.Context(), c.Param("id"), scopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
