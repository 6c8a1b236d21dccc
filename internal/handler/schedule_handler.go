package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salaedu/sala-api/internal/service"
	"github.com/salaedu/sala-api/pkg/query"
	"github.com/salaedu/sala-api/pkg/response"
)

// ScheduleHandler exposes schedule read endpoints. Schedules are written
// through the class endpoints so assignments and notifications stay in step.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// List godoc
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param class_id query string false "Filter by class"
// @Param teacher_id query string false "Filter by teacher"
// @Param subject_id query string false "Filter by subject"
// @Param day_of_week query string false "Filter by day"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	params := c.Request.URL.Query()
	schedules, total, err := h.schedules.List(c.Request.Context(), params, scopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := query.PageParams(params, 50)
	response.JSON(c, http.StatusOK, schedules, &response.Pagination{Page: page, Limit: limit, TotalCount: total})
}
