package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salaedu/sala-api/internal/service"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
	"github.com/salaedu/sala-api/pkg/query"
	"github.com/salaedu/sala-api/pkg/response"
)

// PrincipalHandler exposes principal directory endpoints. Admin only.
type PrincipalHandler struct {
	principals *service.PrincipalService
}

// NewPrincipalHandler constructs PrincipalHandler.
func NewPrincipalHandler(principals *service.PrincipalService) *PrincipalHandler {
	return &PrincipalHandler{principals: principals}
}

// List godoc
// @Summary List principals
// @Tags Principals
// @Produce json
// @Security BearerAuth
// @Param school_id query string false "Filter by school"
// @Param search query string false "Search name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /principals [get]
func (h *PrincipalHandler) List(c *gin.Context) {
	params := c.Request.URL.Query()
	principals, total, err := h.principals.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := query.PageParams(params, 25)
	response.JSON(c, http.StatusOK, principals, &response.Pagination{Page: page, Limit: limit, TotalCount: total})
}

// Get godoc
// @Summary Get principal detail
// @Tags Principals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Principal ID"
// @Success 200 {object} response.Envelope
// @Router /principals/{id} [get]
func (h *PrincipalHandler) Get(c *gin.Context) {
	principal, err := h.principals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, principal)
}

// AssignSchool godoc
// @Summary Assign or detach a principal's school
// @Tags Principals
// @Accept json
// @Security BearerAuth
// @Param id path string true "Principal ID"
// @Param payload body assignSchoolRequest true "School assignment"
// @Success 204 "assigned"
// @Router /principals/{id}/school [put]
func (h *PrincipalHandler) AssignSchool(c *gin.Context) {
	var req assignSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.principals.AssignSchool(c.Request.Context(), c.Param("id"), req.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
