package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/salaedu/sala-api/internal/middleware"
	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/internal/service"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
	"github.com/salaedu/sala-api/pkg/response"
)

func principalFromContext(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := value.(models.Principal)
	return principal, ok
}

func scopeFromContext(c *gin.Context) *models.Scope {
	value, exists := c.Get(middleware.ContextScopeKey)
	if !exists {
		return &models.Scope{Restricted: true}
	}
	scope, ok := value.(*models.Scope)
	if !ok {
		return &models.Scope{Restricted: true}
	}
	return scope
}

// ensureOwnStudent rejects a student targeting another student's records.
// It writes the error response itself and reports whether to continue.
func ensureOwnStudent(c *gin.Context, scopes *service.ScopeService, studentID string) bool {
	principal, ok := principalFromContext(c)
	if !ok || principal.Role != models.RoleStudent {
		return true
	}
	own, err := scopes.StudentID(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if own != studentID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "you can only view your own records"))
		return false
	}
	return true
}
