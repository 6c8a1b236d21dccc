package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/internal/service"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
	"github.com/salaedu/sala-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated principal.
const ContextUserKey = "currentUser"

// ContextScopeKey is the gin context key storing the resolved tenant scope.
const ContextScopeKey = "currentScope"

// JWT protects routes by requiring a valid access token.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, models.Principal{
			UserID: claims.UserID,
			Role:   claims.Role,
			Email:  claims.Email,
		})
		c.Next()
	}
}

// Scope resolves the tenant boundary for the authenticated principal and
// stores it for handlers. Must run after JWT.
func Scope(scopeService *service.ScopeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principalValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		principal := principalValue.(models.Principal)

		scope, err := scopeService.Resolve(c.Request.Context(), principal)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextScopeKey, scope)
		c.Next()
	}
}
