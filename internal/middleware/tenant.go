package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
	"github.com/noah-isme/sma-routine-api/pkg/response"
)

// TenantScope rejects requests whose path school differs from the token's school.
// Platform superadmins may act on any school.
func TenantScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		schoolID := c.Param(param)
		if schoolID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "school id is required"))
			c.Abort()
			return
		}
		if claims.Role != models.RoleSuperAdmin && claims.SchoolID != schoolID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token is not valid for this school"))
			c.Abort()
			return
		}
		c.Next()
	}
}
