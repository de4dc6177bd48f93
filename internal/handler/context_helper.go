package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-routine-api/internal/middleware"
	"github.com/noah-isme/sma-routine-api/internal/models"
)

// SchoolParam is the path parameter every tenant route is mounted under.
const SchoolParam = "schoolId"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

func schoolFromContext(c *gin.Context) string {
	return c.Param(SchoolParam)
}

func respondMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{"cache_hit": hit}
	}
	return meta
}
