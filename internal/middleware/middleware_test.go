package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

type validatorStub map[string]*models.JWTClaims

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type observerStub struct {
	paths    []string
	statuses []int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.paths = append(o.paths, path)
	o.statuses = append(o.statuses, status)
}

func newScopedRouter(tokens tokenValidator, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/schools/:schoolId", JWT(tokens), TenantScope("schoolId"), RequireRoles(roles...))
	group.GET("/ping", func(c *gin.Context) {
		claims, _ := Claims(c)
		c.String(http.StatusOK, claims.UserID)
	})
	return router
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestScopedRouteAccess(t *testing.T) {
	tokens := validatorStub{
		"admin": {UserID: "u-admin", Role: models.RoleAdmin, SchoolID: "school-1"},
		"other": {UserID: "u-other", Role: models.RoleAdmin, SchoolID: "school-2"},
		"root":  {UserID: "u-root", Role: models.RoleSuperAdmin},
		"pupil": {UserID: "u-pupil", Role: models.RoleStudent, SchoolID: "school-1"},
	}
	router := newScopedRouter(tokens, models.RoleAdmin, models.RoleStaff)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "malformed header", header: "Token admin", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "unknown token", header: "Bearer nope", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "other tenant", header: "Bearer other", status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "role not allowed", header: "Bearer pupil", status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "same tenant", header: "Bearer admin", status: http.StatusOK},
		{name: "superadmin any tenant", header: "bearer root", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/schools/school-1/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, rec))
			}
		})
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/schools/:schoolId/schedules", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/schools/a/schedules", "/schools/b/schedules", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []string{"/schools/:schoolId/schedules", "/schools/:schoolId/schedules", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusNotFound}, observer.statuses)
}

func TestResponseMetaCacheFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	require.NotNil(t, meta)
	assert.Equal(t, true, meta[cacheHitKey])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if meta := ExtractMeta(c); meta != nil {
		t.Fatalf("expected no meta, got %v", meta)
	}
}
