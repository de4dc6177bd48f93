package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestJSONRendersEnvelope(t *testing.T) {
	c, rec := newContext()
	JSON(c, http.StatusOK, []string{"plan-1"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, map[string]interface{}{"cache_hit": true})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"plan-1"}, body["data"])
	assert.NotNil(t, body["pagination"])
	assert.Equal(t, map[string]interface{}{"cache_hit": true}, body["meta"])
	assert.NotContains(t, body, "error")
}

func TestCreatedOmitsOptionalFields(t *testing.T) {
	c, rec := newContext()
	Created(c, map[string]string{"id": "slot-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "meta")
	assert.NotContains(t, body, "pagination")
}

func TestErrorHidesInternalCause(t *testing.T) {
	c, rec := newContext()
	Error(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)

	c, rec = newContext()
	Error(c, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move session from CONDUCTED to SCHEDULED"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TRANSITION")
	assert.Empty(t, c.Errors)
}
