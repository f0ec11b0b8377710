package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawapahchan/dawapahchan/internal/api/models"
	"github.com/dawapahchan/dawapahchan/internal/api/response"
)

func TestJSON_WritesBodyAndHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"status": "OK"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
}

func TestJSON_NilBodyWritesNothing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusAccepted, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestErrorHelpers_SetInstance(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/profile", http.NoBody)
	rec := httptest.NewRecorder()

	response.BadRequest(rec, req, "validation failed", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/api/profile", problem.Instance)
	assert.Equal(t, "validation failed", problem.Detail)
}
