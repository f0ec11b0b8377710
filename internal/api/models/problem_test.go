package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawapahchan/dawapahchan/internal/api/models"
)

func TestProblemWrite(t *testing.T) {
	p := models.NewBadRequest("req_123", "validation failed", []models.FieldError{
		{Field: "age", Message: "must be a positive integer"},
	})
	p.Instance = "/api/profile"

	rec := httptest.NewRecorder()
	p.Write(rec)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req_123", rec.Header().Get("X-Request-Id"))

	var decoded models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, models.ProblemTypeValidation, decoded.Type)
	assert.Equal(t, http.StatusBadRequest, decoded.Status)
	assert.Equal(t, "/api/profile", decoded.Instance)
	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, "age", decoded.Errors[0].Field)
}

func TestProblemConstructors(t *testing.T) {
	tests := []struct {
		name       string
		problem    *models.Problem
		wantType   string
		wantStatus int
	}{
		{"not found", models.NewNotFound("t", "profile"), models.ProblemTypeNotFound, http.StatusNotFound},
		{"payload too large", models.NewPayloadTooLarge("t", "image exceeds limit"), models.ProblemTypePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"too many requests", models.NewTooManyRequests("t", "slow down"), models.ProblemTypeTooManyRequests, http.StatusTooManyRequests},
		{"internal", models.NewInternalError("t", "boom"), models.ProblemTypeInternal, http.StatusInternalServerError},
		{"unavailable", models.NewServiceUnavailable("t", "backend down"), models.ProblemTypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.problem.Type)
			assert.Equal(t, tt.wantStatus, tt.problem.Status)
			assert.Equal(t, "t", tt.problem.TraceID)
		})
	}
}
