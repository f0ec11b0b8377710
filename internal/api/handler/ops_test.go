package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawapahchan/dawapahchan/internal/api/handler"
	"github.com/dawapahchan/dawapahchan/internal/api/models"
	"github.com/dawapahchan/dawapahchan/internal/offline"
)

// brokenStore fails every operation, standing in for an unreachable Valkey.
type brokenStore struct{}

func (brokenStore) Names(context.Context) ([]string, error) { return nil, errors.New("store down") }
func (brokenStore) Delete(context.Context, string) error    { return errors.New("store down") }
func (brokenStore) Get(context.Context, string, string) (*offline.Entry, error) {
	return nil, errors.New("store down")
}
func (brokenStore) Put(context.Context, string, string, *offline.Entry) error {
	return errors.New("store down")
}
func (brokenStore) Current(context.Context) (string, error) { return "", errors.New("store down") }
func (brokenStore) Promote(context.Context, string) error   { return errors.New("store down") }

func TestHealthCheck_ReportsVersion(t *testing.T) {
	h := handler.NewOpsHandler("1.4.0", "2026-08-01T00:00:00Z", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "1.4.0", health.Details["version"])
}

func TestReadinessCheck_FailsWhenStoreDown(t *testing.T) {
	h := handler.NewOpsHandler("test", "now", brokenStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ops/ready", http.NoBody)
	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusFail, health.Status)
	assert.Contains(t, health.Details, "cache")
}

func TestSystemStatus_ReportsCurrentGeneration(t *testing.T) {
	store := offline.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "dawa-v3", "/", &offline.Entry{Status: 200}))
	require.NoError(t, store.Promote(context.Background(), "dawa-v3"))

	h := handler.NewOpsHandler("test", "now", store, nil)

	req := httptest.NewRequest(http.MethodGet, "/ops/status", http.NoBody)
	rec := httptest.NewRecorder()
	h.SystemStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.Equal(t, "dawa-v3", status.CacheGeneration)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, "cache-store", status.Subsystems[0].Name)
}

func TestSystemStatus_DegradedWhenStoreDown(t *testing.T) {
	h := handler.NewOpsHandler("test", "now", brokenStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ops/status", http.NoBody)
	rec := httptest.NewRecorder()
	h.SystemStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusDegraded, status.Status)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, models.HealthStatusFail, status.Subsystems[0].Status)
}
