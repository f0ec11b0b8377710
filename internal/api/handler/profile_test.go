package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawapahchan/dawapahchan/internal/api/handler"
	"github.com/dawapahchan/dawapahchan/internal/api/models"
	"github.com/dawapahchan/dawapahchan/internal/profile"
)

func singleDeviceFactory(store profile.Store) handler.ProfileStoreFactory {
	return func(string) profile.Store { return store }
}

func TestUpsertProfile_RejectsMissingAge(t *testing.T) {
	h := handler.NewProfileHandler(singleDeviceFactory(profile.NewMemoryStore()))

	req := httptest.NewRequest(http.MethodPut, "/api/profile",
		strings.NewReader(`{"age":"","gender":"male"}`))
	req.Header.Set("X-Device-Id", "device-a")
	rec := httptest.NewRecorder()
	h.UpsertProfile(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "age", problem.Errors[0].Field)
}

func TestUpsertProfile_ClearsPregnantForMaleProfile(t *testing.T) {
	store := profile.NewMemoryStore()
	h := handler.NewProfileHandler(singleDeviceFactory(store))

	req := httptest.NewRequest(http.MethodPut, "/api/profile",
		strings.NewReader(`{"age":"40","gender":"male","pregnant":true}`))
	req.Header.Set("X-Device-Id", "device-a")
	rec := httptest.NewRecorder()
	h.UpsertProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var p profile.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.False(t, p.Pregnant)
}

func TestGetProfile_RequiresDeviceHeader(t *testing.T) {
	h := handler.NewProfileHandler(singleDeviceFactory(profile.NewMemoryStore()))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", http.NoBody)
	rec := httptest.NewRecorder()
	h.GetProfile(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
