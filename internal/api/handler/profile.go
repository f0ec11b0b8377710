package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dawapahchan/dawapahchan/internal/api/models"
	"github.com/dawapahchan/dawapahchan/internal/api/response"
	"github.com/dawapahchan/dawapahchan/internal/profile"
)

// ProfileStoreFactory returns the profile store for one device. Devices are
// identified by the X-Device-Id header the app generates on first launch.
type ProfileStoreFactory func(deviceID string) profile.Store

// ProfileHandler handles patient profile endpoints.
type ProfileHandler struct {
	stores ProfileStoreFactory
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(stores ProfileStoreFactory) *ProfileHandler {
	return &ProfileHandler{stores: stores}
}

// GetProfile handles GET /api/profile - load the device's patient profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	deviceID := r.Header.Get("X-Device-Id")
	if deviceID == "" {
		response.BadRequest(w, r, "X-Device-Id header is required", nil)
		return
	}

	p, err := h.stores(deviceID).Load(r.Context())
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			response.NotFound(w, r, "profile")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, p)
}

// UpsertProfile handles PUT /api/profile - create or update the profile.
func (h *ProfileHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	deviceID := r.Header.Get("X-Device-Id")
	if deviceID == "" {
		response.BadRequest(w, r, "X-Device-Id header is required", nil)
		return
	}

	var input profile.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	p, err := input.Normalize()
	if err != nil {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: profile.Field(err), Message: err.Error()},
		})
		return
	}

	if err := h.stores(deviceID).Save(r.Context(), p); err != nil {
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, p)
}
