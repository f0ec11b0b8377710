// Package handler provides HTTP handlers for the gateway API.
package handler

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker/v2"

	"github.com/dawapahchan/dawapahchan/internal/api/models"
	"github.com/dawapahchan/dawapahchan/internal/api/response"
	"github.com/dawapahchan/dawapahchan/internal/offline"
	"github.com/dawapahchan/dawapahchan/internal/upstream"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	store     offline.Store
	pool      *pgxpool.Pool
	upstreams []*upstream.Client
}

// NewOpsHandler creates a new OpsHandler. The store, pool and upstream
// clients are optional; readiness and status skip what is absent.
func NewOpsHandler(version, buildTime string, store offline.Store, pool *pgxpool.Pool, upstreams ...*upstream.Client) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		store:     store,
		pool:      pool,
		upstreams: upstreams,
	}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /ops/ready - readiness check. The gateway is
// ready when the profile database and the cache store answer.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	details := map[string]interface{}{}
	status := models.HealthStatusOK

	if h.pool != nil {
		if err := h.pool.Ping(r.Context()); err != nil {
			status = models.HealthStatusFail
			details["database"] = err.Error()
		}
	}
	if h.store != nil {
		if _, err := h.store.Current(r.Context()); err != nil {
			status = models.HealthStatusFail
			details["cache"] = err.Error()
		}
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	if len(details) > 0 {
		health.Details = details
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /ops/status - cache generation, subsystem and
// upstream status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{},
		Upstreams:  []models.UpstreamStatus{},
	}

	if h.pool != nil {
		sub := models.SubsystemStatus{Name: "profile-db", Status: models.HealthStatusOK}
		if err := h.pool.Ping(r.Context()); err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			status.Status = models.HealthStatusDegraded
		}
		status.Subsystems = append(status.Subsystems, sub)
	}

	if h.store != nil {
		sub := models.SubsystemStatus{Name: "cache-store", Status: models.HealthStatusOK}
		current, err := h.store.Current(r.Context())
		if err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			status.Status = models.HealthStatusDegraded
		} else {
			status.CacheGeneration = current
		}
		status.Subsystems = append(status.Subsystems, sub)
	}

	for _, client := range h.upstreams {
		status.Upstreams = append(status.Upstreams, upstreamStatus(client))
		if client.BreakerState() == gobreaker.StateOpen {
			status.Status = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func upstreamStatus(client *upstream.Client) models.UpstreamStatus {
	snap := client.Health().Snapshot()
	state := client.BreakerState()

	us := models.UpstreamStatus{
		Name:         snap.Name,
		Status:       models.HealthStatusOK,
		BreakerState: state.String(),
	}
	switch state {
	case gobreaker.StateOpen:
		us.Status = models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		us.Status = models.HealthStatusDegraded
	}
	if snap.LastSuccessAt != nil {
		ts := models.Timestamp(*snap.LastSuccessAt)
		us.LastSuccessAt = &ts
	}
	if snap.LastFailureAt != nil {
		ts := models.Timestamp(*snap.LastFailureAt)
		us.LastFailureAt = &ts
	}
	if snap.LastError != "" {
		msg := snap.LastError
		us.Message = &msg
	}
	return us
}
