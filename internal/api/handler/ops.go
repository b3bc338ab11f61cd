// Package handler provides HTTP handlers for the AirAware API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/airaware/airaware/internal/api/models"
	"github.com/airaware/airaware/internal/api/response"
	"github.com/airaware/airaware/internal/provider/resilience"
)

// ReadyCheck verifies that a backing dependency is reachable. A nil check is
// treated as always ready.
type ReadyCheck func(ctx context.Context) error

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	checks    map[string]ReadyCheck
}

// NewOpsHandler creates a new OpsHandler. The checks map keys dependency
// names (e.g. "database") to readiness probes.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, checks map[string]ReadyCheck) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		checks:    checks,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
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

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Returns 503
// when any registered dependency probe fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := models.HealthStatusOK
	details := make(map[string]interface{}, len(h.checks))
	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			status = models.HealthStatusFail
			details[name] = err.Error()
		} else {
			details[name] = "ok"
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
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	for name, check := range h.checks {
		sub := models.SubsystemStatus{Name: name, Status: models.HealthStatusOK}
		if check != nil {
			if err := check(ctx); err != nil {
				msg := err.Error()
				sub.Status = models.HealthStatusFail
				sub.Detail = &msg
				status.Status = models.HealthStatusDegraded
			}
		}
		status.Subsystems = append(status.Subsystems, sub)
	}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider: ph.Name,
				Status:   models.HealthStatusOK,
			}
			switch {
			case ph.IsUnhealthy():
				ps.Status = models.HealthStatusFail
				status.Status = models.HealthStatusDegraded
			case ph.IsDegraded():
				ps.Status = models.HealthStatusDegraded
				status.Status = models.HealthStatusDegraded
			}
			if ph.LastSuccessAt != nil {
				ts := models.Timestamp(*ph.LastSuccessAt)
				ps.LastSuccessAt = &ts
			}
			if ph.LastFailureAt != nil {
				ts := models.Timestamp(*ph.LastFailureAt)
				ps.LastFailureAt = &ts
			}
			if ph.LastError != "" {
				msg := ph.LastError
				ps.Message = &msg
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}
