package api

import (
	"context"
	"net/http"
	"time"

	"github.com/iammorganparry/transmem/internal/memory"
	"github.com/iammorganparry/transmem/internal/models"
	"github.com/iammorganparry/transmem/internal/provider"
	"github.com/iammorganparry/transmem/internal/store"
)

type HealthHandler struct {
	db       *store.DB              // nil when persistence is disabled
	provider provider.HealthChecker // nil when translation is disabled
	svc      *memory.Service
}

func NewHealthHandler(db *store.DB, p provider.HealthChecker, svc *memory.Service) *HealthHandler {
	return &HealthHandler{db: db, provider: p, svc: svc}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:     "ok",
		EntryCount: h.svc.EntryCount(),
	}

	// Check provider
	if h.provider == nil {
		resp.Provider = models.ServiceCheck{Status: "disabled"}
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.provider.HealthCheck(ctx); err != nil {
			resp.Provider = models.ServiceCheck{Status: "error", Message: err.Error()}
			resp.Status = "degraded"
		} else {
			resp.Provider = models.ServiceCheck{Status: "ok"}
		}
	}

	// Check DB
	if h.db == nil {
		resp.DB = models.ServiceCheck{Status: "disabled"}
	} else if _, err := h.db.EntryCount(); err != nil {
		resp.DB = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.DB = models.ServiceCheck{Status: "ok"}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
