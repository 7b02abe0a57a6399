package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/otcheredev/medpres-client/internal/adapters"
)

// Pinger reports whether a dependency answers.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	backend  adapters.Backend
	database Pinger
}

// NewHealthHandler creates a health handler. database may be nil when no
// audit database is configured.
func NewHealthHandler(backend adapters.Backend, database Pinger) *HealthHandler {
	return &HealthHandler{backend: backend, database: database}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Mode      string            `json:"mode"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := healthResponse{
		Status:    "healthy",
		Mode:      h.backend.Mode(),
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	// Check backend
	if err := h.backend.Ping(ctx); err != nil {
		response.Services["backend"] = "unhealthy"
		response.Status = "degraded"
	} else {
		response.Services["backend"] = "healthy"
	}

	if h.database != nil {
		if err := h.database(ctx); err != nil {
			response.Services["database"] = "unhealthy"
			response.Status = "degraded"
		} else {
			response.Services["database"] = "healthy"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		http.Error(w, "Service not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
