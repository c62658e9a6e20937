package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-oracle/pkg/config"
)

const readyTimeout = 5 * time.Second

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthResponse reports liveness together with a pool snapshot.
type HealthResponse struct {
	Status string                `json:"status"`
	Type   string                `json:"type,omitempty"`
	Pool   *datasource.PoolStats `json:"pool,omitempty"`
}

// HealthHandler serves liveness, readiness and ping endpoints.
type HealthHandler struct {
	cfg    *config.Config
	pool   datasource.PoolConnector
	logger *zap.Logger
}

// NewHealthHandler creates a HealthHandler. pool may be nil, in which case
// /health omits pool stats and /ready always succeeds.
func NewHealthHandler(cfg *config.Config, pool datasource.PoolConnector, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{cfg: cfg, pool: pool, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
// It never touches the database; stats come from the pool's bookkeeping.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{Status: "ok"}
	if h.pool != nil {
		stats := h.pool.Stats()
		response.Type = h.pool.GetType()
		response.Pool = &stats
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("failed to encode health response", zap.Error(err))
	}
}

// Ready handles GET /ready requests by pinging the pool.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := h.pool.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("type", h.pool.GetType()), zap.Error(err))
			if err := WriteAppError(w, err); err != nil {
				h.logger.Error("failed to encode readiness response", zap.Error(err))
			}
			return
		}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"}); err != nil {
		h.logger.Error("failed to encode readiness response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "ekaya-oracle",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("failed to encode ping response", zap.Error(err))
	}
}
