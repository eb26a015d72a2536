package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"post-analyzer/shared/logging"
	"post-analyzer/shared/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultRunsLimit = 20

// RunLister exposes recent pipeline runs.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]storage.RunRecord, error)
}

type HealthServer struct {
	monitor *Monitor
	runs    RunLister
	port    string
}

// NewHealthServer serves health, status and metrics. runs may be nil, in
// which case /runs is not registered.
func NewHealthServer(monitor *Monitor, runs RunLister, port string) *HealthServer {
	if port == "" {
		port = "8080"
	}
	return &HealthServer{
		monitor: monitor,
		runs:    runs,
		port:    port,
	}
}

// Handler returns the routes of the health server.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/status", h.statusHandler)
	if h.runs != nil {
		mux.HandleFunc("/runs", h.runsHandler)
	}
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start serves in the background. Shut the returned server down to stop it.
func (h *HealthServer) Start() *http.Server {
	srv := &http.Server{
		Addr:              ":" + h.port,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.L().Info("health server starting", zap.String("port", h.port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("health server error", zap.Error(err))
		}
	}()
	return srv
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
	}
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

func (h *HealthServer) runsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.runs.Recent(r.Context(), limit)
	if err != nil {
		logging.L().Error("failed to list runs", zap.Error(err))
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []storage.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.L().Warn("failed to encode response", zap.Error(err))
	}
}
