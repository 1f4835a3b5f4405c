package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/service"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/storage"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/webui"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Actions are the operator actions exposed over HTTP
type Actions interface {
	TriggerAlert(ctx context.Context) (string, error)
	SimulateFailure(ctx context.Context, agent string) error
	Reset(ctx context.Context) error
}

// Alerts reads tracked alert instances
type Alerts interface {
	Active() (*model.AlertInstance, bool)
	List() []*model.AlertInstance
}

// History reads the event history
type History interface {
	List(ctx context.Context, filter storage.Filter, offset, limit int) ([]*storage.EventRecord, error)
	Count(ctx context.Context, filter storage.Filter) (int, error)
}

// Metrics reads the current metrics snapshot
type Metrics interface {
	Snapshot() model.MetricsSnapshot
}

// Schedules lists the cron schedules
type Schedules interface {
	ListSchedules() []*model.Schedule
}

// EventSubscriber delivers mesh events
type EventSubscriber interface {
	SubscribeEvents(ctx context.Context, handler func(model.Event)) error
}

// Config holds the HTTP server settings
type Config struct {
	Addr              string
	AppName           string
	HeartbeatInterval time.Duration
}

// Deps are the components behind the endpoints. History, Metrics and
// Schedules may be nil.
type Deps struct {
	Actions   Actions
	Alerts    Alerts
	History   History
	Metrics   Metrics
	Schedules Schedules
}

// Server provides the HTTP API, the event stream and the status page
type Server struct {
	logger *zap.Logger
	config Config
	deps   Deps
	hub    *Hub
	srv    *http.Server
}

// NewServer creates a new API server
func NewServer(config Config, deps Deps, logger *zap.Logger) *Server {
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 15 * time.Second
	}
	if config.AppName == "" {
		config.AppName = "AMBER Alert Mesh"
	}
	s := &Server{
		logger: logger.Named("api"),
		config: config,
		deps:   deps,
		hub:    NewHub(logger),
	}
	s.srv = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Hub returns the event fan-out feeding /api/events
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/trigger-alert", s.handleTrigger)
	mux.HandleFunc("/api/simulate-failure", s.handleSimulateFailure)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/schedules", s.handleSchedules)

	// Web UI
	mux.HandleFunc("/", s.handleWebUI)

	return mux
}

// Start subscribes the stream hub to the mesh and serves HTTP until
// Shutdown is called
func (s *Server) Start(ctx context.Context, bus EventSubscriber) error {
	if err := bus.SubscribeEvents(ctx, s.hub.Broadcast); err != nil {
		return fmt.Errorf("failed to subscribe event stream: %w", err)
	}

	// request contexts end with ctx so open streams close on shutdown
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	s.logger.Info("Starting API server", zap.String("address", s.config.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// handleHealth returns service health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleEvents streams mesh events as server-sent events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	s.logger.Debug("Stream client connected", zap.String("remote", r.RemoteAddr))
	defer s.logger.Debug("Stream client disconnected", zap.String("remote", r.RemoteAddr))

	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-events:
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

// handleTrigger starts a new alert
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	alertID, err := s.deps.Actions.TriggerAlert(r.Context())
	if err != nil {
		s.logger.Error("Failed to trigger alert", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"alertId": alertID,
	})
}

type failureRequest struct {
	Agent string `json:"agent"`
}

// handleSimulateFailure fails the agent named in the request body
func (s *Server) handleSimulateFailure(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req failureRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.deps.Actions.SimulateFailure(r.Context(), req.Agent); err != nil {
		if errors.Is(err, service.ErrUnknownAgent) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Failed to simulate failure", zap.String("agent", req.Agent), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"agent":   req.Agent,
	})
}

// handleReset resets alerts, history and agents
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.deps.Actions.Reset(r.Context()); err != nil {
		s.logger.Error("Failed to reset", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleState returns the active alert instance, or an idle one
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	inst, ok := s.deps.Alerts.Active()
	if !ok {
		inst = model.NewAlertInstance("", time.Now())
	}
	writeJSON(w, http.StatusOK, inst)
}

// handleAlerts returns every tracked alert instance
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	alerts := s.deps.Alerts.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

// handleHistory pages through the event history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.deps.History == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}

	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case limit == 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := storage.Filter{
		Type:    r.URL.Query().Get("type"),
		AlertID: r.URL.Query().Get("alert_id"),
		From:    r.URL.Query().Get("from"),
	}

	records, err := s.deps.History.List(r.Context(), filter, offset, limit)
	if err != nil {
		s.logger.Error("Failed to list history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.deps.History.Count(r.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to count history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": records,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleMetrics returns the latest metrics snapshot
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.deps.Metrics == nil {
		writeError(w, http.StatusNotFound, "metrics disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Metrics.Snapshot())
}

// handleSchedules lists the cron schedules
func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	schedules := []*model.Schedule{}
	if s.deps.Schedules != nil {
		schedules = s.deps.Schedules.ListSchedules()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// handleWebUI renders the status page
func (s *Server) handleWebUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	inst, _ := s.deps.Alerts.Active()
	data := webui.NewPageData(s.config.AppName, inst)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webui.Templates.ExecuteTemplate(w, "base", data); err != nil {
		s.logger.Error("Failed to render template", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
