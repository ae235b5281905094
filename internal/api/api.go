// Package api exposes plan generation over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/p-n-ai/pai-planner/internal/export"
	"github.com/p-n-ai/pai-planner/internal/plan"
	"github.com/p-n-ai/pai-planner/internal/planner"
)

const (
	maxBodyBytes     = 1 << 20
	readinessTimeout = 2 * time.Second
	defaultListLimit = 20
)

// Checker is a dependency probed by the readiness endpoint.
type Checker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the API server.
type Config struct {
	Planner        *planner.Planner
	Store          plan.Store
	Events         plan.EventLogger
	Checkers       []Checker
	DefaultCountry string
}

// Server serves the plan API.
type Server struct {
	planner        *planner.Planner
	store          plan.Store
	events         plan.EventLogger
	checkers       []Checker
	defaultCountry string
	validator      *validator
}

// New creates an API server.
func New(cfg Config) (*Server, error) {
	if cfg.Planner == nil {
		return nil, fmt.Errorf("planner is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("plan store is required")
	}
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	events := cfg.Events
	if events == nil {
		events = plan.NopEventLogger{}
	}
	country := cfg.DefaultCountry
	if country == "" {
		country = planner.DefaultCountry
	}
	return &Server{
		planner:        cfg.Planner,
		store:          cfg.Store,
		events:         events,
		checkers:       cfg.Checkers,
		defaultCountry: country,
		validator:      v,
	}, nil
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("POST /v1/plans", s.handleCreatePlan)
	mux.HandleFunc("GET /v1/plans", s.handleListPlans)
	mux.HandleFunc("GET /v1/plans/{id}", s.handleGetPlan)
	mux.HandleFunc("GET /v1/plans/{id}/export.xlsx", s.handleExport)
	mux.HandleFunc("GET /v1/plans/{id}/stream", s.handleStream)
	mux.HandleFunc("GET /v1/plans/{id}/events", s.handlePlanEvents)
	return mux
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details ...string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := readyResponse{Status: "ready"}
	status := http.StatusOK
	for _, c := range s.checkers {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(s.checkers))
		}
		if err := c.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "dependency", c.Name(), "error", err)
			resp.Checks[c.Name()] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name()] = "ok"
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	details, err := s.validator.validate(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(details) > 0 {
		writeError(w, http.StatusBadRequest, "invalid profile", details...)
		return
	}

	var req ProfileRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile", err.Error())
		return
	}
	profile, err := req.Profile(s.defaultCountry)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile", err.Error())
		return
	}

	result := s.planner.Generate(r.Context(), profile)

	p := plan.Plan{Profile: body, Result: result, CreatedAt: time.Now()}
	id, err := s.store.CreatePlan(p)
	if err != nil {
		slog.Error("failed to store plan", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store plan")
		return
	}
	p.ID = id

	s.logEvent(plan.Event{
		PlanID:    id,
		EventType: plan.EventPlanGenerated,
		Data: map[string]any{
			"profile_type": req.ProfileType,
			"status":       string(result.Status),
			"days":         result.Days,
			"entries":      len(result.Entries),
		},
	})

	w.Header().Set("Location", "/v1/plans/"+id)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	plans, err := s.store.ListPlans(limit)
	if err != nil {
		slog.Error("failed to list plans", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePlanEvents returns the plan's history, oldest first.
func (s *Server) handlePlanEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}

	events, err := s.events.PlanEvents(p.ID)
	if err != nil {
		slog.Error("failed to load plan events", "plan_id", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load plan events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan_id": p.ID, "events": events})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, p.ID, p.Result); err != nil {
		slog.Error("failed to export plan", "plan_id", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export plan")
		return
	}

	size := buf.Len()
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="plan-%s.xlsx"`, p.ID))
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write export", "plan_id", p.ID, "error", err)
		return
	}

	s.logEvent(plan.Event{
		PlanID:    p.ID,
		EventType: plan.EventPlanExported,
		Data:      map[string]any{"format": "xlsx", "bytes": size},
	})
}

// lookup loads the plan named by the {id} path value and writes the error
// response when it cannot.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*plan.Plan, bool) {
	id := r.PathValue("id")
	p, err := s.store.GetPlan(id)
	if errors.Is(err, plan.ErrNotFound) {
		writeError(w, http.StatusNotFound, "plan not found")
		return nil, false
	}
	if err != nil {
		slog.Error("failed to load plan", "plan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load plan")
		return nil, false
	}
	return p, true
}

func (s *Server) logEvent(e plan.Event) {
	if err := s.events.LogEvent(e); err != nil {
		slog.Warn("failed to log event", "type", e.EventType, "plan_id", e.PlanID, "error", err)
	}
}
