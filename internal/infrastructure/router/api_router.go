package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/internal/domain/repository"
	"chronos-reconciler/internal/usecase"
	"chronos-reconciler/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxBodyBytes    = 10 << 20
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// Reconciler classifies schedules against the directory snapshot
type Reconciler interface {
	Reconcile(ctx context.Context, schedules []entity.ScheduleRecord, progress usecase.ProgressFunc) ([]entity.ReconciliationResult, error)
	SearchMeetings(ctx context.Context, f usecase.MeetingFilter, progress usecase.ProgressFunc) ([]entity.ZoomMeeting, error)
}

// Assigner applies approved host reassignments
type Assigner interface {
	Execute(ctx context.Context, commands []entity.AssignmentCommand, progress usecase.ProgressFunc) (*entity.UpdateReport, error)
}

// APIRouter serves the HTTP API
type APIRouter struct {
	router     *chi.Mux
	reconciler Reconciler
	assigner   Assigner
	runs       repository.RunLogRepository
	gatherer   prometheus.Gatherer
	validator  *Validator
	version    string
	logger     logger.Logger
}

// NewAPIRouter creates the router with its middleware and routes
func NewAPIRouter(
	reconciler Reconciler,
	assigner Assigner,
	runs repository.RunLogRepository,
	gatherer prometheus.Gatherer,
	version string,
	logger logger.Logger,
) *APIRouter {
	a := &APIRouter{
		router:     chi.NewRouter(),
		reconciler: reconciler,
		assigner:   assigner,
		runs:       runs,
		gatherer:   gatherer,
		validator:  NewValidator(),
		version:    version,
		logger:     logger,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *APIRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *APIRouter) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(a.requestLogger)
	a.router.Use(middleware.Recoverer)
}

func (a *APIRouter) setupRoutes() {
	a.router.Get("/health", a.handleHealth)
	a.router.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	a.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/reconciliations", a.handleReconcile)
		r.Post("/assignments", a.handleAssign)
		r.Get("/meetings", a.handleSearchMeetings)
		r.Get("/runs", a.handleListRuns)
	})
}

// requestLogger logs each request through the service logger
func (a *APIRouter) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		a.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()))
	})
}

type reconcileRequest struct {
	Schedules []entity.ScheduleRecord `json:"schedules" validate:"required,dive"`
}

type reconcileResponse struct {
	Results  []entity.ReconciliationResult `json:"results"`
	Summary  entity.ReconciliationSummary  `json:"summary"`
	Commands []entity.AssignmentCommand    `json:"commands"`
}

type assignRequest struct {
	Commands []entity.AssignmentCommand `json:"commands" validate:"required,min=1,dive"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (a *APIRouter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": a.version,
	})
}

func (a *APIRouter) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if !a.decode(w, r, &req) {
		return
	}

	results, err := a.reconciler.Reconcile(r.Context(), req.Schedules, a.progress(r))
	if err != nil {
		a.writeFailure(w, "Reconciliation failed", err)
		return
	}

	commands := entity.CommandsFromResults(results)
	if commands == nil {
		commands = []entity.AssignmentCommand{}
	}
	a.writeJSON(w, http.StatusOK, reconcileResponse{
		Results:  results,
		Summary:  entity.Summarize(results),
		Commands: commands,
	})
}

func (a *APIRouter) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !a.decode(w, r, &req) {
		return
	}

	report, err := a.assigner.Execute(r.Context(), req.Commands, a.progress(r))
	if err != nil && report == nil {
		a.writeFailure(w, "Assignment failed", err)
		return
	}
	if err != nil {
		// Aborted part way: report what was applied along with the cause
		a.logger.Error("Assignment pass aborted", "error", err)
		a.writeJSON(w, http.StatusPreconditionFailed, struct {
			*entity.UpdateReport
			Error string `json:"error"`
		}{report, err.Error()})
		return
	}

	a.writeJSON(w, http.StatusOK, report)
}

func (a *APIRouter) handleSearchMeetings(w http.ResponseWriter, r *http.Request) {
	filter := usecase.MeetingFilter{
		Query: r.URL.Query().Get("q"),
		Host:  r.URL.Query().Get("host"),
	}

	meetings, err := a.reconciler.SearchMeetings(r.Context(), filter, a.progress(r))
	if err != nil {
		a.writeFailure(w, "Meeting search failed", err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"meetings": meetings,
		"count":    len(meetings),
	})
}

func (a *APIRouter) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunLimit {
			a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and " + strconv.Itoa(maxRunLimit)})
			return
		}
		limit = n
	}

	runs, err := a.runs.FindRecent(r.Context(), r.URL.Query().Get("kind"), limit)
	if err != nil {
		a.writeFailure(w, "Failed to list runs", err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// decode reads and validates the JSON body; it writes the 400 itself
func (a *APIRouter) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}

	if err := a.validator.Validate(dst); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
			return false
		}
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (a *APIRouter) progress(r *http.Request) usecase.ProgressFunc {
	reqID := middleware.GetReqID(r.Context())
	return func(msg string) {
		a.logger.Info(msg, "requestId", reqID)
	}
}

func (a *APIRouter) writeFailure(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case usecase.IsPrecondition(err):
		status = http.StatusPreconditionFailed
	case errors.Is(err, context.Canceled):
		// Client went away
		status = 499
	}

	a.logger.Error(msg, "error", err, "status", status)
	a.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (a *APIRouter) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("Failed to write response", "error", err)
	}
}
