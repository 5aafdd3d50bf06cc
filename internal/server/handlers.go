package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/campusops/triagecore/api/schemas"
	"github.com/campusops/triagecore/internal/engine"
	"github.com/campusops/triagecore/internal/observability"
	"github.com/campusops/triagecore/internal/triage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBatchSize bounds one batch scoring request.
const maxBatchSize = 500

// Handlers holds the route implementations. All domain behavior lives in the
// engine and the triage service; handlers only translate HTTP.
type Handlers struct {
	log     *zap.Logger
	engine  *engine.Engine
	triage  *triage.Service
	metrics *observability.Metrics
}

// NewHandlers creates the handler set.
func NewHandlers(eng *engine.Engine, svc *triage.Service, metrics *observability.Metrics, logger *zap.Logger) *Handlers {
	return &Handlers{
		log:     logger.Named("handlers"),
		engine:  eng,
		triage:  svc,
		metrics: metrics,
	}
}

// RegisterRoutes mounts every route on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/priority/preview", h.handlePreview)
		r.Post("/priority/batch", h.handleBatch)

		r.Post("/issues", h.handleCreateIssue)
		r.Get("/issues/{issueID}", h.handleGetIssue)
		r.Patch("/issues/{issueID}", h.handleUpdateIssue)
		r.Post("/issues/{issueID}/rescore", h.handleRescore)

		r.Get("/buildings/{buildingID}/report", h.handleBuildingReport)
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePreview scores one input without persisting anything: the "what
// would this score as" surface for reporting forms.
func (h *Handlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	var input schemas.PriorityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	result, err := h.engine.CalculatePriority(input)
	if err != nil {
		h.respondFromError(w, err)
		return
	}
	h.metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	h.metrics.ScoredTotal.WithLabelValues(string(result.Priority)).Inc()

	respondJSON(w, http.StatusOK, result)
}

// handleBatch scores an array of inputs; results come back in input order.
func (h *Handlers) handleBatch(w http.ResponseWriter, r *http.Request) {
	var inputs []schemas.PriorityInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(inputs) == 0 {
		respondError(w, http.StatusBadRequest, "batch must contain at least one input")
		return
	}
	if len(inputs) > maxBatchSize {
		respondError(w, http.StatusBadRequest, "batch exceeds the maximum size")
		return
	}

	results, err := h.engine.ScoreBatch(r.Context(), inputs)
	if err != nil {
		h.respondFromError(w, err)
		return
	}
	for _, res := range results {
		h.metrics.ScoredTotal.WithLabelValues(string(res.Priority)).Inc()
	}

	respondJSON(w, http.StatusOK, results)
}

func (h *Handlers) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var input schemas.PriorityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := h.triage.CreateIssue(r.Context(), input)
	if err != nil {
		h.respondFromError(w, err)
		return
	}
	h.metrics.ScoredTotal.WithLabelValues(string(rec.Result.Priority)).Inc()

	respondJSON(w, http.StatusCreated, rec)
}

func (h *Handlers) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	rec, err := h.triage.GetIssue(r.Context(), chi.URLParam(r, "issueID"))
	if err != nil {
		h.respondFromError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (h *Handlers) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	var patch triage.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := h.triage.UpdateIssue(r.Context(), chi.URLParam(r, "issueID"), patch)
	if err != nil {
		h.respondFromError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (h *Handlers) handleRescore(w http.ResponseWriter, r *http.Request) {
	rec, err := h.triage.Rescore(r.Context(), chi.URLParam(r, "issueID"))
	if err != nil {
		h.respondFromError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// handleBuildingReport serves the analytics report. The asOf query parameter
// pins the reference time (RFC 3339); absent, the server clock is used.
func (h *Handlers) handleBuildingReport(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "asOf must be an RFC 3339 timestamp")
			return
		}
		asOf = parsed
	}

	report, err := h.triage.BuildingReport(r.Context(), chi.URLParam(r, "buildingID"), asOf)
	if err != nil {
		h.respondFromError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// respondFromError maps domain errors onto HTTP statuses. Bad input is never
// a 500: validation failures are the caller's problem, not the server's.
func (h *Handlers) respondFromError(w http.ResponseWriter, err error) {
	var verr *schemas.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, schemas.ErrIssueNotFound):
		respondError(w, http.StatusNotFound, "issue not found")
	default:
		h.log.Error("Request failed.", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
