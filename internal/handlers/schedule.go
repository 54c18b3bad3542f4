package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/benvon/smart-schedule/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ScheduleHandler exposes the scheduling engine over HTTP. It is stateless:
// every request carries the occupancy and energy data the engine needs.
type ScheduleHandler struct {
	engine *scheduling.Engine
	jobs   JobEnqueuer
	logger *zap.Logger
}

// ScheduleHandlerOption configures a ScheduleHandler
type ScheduleHandlerOption func(*ScheduleHandler)

// WithJobQueue enables the asynchronous jobs endpoint
func WithJobQueue(q JobEnqueuer) ScheduleHandlerOption {
	return func(h *ScheduleHandler) {
		h.jobs = q
	}
}

// WithLogger sets the handler logger
func WithLogger(l *zap.Logger) ScheduleHandlerOption {
	return func(h *ScheduleHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(engine *scheduling.Engine, opts ...ScheduleHandlerOption) *ScheduleHandler {
	h := &ScheduleHandler{
		engine: engine,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers schedule routes on the given router
// The router should already have the /schedule prefix (e.g., from apiRouter.PathPrefix("/schedule"))
func (h *ScheduleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/slots", h.FindSlots).Methods("POST")
	r.HandleFunc("/plan", h.PlanTask).Methods("POST")
	r.HandleFunc("/plan/chunks", h.PlanChunks).Methods("POST")
	r.HandleFunc("/reschedule", h.Reschedule).Methods("POST")
	r.HandleFunc("/cognitive-load", h.CognitiveLoad).Methods("POST")
	r.HandleFunc("/jobs", h.EnqueueJob).Methods("POST")
}

// SlotsResponse is the payload of the slots endpoint
type SlotsResponse struct {
	Strategy        models.SchedulingStrategy `json:"strategy"`
	TargetDate      *time.Time                `json:"target_date"`
	WindowDays      int                       `json:"window_days"`
	DurationMinutes int                       `json:"duration_minutes"`
	Requirement     models.EnergyRequirement  `json:"requirement"`
	Slots           []models.Slot             `json:"slots"`
}

// FindSlots resolves the strategy for a task and returns its candidate slots
func (h *ScheduleHandler) FindSlots(w http.ResponseWriter, r *http.Request) {
	var req scheduling.TaskRequest
	if !h.decodeAndValidate(w, r, &req, func() error { return validation.ValidatePlanRequest(&req) }) {
		return
	}

	search := h.engine.FindSlotsForTask(req.Task, req.PlanInput)
	slots := search.Slots
	if slots == nil {
		slots = []models.Slot{}
	}

	h.logger.Debug("slots_found",
		zap.String("task_id", req.Task.ID.String()),
		zap.String("strategy", string(search.Decision.Strategy)),
		zap.Int("slot_count", len(slots)),
	)

	respondJSON(w, http.StatusOK, SlotsResponse{
		Strategy:        search.Decision.Strategy,
		TargetDate:      search.Context.TargetDate,
		WindowDays:      search.Context.WindowDays,
		DurationMinutes: int(search.Duration / time.Minute),
		Requirement:     search.Requirement,
		Slots:           slots,
	})
}

// PlanTask returns the planning context for a single task
func (h *ScheduleHandler) PlanTask(w http.ResponseWriter, r *http.Request) {
	var req scheduling.TaskRequest
	if !h.decodeAndValidate(w, r, &req, func() error { return validation.ValidatePlanRequest(&req) }) {
		return
	}

	respondJSON(w, http.StatusOK, h.engine.PlanTask(req.Task, req.PlanInput))
}

// PlanChunks returns one planning context covering every chunk of a split task
func (h *ScheduleHandler) PlanChunks(w http.ResponseWriter, r *http.Request) {
	var req scheduling.ChunksRequest
	if !h.decodeAndValidate(w, r, &req, func() error { return validation.ValidateChunksRequest(&req) }) {
		return
	}

	respondJSON(w, http.StatusOK, h.engine.PlanChunks(req.Chunks, req.PlanInput))
}

// Reschedule classifies whether a task edit should trigger automatic placement
func (h *ScheduleHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req scheduling.RescheduleRequest
	if !h.decodeAndValidate(w, r, &req, func() error { return validation.ValidateRescheduleRequest(&req) }) {
		return
	}

	respondJSON(w, http.StatusOK, h.engine.Decide(req))
}

// CognitiveLoad analyses how much demanding work a schedule already holds
func (h *ScheduleHandler) CognitiveLoad(w http.ResponseWriter, r *http.Request) {
	var req scheduling.CognitiveLoadRequest
	if !h.decodeAndValidate(w, r, &req, func() error { return validation.ValidateCognitiveLoadRequest(&req) }) {
		return
	}

	respondJSON(w, http.StatusOK, scheduling.AnalyzeCognitiveLoad(req.Schedule))
}

// decodeAndValidate writes the error response itself and reports whether the handler may continue
func (h *ScheduleHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any, validate func() error) bool {
	if err := decodeJSON(r, v); err != nil {
		respondDecodeError(w, err)
		return false
	}
	if err := validate(); err != nil {
		if errors.Is(err, validation.ErrInvalidRequest) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.Describe(err))
			return false
		}
		h.logger.Error("request_validation_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to validate request")
		return false
	}
	return true
}
