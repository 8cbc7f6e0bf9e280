package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mossline/wellspring-server/internal/alerts"
	"github.com/mossline/wellspring-server/internal/apperr"
	"github.com/mossline/wellspring-server/internal/challenge"
	"github.com/mossline/wellspring-server/internal/coach"
	"github.com/mossline/wellspring-server/internal/config"
	"github.com/mossline/wellspring-server/internal/fit"
	"github.com/mossline/wellspring-server/internal/llm"
	"github.com/mossline/wellspring-server/internal/metrics"
	"github.com/mossline/wellspring-server/internal/models"
	"github.com/mossline/wellspring-server/internal/store"
)

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeAppError maps domain sentinel errors to HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, apperr.ErrMalformedUpstream):
		writeError(w, http.StatusBadGateway, err.Error(), "BAD_UPSTREAM")
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, err.Error(), "UPSTREAM_UNAVAILABLE")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type Handlers struct {
	cfg          *config.Config
	store        *store.Store
	orchestrator *challenge.Orchestrator
	coach        *coach.Coach
	llm          *llm.Client
	fit          *fit.Client
	alerts       *alerts.Broadcaster
	validate     *validator.Validate
}

func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		cfg:          deps.Config,
		store:        deps.Store,
		orchestrator: deps.Orchestrator,
		coach:        deps.Coach,
		llm:          deps.LLM,
		fit:          deps.Fit,
		alerts:       deps.Alerts,
		validate:     validator.New(),
	}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":      "ok",
		"store":       h.cfg.StoreDriver,
		"llm":         h.checkLLM(r),
		"fit":         h.checkFit(),
		"subscribers": h.alerts.SubscriberCount(),
		"version":     "1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) checkLLM(r *http.Request) string {
	if h.llm == nil || !h.llm.Configured() {
		return "not configured"
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.llm.HealthCheck(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}

func (h *Handlers) checkFit() string {
	if h.fit == nil || !h.fit.Configured() {
		return "not configured"
	}
	return "configured"
}

// moodRequest uses pointers for the scored fields so a submitted zero is
// distinguishable from a missing field.
type moodRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Mood    *int   `json:"mood" validate:"required,min=0,max=4"`
	Stress  *int   `json:"stress" validate:"required,min=1,max=5"`
	Feeling string `json:"feeling"`
	Context string `json:"context"`
}

// SubmitMood handles POST /api/v1/mood
func (h *Handlers) SubmitMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
		return
	}

	entry := models.MoodEntry{
		Mood:      *req.Mood,
		Stress:    *req.Stress,
		Feeling:   req.Feeling,
		Context:   req.Context,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	var total int
	err := h.store.Update(func(doc *store.Document) error {
		doc.MoodEntries[req.UserID] = append(doc.MoodEntries[req.UserID], entry)
		total = len(doc.MoodEntries[req.UserID])
		return nil
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"entry":        entry,
		"totalEntries": total,
	})
}

// ListMood handles GET /api/v1/mood
func (h *Handlers) ListMood(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "VALIDATION")
		return
	}
	limit := queryInt(r, "limit", 50)

	entries := []models.MoodEntry{}
	err := h.store.View(func(doc *store.Document) error {
		list := doc.MoodEntries[userID]
		if limit > 0 && len(list) > limit {
			list = list[len(list)-limit:]
		}
		entries = append(entries, list...)
		return nil
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// StressCheck handles GET /api/v1/stress/check. Fitness metrics come in as
// optional query parameters; a triggered detection or high severity caches the
// assessment on the dashboard and fans out a stress alert.
func (h *Handlers) StressCheck(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "VALIDATION")
		return
	}

	fitness := models.FitnessSnapshot{
		StepsToday:       queryInt(r, "steps", 0),
		HeartPoints:      queryFloat(r, "heartPoints", 0),
		RestingHeartRate: queryFloat(r, "restingHeartRate", 0),
		AvgHeartRate:     queryFloat(r, "avgHeartRate", 0),
		SleepHours:       queryFloat(r, "sleepHours", 0),
	}

	var assessment models.StressAssessment
	var detection metrics.Detection

	err := h.store.View(func(doc *store.Document) error {
		entries := doc.MoodEntries[userID]
		detection = metrics.DetectStress(entries)
		assessment = metrics.Evaluate(entries, fitness)
		return nil
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	assessment.CheckedAt = time.Now().UTC().Format(time.RFC3339)

	// Only an alerting assessment is worth rewriting the document for.
	if detection.Triggered || assessment.Severity.Rank() >= models.SeverityHigh.Rank() {
		cached := assessment
		cached.Reasons = append([]string(nil), assessment.Reasons...)
		err := h.store.Update(func(doc *store.Document) error {
			doc.Dashboard(userID).LastStressAlert = &cached
			return nil
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		h.alerts.Publish("stress.alert", userID, map[string]interface{}{
			"severity":  assessment.Severity,
			"avgStress": assessment.AvgStress,
			"triggered": detection.Triggered,
			"reason":    detection.Reason,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assessment": assessment,
		"triggered":  detection.Triggered,
		"reason":     detection.Reason,
	})
}

type generateRequest struct {
	UserID     string  `json:"userId" validate:"required"`
	Steps      int     `json:"steps"`
	SleepHours float64 `json:"sleepHours"`
}

// GenerateChallenge handles POST /api/v1/challenges/generate. The draft is
// returned unpersisted; the client starts it explicitly.
func (h *Handlers) GenerateChallenge(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
		return
	}

	var history []models.MoodEntry
	err := h.store.View(func(doc *store.Document) error {
		list := doc.MoodEntries[req.UserID]
		if len(list) > challenge.HistoryWindow {
			list = list[len(list)-challenge.HistoryWindow:]
		}
		history = append(history, list...)
		return nil
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	draft := h.coach.GenerateChallenge(r.Context(), history, challenge.Context{
		StepsToday: req.Steps,
		SleepHours: req.SleepHours,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{"challenge": draft})
}

type startRequest struct {
	UserID    string                    `json:"userId" validate:"required"`
	Challenge *models.ChallengeInstance `json:"challenge" validate:"required"`
}

// StartChallenge handles POST /api/v1/challenges/start
func (h *Handlers) StartChallenge(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
		return
	}

	started, err := h.orchestrator.Start(req.UserID, req.Challenge)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"challenge": started})
}

type taskRequest struct {
	UserID      string `json:"userId" validate:"required"`
	ChallengeID string `json:"challengeId" validate:"required"`
	Day         int    `json:"day" validate:"required,min=1"`
	Task        string `json:"task" validate:"required"`
	Completed   *bool  `json:"completed" validate:"required"`
}

// UpdateTaskProgress handles POST /api/v1/challenges/task
func (h *Handlers) UpdateTaskProgress(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
		return
	}

	updated, err := h.orchestrator.UpdateTaskProgress(req.UserID, req.ChallengeID, req.Day, req.Task, *req.Completed)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenge": updated})
}

type dayRequest struct {
	UserID      string `json:"userId" validate:"required"`
	ChallengeID string `json:"challengeId" validate:"required"`
	Day         int    `json:"day" validate:"required,min=1"`
	Mood        *struct {
		Mood    int    `json:"mood" validate:"min=0,max=4"`
		Stress  int    `json:"stress" validate:"min=0,max=5"`
		Feeling string `json:"feeling"`
		Context string `json:"context"`
	} `json:"mood"`
}

// CompleteDay handles POST /api/v1/challenges/day
func (h *Handlers) CompleteDay(w http.ResponseWriter, r *http.Request) {
	var req dayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
		return
	}

	var capture *challenge.MoodCapture
	if req.Mood != nil {
		capture = &challenge.MoodCapture{
			Mood:    req.Mood.Mood,
			Stress:  req.Mood.Stress,
			Feeling: req.Mood.Feeling,
			Context: req.Mood.Context,
		}
	}

	updated, err := h.orchestrator.CompleteDay(req.UserID, req.ChallengeID, req.Day, capture)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenge": updated})
}

type terminateRequest struct {
	UserID      string `json:"userId" validate:"required"`
	ChallengeID string `json:"challengeId" validate:"required"`
}

// CompleteChallenge handles POST /api/v1/challenges/complete
func (h *Handlers) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	h.terminate(w, r, h.orchestrator.CompleteChallenge)
}

// DiscardChallenge handles POST /api/v1/challenges/discard
func (h *Handlers) DiscardChallenge(w http.ResponseWriter, r *http.Request) {
	h.terminate(w, r, h.orchestrator.DiscardChallenge)
}

func (h *Handlers) terminate(w http.ResponseWriter, r *http.Request, op func(string, string) (*models.ChallengeInstance, error)) {
	var req terminateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
		return
	}

	updated, err := op(req.UserID, req.ChallengeID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenge": updated})
}

// ListActiveChallenges handles GET /api/v1/challenges/active
func (h *Handlers) ListActiveChallenges(w http.ResponseWriter, r *http.Request) {
	active, err := h.orchestrator.ListActive(r.URL.Query().Get("userId"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	if active == nil {
		active = []models.ChallengeInstance{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": active})
}

// ListChallengeHistory handles GET /api/v1/challenges/history
func (h *Handlers) ListChallengeHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.orchestrator.ListHistory(r.URL.Query().Get("userId"), queryInt(r, "limit", 0))
	if err != nil {
		writeAppError(w, err)
		return
	}
	if history == nil {
		history = []models.ChallengeInstance{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": history})
}

// Dashboard handles GET /api/v1/dashboard
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.orchestrator.Dashboard(r.URL.Query().Get("userId"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

type chatRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// Chat handles POST /api/v1/chat. Chat has no deterministic fallback, so an
// unconfigured LLM is a 503 rather than a degraded answer.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil || !h.llm.Configured() {
		writeError(w, http.StatusServiceUnavailable, "chat requires a configured LLM provider", "LLM_UNAVAILABLE")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
		return
	}

	var history []models.MoodEntry
	err := h.store.View(func(doc *store.Document) error {
		history = append(history, doc.MoodEntries[req.UserID]...)
		return nil
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	reply, err := h.coach.Chat(r.Context(), req.Message, history)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// Recommendations handles GET /api/v1/recommendations
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "VALIDATION")
		return
	}

	var entries []models.MoodEntry
	err := h.store.View(func(doc *store.Document) error {
		entries = append(entries, doc.MoodEntries[userID]...)
		return nil
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	assessment := metrics.Evaluate(entries, models.FitnessSnapshot{})
	recs := h.coach.Recommendations(r.Context(), assessment)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"severity":        assessment.Severity,
		"recommendations": recs,
	})
}

// Summary handles GET /api/v1/summary
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "VALIDATION")
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339)
	var entries []models.MoodEntry
	err := h.store.View(func(doc *store.Document) error {
		for _, e := range doc.MoodEntries[userID] {
			if e.Timestamp >= cutoff {
				entries = append(entries, e)
			}
		}
		return nil
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": h.coach.WeeklySummary(r.Context(), entries),
		"entries": len(entries),
	})
}

func queryInt(r *http.Request, key string, def int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return def
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	if raw := r.URL.Query().Get(key); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return def
}
