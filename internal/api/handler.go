package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nidhogg/plasticity/internal/bridge"
	"github.com/nidhogg/plasticity/internal/engine"
	"github.com/nidhogg/plasticity/internal/tracker"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(e *engine.Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: e, logger: logger}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Get("/stats", h.stats)
		r.Get("/review-schedule", h.reviewSchedule)

		// Memory routes
		r.Post("/memories", h.registerMemory)
		r.Get("/memories", h.listMemories)
		r.Get("/memories/weak", h.weakMemories)
		r.Get("/memories/strong", h.strongMemories)
		r.Get("/memories/{id}", h.getMemory)
		r.Get("/memories/{id}/retention", h.memoryRetention)
		r.Post("/memories/{id}/access", h.accessMemory)
		r.Post("/memories/{id}/reinforce", h.reinforceMemory)
		r.Post("/memories/{id}/consolidate", h.consolidateMemory)
		r.Post("/associations", h.associateMemories)
		r.Post("/consolidate", h.consolidateAll)

		// Skill routes
		r.Post("/skills", h.startSkill)
		r.Get("/skills", h.listSkills)
		r.Get("/skills/{id}", h.getSkill)
		r.Get("/skills/{id}/curve", h.skillCurve)
		r.Post("/skills/{id}/practice", h.practiceSkill)

		// Habit routes
		r.Get("/habits", h.listHabits)
		r.Get("/habits/{id}", h.getHabit)
		r.Post("/habits/{id}/reinforce", h.reinforceHabit)

		// Trauma routes
		r.Post("/trauma", h.encodeTrauma)
		r.Get("/trauma", h.listTrauma)
		r.Get("/trauma/{id}", h.getTrauma)
		r.Get("/trauma/{id}/intrusion", h.traumaIntrusion)
		r.Post("/trauma/{id}/reactivate", h.reactivateTrauma)

		// Learning routes
		r.Post("/learning/explicit", h.learnExplicit)
		r.Post("/learning/implicit", h.learnImplicit)
		r.Post("/learning/consolidate", h.consolidateLearning)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "plasticity"})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

func (h *Handler) reviewSchedule(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 7)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"review_hours": h.engine.ReviewSchedule(n),
	})
}

type registerRequest struct {
	ID            string      `json:"id"`
	Content       interface{} `json:"content"`
	InitialWeight float64     `json:"initial_weight"`
	EmotionalTags []string    `json:"emotional_tags,omitempty"`
}

func (h *Handler) registerMemory(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	if req.InitialWeight == 0 {
		req.InitialWeight = 0.5
	}
	tr := h.engine.Bridge.Register(req.ID, req.Content, req.InitialWeight, req.EmotionalTags)
	writeJSON(w, http.StatusCreated, tr)
}

func (h *Handler) listMemories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Store.List())
}

func (h *Handler) getMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tr, ok := h.engine.Bridge.Lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "memory not found"})
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (h *Handler) accessMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tr := h.engine.Bridge.Access(id)
	if tr == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "memory not found"})
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (h *Handler) memoryRetention(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	retention, ok := h.engine.Bridge.Retention(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "memory not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        id,
		"retention": retention,
	})
}

type reinforceRequest struct {
	Strength         float64 `json:"strength"`
	EmotionalContext string  `json:"emotional_context,omitempty"`
	Source           string  `json:"source,omitempty"`
}

func (h *Handler) reinforceMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req reinforceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	tr, err := h.engine.Bridge.Reinforce(id, req.Strength, req.EmotionalContext, req.Source)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bridge.ErrUnknownSource) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	if tr == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "memory not found"})
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

type consolidateRequest struct {
	EmotionalIntensity float64 `json:"emotional_intensity"`
	Priority           string  `json:"priority,omitempty"`
}

func (h *Handler) consolidateMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req consolidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	tr, err := h.engine.Bridge.Consolidate(id, req.EmotionalIntensity, req.Priority)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bridge.ErrUnknownPriority) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	if tr == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "memory not found"})
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

type associateRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (h *Handler) associateMemories(w http.ResponseWriter, r *http.Request) {
	var req associateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.A == "" || req.B == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a and b are required"})
		return
	}
	if !h.engine.Bridge.Associate(req.A, req.B) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "one or both memories not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "associated"})
}

func (h *Handler) weakMemories(w http.ResponseWriter, r *http.Request) {
	threshold := queryFloat(r, "threshold", 0.3)
	writeJSON(w, http.StatusOK, h.engine.Store.WeakMemories(threshold))
}

func (h *Handler) strongMemories(w http.ResponseWriter, r *http.Request) {
	threshold := queryFloat(r, "threshold", 0.7)
	writeJSON(w, http.StatusOK, h.engine.Store.StrongMemories(threshold))
}

type consolidateAllRequest struct {
	IDs []string `json:"ids,omitempty"`
}

func (h *Handler) consolidateAll(w http.ResponseWriter, r *http.Request) {
	var req consolidateAllRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	transitioned := h.engine.Scheduler.ConsolidateNow(req.IDs...)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"consolidated": transitioned,
		"count":        len(transitioned),
	})
}

type skillStartRequest struct {
	ID          string  `json:"id"`
	InitialPerf float64 `json:"initial_performance"`
	Difficulty  float64 `json:"difficulty"`
}

func (h *Handler) startSkill(w http.ResponseWriter, r *http.Request) {
	var req skillStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	sk := h.engine.Skills.Start(req.ID, req.InitialPerf, req.Difficulty)
	writeJSON(w, http.StatusCreated, sk)
}

func (h *Handler) listSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Skills.List())
}

func (h *Handler) getSkill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sk, ok := h.engine.Skills.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "skill not found"})
		return
	}
	writeJSON(w, http.StatusOK, sk)
}

type practiceRequest struct {
	Success bool `json:"success"`
}

func (h *Handler) practiceSkill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req practiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	perf, ok := h.engine.Skills.Practice(id, req.Success)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "skill not found"})
		return
	}
	sk, _ := h.engine.Skills.Get(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":          id,
		"performance": perf,
		"automatized": sk.Automatized,
	})
}

func (h *Handler) skillCurve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n := queryInt(r, "points", 10)
	curve, ok := h.engine.Skills.LearningCurve(id, n)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "skill not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "curve": curve})
}

func (h *Handler) listHabits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Habits.List())
}

func (h *Handler) getHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	hb, ok := h.engine.Habits.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}
	writeJSON(w, http.StatusOK, hb)
}

type habitReinforceRequest struct {
	Context string  `json:"context"`
	Reward  float64 `json:"reward"`
	Success bool    `json:"success"`
}

func (h *Handler) reinforceHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req habitReinforceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, ok := h.engine.Habits.Get(id); !ok {
		h.engine.Habits.Start(id, req.Context)
	}
	automaticity, _ := h.engine.Habits.Reinforce(id, req.Context, req.Reward, req.Success)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":           id,
		"automaticity": automaticity,
		"formed":       h.engine.Habits.IsFormed(id),
	})
}

type traumaEncodeRequest struct {
	ID        string      `json:"id"`
	Content   interface{} `json:"content"`
	Intensity float64     `json:"intensity"`
}

func (h *Handler) encodeTrauma(w http.ResponseWriter, r *http.Request) {
	var req traumaEncodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	if !h.engine.Trauma.Encode(req.ID, req.Content, req.Intensity) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "intensity below trauma threshold",
		})
		return
	}
	tm, _ := h.engine.Trauma.Get(req.ID)
	writeJSON(w, http.StatusCreated, tm)
}

func (h *Handler) listTrauma(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Trauma.List())
}

func (h *Handler) getTrauma(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tm, ok := h.engine.Trauma.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "trauma memory not found"})
		return
	}
	writeJSON(w, http.StatusOK, tm)
}

func (h *Handler) traumaIntrusion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.engine.Trauma.Get(id); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "trauma memory not found"})
		return
	}
	stress := queryFloat(r, "stress", 0)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":                   id,
		"intrusion_likelihood": h.engine.Trauma.IntrusionLikelihood(id, stress),
		"retention":            h.engine.Trauma.Retention(id),
	})
}

type reactivateRequest struct {
	Stress   float64 `json:"stress"`
	Strategy string  `json:"strategy,omitempty"`
}

func (h *Handler) reactivateTrauma(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req reactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, ok := h.engine.Trauma.Get(id); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "trauma memory not found"})
		return
	}
	result, err := h.engine.Trauma.Reactivate(id, req.Stress, req.Strategy)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tracker.ErrUnknownStrategy) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type learnRequest struct {
	ID      string      `json:"id"`
	Content interface{} `json:"content"`
}

func (h *Handler) learnExplicit(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	writeJSON(w, http.StatusCreated, h.engine.Learning.LearnExplicit(req.ID, req.Content))
}

func (h *Handler) learnImplicit(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	writeJSON(w, http.StatusCreated, h.engine.Learning.LearnImplicit(req.ID, req.Content))
}

type learningConsolidateRequest struct {
	Hours float64 `json:"hours"`
}

func (h *Handler) consolidateLearning(w http.ResponseWriter, r *http.Request) {
	var req learningConsolidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Hours <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hours must be positive"})
		return
	}
	h.engine.Learning.Consolidate(req.Hours)
	explicit, implicit := h.engine.Learning.Counts()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "consolidated",
		"hours":            req.Hours,
		"explicit_entries": explicit,
		"implicit_entries": implicit,
	})
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
