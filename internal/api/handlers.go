// Package api exposes HTTP handlers for the workout service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"example.com/workout/internal/auth"
	"example.com/workout/internal/domain"
)

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	routines *domain.RoutineService
	sessions *domain.SessionService
	history  *domain.HistoryService
}

// NewHandler builds a Handler.
func NewHandler(routines *domain.RoutineService, sessions *domain.SessionService, history *domain.HistoryService) *Handler {
	return &Handler{routines: routines, sessions: sessions, history: history}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", health)

	r.Route("/routines", func(r chi.Router) {
		r.Get("/", h.listRoutines)
		r.Post("/", h.createRoutine)
		r.Get("/{id}", h.getRoutine)
		r.Put("/{id}", h.updateRoutine)
		r.Delete("/{id}", h.deleteRoutine)
	})

	r.Post("/sessions", h.recordSession)

	r.Route("/history", func(r chi.Router) {
		r.Get("/exercises", h.exerciseNames)
		r.Get("/stats", h.exerciseStats)
		r.Get("/sessions", h.exerciseHistory)
		r.Get("/volume", h.volumeProgression)
	})
}

// health reports a simple OK status for container health checks.
func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listRoutines(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	summaries, err := h.routines.ListRoutines(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]RoutineView, 0, len(summaries))
	for _, summary := range summaries {
		views = append(views, toRoutineView(summary.Routine, summary.ExerciseCount))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getRoutine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	routine, err := h.routines.GetRoutine(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrRoutineNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "routine not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	exercises := make([]ExerciseView, 0, len(routine.Exercises))
	for _, ex := range routine.Exercises {
		exercises = append(exercises, toExerciseView(ex))
	}

	writeJSON(w, http.StatusOK, RoutineDetailResponse{
		Routine:   toRoutineView(*routine, len(routine.Exercises)),
		Exercises: exercises,
	})
}

func (h *Handler) createRoutine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req SaveRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		return
	}

	routine, err := h.routines.CreateRoutine(r.Context(), req.toInput(claims.UserID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: routine.ID})
}

func (h *Handler) updateRoutine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req SaveRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		return
	}

	routineID := chi.URLParam(r, "id")
	if err := h.routines.UpdateRoutine(r.Context(), routineID, req.toInput(claims.UserID)); err != nil {
		if errors.Is(err, domain.ErrRoutineNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "routine not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: routineID})
}

func (h *Handler) deleteRoutine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	if err := h.routines.DeleteRoutine(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrRoutineNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "routine not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req SaveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		return
	}

	session, err := h.sessions.RecordSession(r.Context(), req.toInput(claims.UserID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: session.ID})
}

// SaveRoutineRequest is the payload for POST and PUT /routines.
type SaveRoutineRequest struct {
	Title        string            `json:"title"`
	Subtitle     string            `json:"subtitle"`
	Tags         []string          `json:"tags"`
	ScheduleDays []string          `json:"scheduleDays"`
	Exercises    []ExerciseRequest `json:"exercises"`
}

// ExerciseRequest is one submitted exercise spec.
type ExerciseRequest struct {
	Name        string               `json:"name"`
	Muscle      string               `json:"muscle"`
	Equipment   []string             `json:"equipment"`
	RestSeconds int                  `json:"rest_seconds"`
	Rows        []SetTemplateRequest `json:"rows"`
}

// SetTemplateRequest is one submitted set-template spec.
type SetTemplateRequest struct {
	Sets   string `json:"sets"`
	Reps   string `json:"reps"`
	Weight string `json:"weight"`
	Nivel  string `json:"nivel"`
}

// Validate ensures request correctness.
func (r SaveRoutineRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	for _, ex := range r.Exercises {
		if ex.RestSeconds < 0 {
			return errors.New("rest_seconds must be >= 0")
		}
	}
	return nil
}

func (r SaveRoutineRequest) toInput(userID string) domain.SaveRoutineInput {
	input := domain.SaveRoutineInput{
		UserID:       userID,
		Title:        r.Title,
		Subtitle:     r.Subtitle,
		Tags:         r.Tags,
		ScheduleDays: r.ScheduleDays,
		Exercises:    make([]domain.ExerciseInput, 0, len(r.Exercises)),
	}
	for _, ex := range r.Exercises {
		in := domain.ExerciseInput{
			Name:        ex.Name,
			Muscle:      ex.Muscle,
			Equipment:   ex.Equipment,
			RestSeconds: ex.RestSeconds,
			Rows:        make([]domain.SetTemplateInput, 0, len(ex.Rows)),
		}
		for _, row := range ex.Rows {
			in.Rows = append(in.Rows, domain.SetTemplateInput{
				Sets:   row.Sets,
				Reps:   row.Reps,
				Weight: row.Weight,
				Nivel:  row.Nivel,
			})
		}
		input.Exercises = append(input.Exercises, in)
	}
	return input
}

// SaveSessionRequest is the payload for POST /sessions.
type SaveSessionRequest struct {
	RoutineID     string              `json:"routineId"`
	RoutineName   string              `json:"routineName"`
	StartedAt     time.Time           `json:"startedAt"`
	FinishedAt    *time.Time          `json:"finishedAt"`
	TotalVolumeKg float64             `json:"totalVolumeKg"`
	Sets          []SessionSetRequest `json:"sets"`
}

// SessionSetRequest is one submitted set result.
type SessionSetRequest struct {
	ExerciseName string   `json:"exerciseName"`
	Weight       float64  `json:"weight"`
	Reps         int      `json:"reps"`
	RPE          *float64 `json:"rpe"`
	NivelAnillas *int     `json:"nivelAnillas"`
}

// Validate ensures request correctness.
func (r SaveSessionRequest) Validate() error {
	if strings.TrimSpace(r.RoutineName) == "" {
		return errors.New("routineName is required")
	}
	if r.StartedAt.IsZero() {
		return errors.New("startedAt is required")
	}
	if r.TotalVolumeKg < 0 {
		return errors.New("totalVolumeKg must be >= 0")
	}
	for _, set := range r.Sets {
		if strings.TrimSpace(set.ExerciseName) == "" {
			return errors.New("sets[].exerciseName is required")
		}
		if set.Reps < 0 {
			return errors.New("sets[].reps must be >= 0")
		}
		if set.Weight < 0 {
			return errors.New("sets[].weight must be >= 0")
		}
	}
	return nil
}

func (r SaveSessionRequest) toInput(userID string) domain.RecordSessionInput {
	input := domain.RecordSessionInput{
		UserID:        userID,
		RoutineName:   r.RoutineName,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		TotalVolumeKg: r.TotalVolumeKg,
		Sets:          make([]domain.SessionSetInput, 0, len(r.Sets)),
	}
	if r.RoutineID != "" {
		id := r.RoutineID
		input.RoutineID = &id
	}
	for _, set := range r.Sets {
		input.Sets = append(input.Sets, domain.SessionSetInput{
			ExerciseName: set.ExerciseName,
			Weight:       set.Weight,
			Reps:         set.Reps,
			RPE:          set.RPE,
			NivelAnillas: set.NivelAnillas,
		})
	}
	return input
}

// IDResponse carries the identifier of a created or updated entity.
type IDResponse struct {
	ID string `json:"id"`
}

// RoutineView is a routine summary with its exercise count.
type RoutineView struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Subtitle       string    `json:"subtitle"`
	Tags           []string  `json:"tags"`
	ScheduleDays   []string  `json:"schedule_days"`
	LastPerformed  string    `json:"last_performed"`
	CompletionRate *int      `json:"completion_rate"`
	Streak         *string   `json:"streak"`
	ExerciseCount  int       `json:"exercises_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExerciseView is one exercise with its ordered set templates.
type ExerciseView struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Muscle      string            `json:"muscle"`
	Equipment   []string          `json:"equipment"`
	RestSeconds int               `json:"rest_seconds"`
	SortOrder   int               `json:"sort_order"`
	Rows        []SetTemplateView `json:"rows"`
}

// SetTemplateView is one prescribed set template.
type SetTemplateView struct {
	Sets         string `json:"sets"`
	Reps         string `json:"reps"`
	Weight       string `json:"weight"`
	NivelAnillas string `json:"nivel_anillas"`
}

// RoutineDetailResponse packages a routine with its exercise tree.
type RoutineDetailResponse struct {
	Routine   RoutineView    `json:"routine"`
	Exercises []ExerciseView `json:"exercises"`
}

func toRoutineView(routine domain.Routine, exerciseCount int) RoutineView {
	return RoutineView{
		ID:             routine.ID,
		Title:          routine.Title,
		Subtitle:       routine.Subtitle,
		Tags:           routine.Tags,
		ScheduleDays:   routine.ScheduleDays,
		LastPerformed:  routine.LastPerformed,
		CompletionRate: routine.CompletionRate,
		Streak:         routine.Streak,
		ExerciseCount:  exerciseCount,
		CreatedAt:      routine.CreatedAt,
	}
}

func toExerciseView(ex domain.Exercise) ExerciseView {
	view := ExerciseView{
		ID:          ex.ID,
		Name:        ex.Name,
		Muscle:      ex.Muscle,
		Equipment:   ex.Equipment,
		RestSeconds: ex.RestSeconds,
		SortOrder:   ex.SortOrder,
		Rows:        make([]SetTemplateView, 0, len(ex.Templates)),
	}
	for _, tmpl := range ex.Templates {
		view.Rows = append(view.Rows, SetTemplateView{
			Sets:         tmpl.Sets,
			Reps:         tmpl.Reps,
			Weight:       tmpl.Weight,
			NivelAnillas: tmpl.NivelAnillas,
		})
	}
	return view
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
