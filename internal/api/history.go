package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"example.com/workout/internal/auth"
	"example.com/workout/internal/domain"
)

func (h *Handler) exerciseNames(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	names, err := h.history.ExerciseNames(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) exerciseStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "missing name parameter")
		return
	}
	since, err := parseSince(r.URL.Query().Get("since"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "invalid since parameter")
		return
	}

	stats, err := h.history.ExerciseStats(r.Context(), claims.UserID, name, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ExerciseStatsResponse{
		MaxReps:       stats.MaxReps,
		MaxWeight:     stats.MaxWeight,
		TotalSessions: stats.TotalSessions,
		TotalVolume:   stats.TotalVolume,
	})
}

func (h *Handler) exerciseHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "missing name parameter")
		return
	}

	entries, err := h.history.ExerciseHistory(r.Context(), claims.UserID, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]HistoryEntryView, 0, len(entries))
	for _, entry := range entries {
		sets := make([]SetDetailView, 0, len(entry.Sets))
		for _, set := range entry.Sets {
			sets = append(sets, SetDetailView{
				Weight:       set.Weight,
				Reps:         set.Reps,
				RPE:          set.RPE,
				NivelAnillas: set.NivelAnillas,
			})
		}
		views = append(views, HistoryEntryView{
			SessionID:   entry.SessionID,
			Date:        entry.Date,
			RoutineName: entry.RoutineName,
			Sets:        sets,
			TotalVolume: entry.TotalVolume,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) volumeProgression(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "missing name parameter")
		return
	}

	points, err := h.history.VolumeProgression(r.Context(), claims.UserID, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]VolumePointView, 0, len(points))
	for _, point := range points {
		views = append(views, toVolumePointView(point))
	}
	writeJSON(w, http.StatusOK, views)
}

// parseSince accepts an RFC 3339 timestamp or a bare date.
func parseSince(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty since")
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

// ExerciseStatsResponse aggregates one exercise's performance.
type ExerciseStatsResponse struct {
	MaxReps       int     `json:"maxReps"`
	MaxWeight     float64 `json:"maxWeight"`
	TotalSessions int     `json:"totalSessions"`
	TotalVolume   float64 `json:"totalVolume"`
}

// SetDetailView is one performed set inside a history entry.
type SetDetailView struct {
	Weight       float64  `json:"weight"`
	Reps         int      `json:"reps"`
	RPE          *float64 `json:"rpe"`
	NivelAnillas *int     `json:"nivelAnillas"`
}

// HistoryEntryView is one session's appearance in an exercise history.
type HistoryEntryView struct {
	SessionID   string          `json:"sessionId"`
	Date        string          `json:"date"`
	RoutineName string          `json:"routineName"`
	Sets        []SetDetailView `json:"sets"`
	TotalVolume float64         `json:"totalVolume"`
}

// VolumePointView is one month of an exercise's volume progression.
type VolumePointView struct {
	Month  string  `json:"month"`
	Volume float64 `json:"volume"`
	Label  string  `json:"label"`
}

func toVolumePointView(point domain.VolumePoint) VolumePointView {
	return VolumePointView{
		Month:  point.Month,
		Volume: point.Volume,
		Label:  fmt.Sprintf("%.0f kg", point.Volume),
	}
}
