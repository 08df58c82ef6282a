package domain

import (
	"context"
	"time"
)

// historyLimit caps how many distinct sessions an exercise history returns.
const historyLimit = 20

// volumeMonths caps the number of points in a volume progression.
const volumeMonths = 12

// ExerciseStats aggregates a user's performance for one exercise name.
// Zero values, never nulls, when nothing matches.
type ExerciseStats struct {
	MaxReps       int
	MaxWeight     float64
	TotalSessions int
	TotalVolume   float64
}

// SetDetail is one performed set inside a history entry.
type SetDetail struct {
	Weight       float64
	Reps         int
	RPE          *float64
	NivelAnillas *int
}

// SessionSets is the raw per-session slice a history query returns: the sets
// for one exercise within one session, newest sessions first.
type SessionSets struct {
	SessionID   string
	RoutineName string
	FinishedAt  *time.Time
	Sets        []SetDetail
}

// HistoryEntry is one session's appearance in an exercise history.
type HistoryEntry struct {
	SessionID   string
	Date        string
	RoutineName string
	Sets        []SetDetail
	TotalVolume float64
}

// VolumePoint is one calendar month's total volume for an exercise.
type VolumePoint struct {
	Month  string
	Volume float64
}

// HistoryRepository captures the read-only aggregation queries. Every query
// joins through the owning session's user id.
type HistoryRepository interface {
	ExerciseNames(ctx context.Context, userID string) ([]string, error)
	Stats(ctx context.Context, userID, exerciseName string, since time.Time) (ExerciseStats, error)
	RecentSessions(ctx context.Context, userID, exerciseName string, limit int) ([]SessionSets, error)
	MonthlyVolume(ctx context.Context, userID, exerciseName string, limit int) ([]VolumePoint, error)
}

// HistoryService answers historical and statistical queries over past sessions.
type HistoryService struct {
	repo HistoryRepository
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(repo HistoryRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// ExerciseNames returns the sorted set of exercise names in the caller's sessions.
func (s *HistoryService) ExerciseNames(ctx context.Context, userID string) ([]string, error) {
	return s.repo.ExerciseNames(ctx, userID)
}

// ExerciseStats aggregates sets for sessions finished on/after since.
func (s *HistoryService) ExerciseStats(ctx context.Context, userID, exerciseName string, since time.Time) (ExerciseStats, error) {
	return s.repo.Stats(ctx, userID, exerciseName, since)
}

// ExerciseHistory returns up to 20 recent sessions featuring the exercise,
// each with its ordered sets, formatted date, and per-entry volume.
func (s *HistoryService) ExerciseHistory(ctx context.Context, userID, exerciseName string) ([]HistoryEntry, error) {
	sessions, err := s.repo.RecentSessions(ctx, userID, exerciseName, historyLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(sessions))
	for _, sess := range sessions {
		var date string
		if sess.FinishedAt != nil {
			date = FormatDisplayDate(*sess.FinishedAt)
		}
		var volume float64
		for _, set := range sess.Sets {
			volume += set.Weight * float64(set.Reps)
		}
		entries = append(entries, HistoryEntry{
			SessionID:   sess.SessionID,
			Date:        date,
			RoutineName: sess.RoutineName,
			Sets:        sess.Sets,
			TotalVolume: volume,
		})
	}
	return entries, nil
}

// VolumeProgression buckets the exercise's sets by calendar month of session
// finish time, at most 12 months in ascending order.
func (s *HistoryService) VolumeProgression(ctx context.Context, userID, exerciseName string) ([]VolumePoint, error) {
	return s.repo.MonthlyVolume(ctx, userID, exerciseName, volumeMonths)
}
