package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is one completed, time-bounded instance of performing a routine.
// RoutineName is a snapshot that survives routine deletion and renames.
type Session struct {
	ID            string
	UserID        string
	RoutineID     *string
	RoutineName   string
	StartedAt     time.Time
	FinishedAt    *time.Time
	TotalVolumeKg float64
	Sets          []SessionSet
}

// SessionSet is one actually-performed set. ExerciseName is a denormalized
// string, not a foreign key, so history survives exercise renames.
type SessionSet struct {
	ID           int64
	SessionID    string
	ExerciseName string
	Weight       float64
	Reps         int
	RPE          *float64
	NivelAnillas *int
}

// RecordSessionInput captures the payload from the API layer.
type RecordSessionInput struct {
	UserID        string
	RoutineID     *string
	RoutineName   string
	StartedAt     time.Time
	FinishedAt    *time.Time
	TotalVolumeKg float64
	Sets          []SessionSetInput
}

// SessionSetInput is one submitted set result.
type SessionSetInput struct {
	ExerciseName string
	Weight       float64
	Reps         int
	RPE          *float64
	NivelAnillas *int
}

// SessionRepository persists sessions. CreateSession inserts the session with
// its sets in one transaction and best-effort updates the owning routine's
// last_performed label to lastPerformed.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session, lastPerformed string) error
}

// SessionService orchestrates session recording.
type SessionService struct {
	repo SessionRepository
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// RecordSession persists a completed workout and returns it. The referenced
// routine's last_performed label is updated only when the routine exists and
// is owned by the caller; otherwise the session is still recorded.
func (s *SessionService) RecordSession(ctx context.Context, input RecordSessionInput) (*Session, error) {
	session := Session{
		ID:            uuid.NewString(),
		UserID:        input.UserID,
		RoutineID:     input.RoutineID,
		RoutineName:   input.RoutineName,
		StartedAt:     input.StartedAt.UTC(),
		FinishedAt:    normalizeUTC(input.FinishedAt),
		TotalVolumeKg: input.TotalVolumeKg,
		Sets:          make([]SessionSet, 0, len(input.Sets)),
	}
	for _, in := range input.Sets {
		session.Sets = append(session.Sets, SessionSet{
			ExerciseName: in.ExerciseName,
			Weight:       in.Weight,
			Reps:         in.Reps,
			RPE:          in.RPE,
			NivelAnillas: in.NivelAnillas,
		})
	}

	if err := s.repo.CreateSession(ctx, session, FormatDisplayDate(time.Now())); err != nil {
		return nil, err
	}
	return &session, nil
}

// FormatDisplayDate renders a timestamp as "2 Jun 2024": day without leading
// zero, abbreviated month, 4-digit year. Used for last_performed labels and
// history entries.
func FormatDisplayDate(t time.Time) string {
	return t.Format("2 Jan 2006")
}

func normalizeUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
