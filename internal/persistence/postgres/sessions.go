package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"example.com/workout/internal/domain"
	"example.com/workout/internal/events"
	"example.com/workout/internal/observability"
)

// CreateSession persists the session and its sets in a single transaction,
// records the outbox event, and best-effort stamps the owning routine's
// last_performed label. A missing or foreign-owned routine is not an error.
func (r *Repository) CreateSession(ctx context.Context, session domain.Session, lastPerformed string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertSession = `INSERT INTO workout_sessions (session_id, user_id, routine_id, routine_name, started_at, finished_at, total_volume_kg)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, insertSession,
		session.ID,
		session.UserID,
		session.RoutineID,
		session.RoutineName,
		session.StartedAt,
		session.FinishedAt,
		session.TotalVolumeKg,
	)
	if err != nil {
		return err
	}

	const insertSet = `INSERT INTO session_sets (session_id, exercise_name, weight, reps, rpe, nivel_anillas)
        VALUES ($1,$2,$3,$4,$5,$6)`

	for _, set := range session.Sets {
		if _, err = tx.Exec(ctx, insertSet, session.ID, set.ExerciseName, set.Weight, set.Reps, set.RPE, set.NivelAnillas); err != nil {
			return err
		}
	}

	if session.RoutineID != nil {
		// Zero rows updated means the routine is gone or foreign-owned;
		// the session is recorded regardless.
		const stampRoutine = `UPDATE routines SET last_performed=$3 WHERE routine_id=$1 AND user_id=$2`
		if _, err = tx.Exec(ctx, stampRoutine, *session.RoutineID, session.UserID, lastPerformed); err != nil {
			return err
		}
	}

	if err = r.insertOutbox(ctx, tx, session.UserID, "session", session.ID, "session.recorded", events.SessionRecorded{
		SessionID:     session.ID,
		UserID:        session.UserID,
		RoutineID:     session.RoutineID,
		RoutineName:   session.RoutineName,
		StartedAt:     session.StartedAt,
		FinishedAt:    session.FinishedAt,
		TotalVolumeKg: session.TotalVolumeKg,
		SetCount:      len(session.Sets),
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordSessionPersisted(session.StartedAt)
	return nil
}
