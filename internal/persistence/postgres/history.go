package postgres

import (
	"context"
	"time"

	"example.com/workout/internal/domain"
)

// ExerciseNames returns distinct exercise names across the user's sessions,
// sorted ascending.
func (r *Repository) ExerciseNames(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT DISTINCT ss.exercise_name
        FROM session_sets ss
        JOIN workout_sessions ws ON ws.session_id = ss.session_id
        WHERE ws.user_id = $1
        ORDER BY ss.exercise_name`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Stats aggregates the user's sets for one exercise name over sessions that
// finished on/after since. COALESCE keeps empty aggregates at zero.
func (r *Repository) Stats(ctx context.Context, userID, exerciseName string, since time.Time) (domain.ExerciseStats, error) {
	const query = `SELECT COALESCE(MAX(ss.reps), 0),
            COALESCE(MAX(ss.weight), 0),
            COUNT(DISTINCT ss.session_id),
            COALESCE(SUM(ss.weight * ss.reps), 0)
        FROM session_sets ss
        JOIN workout_sessions ws ON ws.session_id = ss.session_id
        WHERE ss.exercise_name = $2
          AND ws.user_id = $1
          AND ws.finished_at >= $3`

	var stats domain.ExerciseStats
	row := r.pool.QueryRow(ctx, query, userID, exerciseName, since)
	if err := row.Scan(&stats.MaxReps, &stats.MaxWeight, &stats.TotalSessions, &stats.TotalVolume); err != nil {
		return domain.ExerciseStats{}, err
	}
	return stats, nil
}

// RecentSessions returns up to limit distinct sessions featuring the
// exercise, newest finish time first, each with its ordered sets.
func (r *Repository) RecentSessions(ctx context.Context, userID, exerciseName string, limit int) ([]domain.SessionSets, error) {
	const sessionQuery = `SELECT DISTINCT ss.session_id, ws.routine_name, ws.finished_at
        FROM session_sets ss
        JOIN workout_sessions ws ON ws.session_id = ss.session_id
        WHERE ss.exercise_name = $2 AND ws.user_id = $1
        ORDER BY ws.finished_at DESC NULLS LAST
        LIMIT $3`

	rows, err := r.pool.Query(ctx, sessionQuery, userID, exerciseName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.SessionSets, 0, limit)
	ids := make([]string, 0, limit)
	index := make(map[string]int, limit)
	for rows.Next() {
		var sess domain.SessionSets
		if err := rows.Scan(&sess.SessionID, &sess.RoutineName, &sess.FinishedAt); err != nil {
			return nil, err
		}
		sess.Sets = make([]domain.SetDetail, 0)
		index[sess.SessionID] = len(sessions)
		sessions = append(sessions, sess)
		ids = append(ids, sess.SessionID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	const setQuery = `SELECT session_id, weight, reps, rpe, nivel_anillas
        FROM session_sets
        WHERE session_id = ANY($1) AND exercise_name = $2
        ORDER BY set_id`

	setRows, err := r.pool.Query(ctx, setQuery, ids, exerciseName)
	if err != nil {
		return nil, err
	}
	defer setRows.Close()

	for setRows.Next() {
		var sessionID string
		var set domain.SetDetail
		if err := setRows.Scan(&sessionID, &set.Weight, &set.Reps, &set.RPE, &set.NivelAnillas); err != nil {
			return nil, err
		}
		if i, ok := index[sessionID]; ok {
			sessions[i].Sets = append(sessions[i].Sets, set)
		}
	}
	if err := setRows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// MonthlyVolume buckets the exercise's sets by the calendar month of the
// session's finish time, ascending, at most limit points. In-progress
// sessions (null finish) never contribute.
func (r *Repository) MonthlyVolume(ctx context.Context, userID, exerciseName string, limit int) ([]domain.VolumePoint, error) {
	const query = `SELECT to_char(ws.finished_at, 'Mon') AS month,
            to_char(ws.finished_at, 'YYYY-MM') AS month_key,
            SUM(ss.weight * ss.reps) AS volume
        FROM session_sets ss
        JOIN workout_sessions ws ON ws.session_id = ss.session_id
        WHERE ss.exercise_name = $2
          AND ws.user_id = $1
          AND ws.finished_at IS NOT NULL
        GROUP BY month, month_key
        ORDER BY month_key
        LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, exerciseName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]domain.VolumePoint, 0, limit)
	for rows.Next() {
		var point domain.VolumePoint
		var monthKey string
		if err := rows.Scan(&point.Month, &monthKey, &point.Volume); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}
