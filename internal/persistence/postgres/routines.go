package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/workout/internal/domain"
	"example.com/workout/internal/events"
	"example.com/workout/internal/observability"
)

const routineColumns = `routine_id, user_id, title, subtitle, tags, schedule_days, last_performed, completion_rate, streak, created_at`

// ListByUser returns the caller's routines with exercise counts, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.RoutineSummary, error) {
	const query = `SELECT r.routine_id, r.user_id, r.title, r.subtitle, r.tags, r.schedule_days,
            r.last_performed, r.completion_rate, r.streak, r.created_at, COUNT(e.exercise_id)
        FROM routines r
        LEFT JOIN routine_exercises e ON e.routine_id = r.routine_id
        WHERE r.user_id = $1
        GROUP BY r.routine_id
        ORDER BY r.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.RoutineSummary, 0)
	for rows.Next() {
		var summary domain.RoutineSummary
		var tags, scheduleDays string
		if err := rows.Scan(&summary.ID, &summary.UserID, &summary.Title, &summary.Subtitle,
			&tags, &scheduleDays, &summary.LastPerformed, &summary.CompletionRate,
			&summary.Streak, &summary.CreatedAt, &summary.ExerciseCount); err != nil {
			return nil, err
		}
		if summary.Tags, err = decodeList(tags); err != nil {
			return nil, err
		}
		if summary.ScheduleDays, err = decodeList(scheduleDays); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Get retrieves a routine with its ordered exercises and set templates.
// Returns nil when the routine is absent or owned by another user.
func (r *Repository) Get(ctx context.Context, userID, routineID string) (*domain.Routine, error) {
	const query = `SELECT ` + routineColumns + ` FROM routines WHERE routine_id=$1 AND user_id=$2`

	row := r.pool.QueryRow(ctx, query, routineID, userID)
	var routine domain.Routine
	var tags, scheduleDays string
	err := row.Scan(&routine.ID, &routine.UserID, &routine.Title, &routine.Subtitle,
		&tags, &scheduleDays, &routine.LastPerformed, &routine.CompletionRate,
		&routine.Streak, &routine.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if routine.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	if routine.ScheduleDays, err = decodeList(scheduleDays); err != nil {
		return nil, err
	}

	if routine.Exercises, err = r.loadExercises(ctx, routineID); err != nil {
		return nil, err
	}
	return &routine, nil
}

func (r *Repository) loadExercises(ctx context.Context, routineID string) ([]domain.Exercise, error) {
	const exerciseQuery = `SELECT exercise_id, routine_id, name, muscle, equipment, rest_seconds, sort_order
        FROM routine_exercises WHERE routine_id=$1 ORDER BY sort_order`

	rows, err := r.pool.Query(ctx, exerciseQuery, routineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]domain.Exercise, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var ex domain.Exercise
		var equipment string
		if err := rows.Scan(&ex.ID, &ex.RoutineID, &ex.Name, &ex.Muscle, &equipment, &ex.RestSeconds, &ex.SortOrder); err != nil {
			return nil, err
		}
		if ex.Equipment, err = decodeList(equipment); err != nil {
			return nil, err
		}
		ex.Templates = make([]domain.SetTemplate, 0)
		exercises = append(exercises, ex)
		ids = append(ids, ex.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return exercises, nil
	}

	const templateQuery = `SELECT template_id, exercise_id, sets, reps, weight, nivel_anillas, sort_order
        FROM set_templates WHERE exercise_id = ANY($1) ORDER BY exercise_id, sort_order`

	tmplRows, err := r.pool.Query(ctx, templateQuery, ids)
	if err != nil {
		return nil, err
	}
	defer tmplRows.Close()

	byExercise := make(map[int64][]domain.SetTemplate, len(exercises))
	for tmplRows.Next() {
		var tmpl domain.SetTemplate
		if err := tmplRows.Scan(&tmpl.ID, &tmpl.ExerciseID, &tmpl.Sets, &tmpl.Reps, &tmpl.Weight, &tmpl.NivelAnillas, &tmpl.SortOrder); err != nil {
			return nil, err
		}
		byExercise[tmpl.ExerciseID] = append(byExercise[tmpl.ExerciseID], tmpl)
	}
	if err := tmplRows.Err(); err != nil {
		return nil, err
	}

	for i := range exercises {
		if templates, ok := byExercise[exercises[i].ID]; ok {
			exercises[i].Templates = templates
		}
	}
	return exercises, nil
}

// Create persists the routine row and its exercise tree in one transaction.
func (r *Repository) Create(ctx context.Context, routine domain.Routine) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	tags, err := encodeList(routine.Tags)
	if err != nil {
		return err
	}
	scheduleDays, err := encodeList(routine.ScheduleDays)
	if err != nil {
		return err
	}

	const insertRoutine = `INSERT INTO routines (routine_id, user_id, title, subtitle, tags, schedule_days, last_performed, completion_rate, streak, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err = tx.Exec(ctx, insertRoutine,
		routine.ID,
		routine.UserID,
		routine.Title,
		routine.Subtitle,
		tags,
		scheduleDays,
		routine.LastPerformed,
		routine.CompletionRate,
		routine.Streak,
		routine.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err = r.insertExercises(ctx, tx, routine.ID, routine.Exercises); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.CountRoutineWrite("create")
	return nil
}

// Replace updates the routine's scalar fields, discards its exercise tree,
// and re-inserts the submitted one. Returns false when the routine is absent
// or owned by another user; nothing is written in that case.
func (r *Repository) Replace(ctx context.Context, routine domain.Routine) (found bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil || !found {
			tx.Rollback(ctx)
		}
	}()

	tags, err := encodeList(routine.Tags)
	if err != nil {
		return false, err
	}
	scheduleDays, err := encodeList(routine.ScheduleDays)
	if err != nil {
		return false, err
	}

	const updateRoutine = `UPDATE routines SET title=$3, subtitle=$4, tags=$5, schedule_days=$6
        WHERE routine_id=$1 AND user_id=$2`

	tag, err := tx.Exec(ctx, updateRoutine, routine.ID, routine.UserID, routine.Title, routine.Subtitle, tags, scheduleDays)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err = tx.Exec(ctx, `DELETE FROM routine_exercises WHERE routine_id=$1`, routine.ID); err != nil {
		return false, err
	}
	if err = r.insertExercises(ctx, tx, routine.ID, routine.Exercises); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	observability.CountRoutineWrite("update")
	return true, nil
}

// Delete removes the routine; exercises and templates cascade, sessions keep
// their snapshot with the routine reference cleared by the schema.
func (r *Repository) Delete(ctx context.Context, userID, routineID string) (found bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil || !found {
			tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM routines WHERE routine_id=$1 AND user_id=$2`, routineID, userID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err = r.insertOutbox(ctx, tx, userID, "routine", routineID, "routine.deleted", events.RoutineDeleted{
		RoutineID:  routineID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	observability.CountRoutineWrite("delete")
	return true, nil
}

func (r *Repository) insertExercises(ctx context.Context, tx pgx.Tx, routineID string, exercises []domain.Exercise) error {
	const insertExercise = `INSERT INTO routine_exercises (routine_id, name, muscle, equipment, rest_seconds, sort_order)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING exercise_id`

	const insertTemplate = `INSERT INTO set_templates (exercise_id, sets, reps, weight, nivel_anillas, sort_order)
        VALUES ($1,$2,$3,$4,$5,$6)`

	for _, ex := range exercises {
		equipment, err := encodeList(ex.Equipment)
		if err != nil {
			return err
		}

		var exerciseID int64
		row := tx.QueryRow(ctx, insertExercise, routineID, ex.Name, ex.Muscle, equipment, ex.RestSeconds, ex.SortOrder)
		if err := row.Scan(&exerciseID); err != nil {
			return err
		}

		for _, tmpl := range ex.Templates {
			if _, err := tx.Exec(ctx, insertTemplate, exerciseID, tmpl.Sets, tmpl.Reps, tmpl.Weight, tmpl.NivelAnillas, tmpl.SortOrder); err != nil {
				return err
			}
		}
	}
	return nil
}
