// Package domain defines the business logic for the workout service.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRoutineNotFound is returned when a routine does not exist or belongs to
// another user. Callers cannot distinguish the two cases.
var ErrRoutineNotFound = errors.New("routine not found")

// DefaultLastPerformed is the label a routine carries before its first session.
const DefaultLastPerformed = "Nunca"

// Routine is a user-authored workout plan with an ordered exercise tree.
type Routine struct {
	ID             string
	UserID         string
	Title          string
	Subtitle       string
	Tags           []string
	ScheduleDays   []string
	LastPerformed  string
	CompletionRate *int
	Streak         *string
	CreatedAt      time.Time
	Exercises      []Exercise
}

// Exercise is one routine-scoped exercise with its prescribed set templates.
type Exercise struct {
	ID          int64
	RoutineID   string
	Name        string
	Muscle      string
	Equipment   []string
	RestSeconds int
	SortOrder   int
	Templates   []SetTemplate
}

// SetTemplate is a prescribed sets/reps/weight target. Values are free-form
// text so ranges like "8-10" survive round trips.
type SetTemplate struct {
	ID           int64
	ExerciseID   int64
	Sets         string
	Reps         string
	Weight       string
	NivelAnillas string
	SortOrder    int
}

// RoutineSummary is a routine annotated with its current exercise count.
type RoutineSummary struct {
	Routine
	ExerciseCount int
}

// SaveRoutineInput captures the payload shared by create and update.
type SaveRoutineInput struct {
	UserID       string
	Title        string
	Subtitle     string
	Tags         []string
	ScheduleDays []string
	Exercises    []ExerciseInput
}

// ExerciseInput is one submitted exercise spec.
type ExerciseInput struct {
	Name        string
	Muscle      string
	Equipment   []string
	RestSeconds int
	Rows        []SetTemplateInput
}

// SetTemplateInput is one submitted set-template spec.
type SetTemplateInput struct {
	Sets   string
	Reps   string
	Weight string
	Nivel  string
}

// RoutineRepository captures persistence operations for routines. Get returns
// nil when the routine is absent or owned by someone else; Replace and Delete
// report the same condition as false.
type RoutineRepository interface {
	ListByUser(ctx context.Context, userID string) ([]RoutineSummary, error)
	Get(ctx context.Context, userID, routineID string) (*Routine, error)
	Create(ctx context.Context, routine Routine) error
	Replace(ctx context.Context, routine Routine) (bool, error)
	Delete(ctx context.Context, userID, routineID string) (bool, error)
}

// RoutineService orchestrates routine workflows.
type RoutineService struct {
	repo RoutineRepository
}

// NewRoutineService constructs a RoutineService.
func NewRoutineService(repo RoutineRepository) *RoutineService {
	return &RoutineService{repo: repo}
}

// ListRoutines returns the caller's routines with exercise counts, newest first.
func (s *RoutineService) ListRoutines(ctx context.Context, userID string) ([]RoutineSummary, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetRoutine fetches a routine with its ordered exercise tree.
func (s *RoutineService) GetRoutine(ctx context.Context, userID, routineID string) (*Routine, error) {
	routine, err := s.repo.Get(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}
	if routine == nil {
		return nil, ErrRoutineNotFound
	}
	return routine, nil
}

// CreateRoutine persists a new routine tree and returns it.
func (s *RoutineService) CreateRoutine(ctx context.Context, input SaveRoutineInput) (*Routine, error) {
	routine := Routine{
		ID:            uuid.NewString(),
		UserID:        input.UserID,
		Title:         input.Title,
		Subtitle:      input.Subtitle,
		Tags:          input.Tags,
		ScheduleDays:  input.ScheduleDays,
		LastPerformed: DefaultLastPerformed,
		CreatedAt:     time.Now().UTC(),
		Exercises:     buildExercises(input.Exercises),
	}

	if err := s.repo.Create(ctx, routine); err != nil {
		return nil, err
	}
	return &routine, nil
}

// UpdateRoutine replaces the routine's scalar fields and its whole exercise
// tree. Prior exercises and templates are discarded, not diffed.
func (s *RoutineService) UpdateRoutine(ctx context.Context, routineID string, input SaveRoutineInput) error {
	routine := Routine{
		ID:           routineID,
		UserID:       input.UserID,
		Title:        input.Title,
		Subtitle:     input.Subtitle,
		Tags:         input.Tags,
		ScheduleDays: input.ScheduleDays,
		Exercises:    buildExercises(input.Exercises),
	}

	found, err := s.repo.Replace(ctx, routine)
	if err != nil {
		return err
	}
	if !found {
		return ErrRoutineNotFound
	}
	return nil
}

// DeleteRoutine removes the routine and its exercise tree. Historical sessions
// keep their routine-name snapshot; only their routine reference is cleared.
func (s *RoutineService) DeleteRoutine(ctx context.Context, userID, routineID string) error {
	found, err := s.repo.Delete(ctx, userID, routineID)
	if err != nil {
		return err
	}
	if !found {
		return ErrRoutineNotFound
	}
	return nil
}

// buildExercises assigns dense 0-based sort orders from array position.
func buildExercises(inputs []ExerciseInput) []Exercise {
	exercises := make([]Exercise, 0, len(inputs))
	for i, in := range inputs {
		ex := Exercise{
			Name:        in.Name,
			Muscle:      in.Muscle,
			Equipment:   in.Equipment,
			RestSeconds: in.RestSeconds,
			SortOrder:   i,
			Templates:   make([]SetTemplate, 0, len(in.Rows)),
		}
		for j, row := range in.Rows {
			ex.Templates = append(ex.Templates, SetTemplate{
				Sets:         row.Sets,
				Reps:         row.Reps,
				Weight:       row.Weight,
				NivelAnillas: row.Nivel,
				SortOrder:    j,
			})
		}
		exercises = append(exercises, ex)
	}
	return exercises
}
