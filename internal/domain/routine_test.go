package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateRoutineAssignsDenseSortOrders(t *testing.T) {
	repo := &captureRoutineRepo{}
	service := NewRoutineService(repo)

	input := SaveRoutineInput{
		UserID: "user-1",
		Title:  "Full Body",
		Exercises: []ExerciseInput{
			{Name: "Squat", Rows: []SetTemplateInput{{Sets: "5", Reps: "5", Weight: "100"}, {Sets: "1", Reps: "3", Weight: "110"}}},
			{Name: "Pull Up", Rows: []SetTemplateInput{{Sets: "3", Reps: "8-10", Weight: "0", Nivel: "2"}}},
			{Name: "Plank", Rows: nil},
		},
	}

	routine, err := service.CreateRoutine(context.Background(), input)
	require.NoError(t, err)
	require.NotEmpty(t, routine.ID)
	require.Equal(t, DefaultLastPerformed, routine.LastPerformed)

	require.Len(t, repo.created, 1)
	exercises := repo.created[0].Exercises
	require.Len(t, exercises, 3)
	for i, ex := range exercises {
		require.Equal(t, i, ex.SortOrder)
	}
	require.Len(t, exercises[0].Templates, 2)
	require.Equal(t, 0, exercises[0].Templates[0].SortOrder)
	require.Equal(t, 1, exercises[0].Templates[1].SortOrder)
	require.Equal(t, "2", exercises[1].Templates[0].NivelAnillas)
	require.Empty(t, exercises[2].Templates)
}

func TestUpdateRoutineMapsMissingToNotFound(t *testing.T) {
	service := NewRoutineService(&captureRoutineRepo{})

	err := service.UpdateRoutine(context.Background(), "missing", SaveRoutineInput{UserID: "user-1", Title: "X"})
	require.ErrorIs(t, err, ErrRoutineNotFound)
}

func TestDeleteRoutineMapsMissingToNotFound(t *testing.T) {
	service := NewRoutineService(&captureRoutineRepo{})

	err := service.DeleteRoutine(context.Background(), "user-1", "missing")
	require.ErrorIs(t, err, ErrRoutineNotFound)
}

func TestGetRoutineMapsNilToNotFound(t *testing.T) {
	service := NewRoutineService(&captureRoutineRepo{})

	_, err := service.GetRoutine(context.Background(), "user-1", "missing")
	require.ErrorIs(t, err, ErrRoutineNotFound)
}

type captureRoutineRepo struct {
	created []Routine
}

func (c *captureRoutineRepo) ListByUser(ctx context.Context, userID string) ([]RoutineSummary, error) {
	return nil, nil
}

func (c *captureRoutineRepo) Get(ctx context.Context, userID, routineID string) (*Routine, error) {
	return nil, nil
}

func (c *captureRoutineRepo) Create(ctx context.Context, routine Routine) error {
	c.created = append(c.created, routine)
	return nil
}

func (c *captureRoutineRepo) Replace(ctx context.Context, routine Routine) (bool, error) {
	return false, nil
}

func (c *captureRoutineRepo) Delete(ctx context.Context, userID, routineID string) (bool, error) {
	return false, nil
}
