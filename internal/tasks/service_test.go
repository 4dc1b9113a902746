package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dayplan/internal/sqlite"
	"github.com/mesh-intelligence/dayplan/pkg/types"
)

const (
	alice = "alice"
	bob   = "bob"
	day   = "2025-12-01"
)

func setupService(t *testing.T) (*Service, types.TaskStore) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	store, err := b.Tasks()
	require.NoError(t, err)
	return NewService(store), store
}

func create(t *testing.T, svc *Service, owner, statement, date string) *types.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), owner, types.NewTask{Statement: statement, TaskDate: date})
	require.NoError(t, err)
	return task
}

func taskIDs(tasks []*types.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestServiceCreateUsesActingUser(t *testing.T) {
	svc, _ := setupService(t)

	task, err := svc.Create(context.Background(), alice, types.NewTask{UserID: bob, Statement: "mine", TaskDate: day})
	require.NoError(t, err)
	assert.Equal(t, alice, task.UserID)

	_, err = svc.Create(context.Background(), "", types.NewTask{Statement: "x", TaskDate: day})
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestServiceCrossUserAccessIsDenied(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t)
	t1 := create(t, svc, alice, "Alice's task", day)

	_, err := svc.Get(ctx, bob, t1.ID)
	assert.ErrorIs(t, err, types.ErrForbidden)

	statement := "hijacked"
	_, err = svc.Update(ctx, bob, t1.ID, types.TaskPatch{Statement: &statement})
	assert.ErrorIs(t, err, types.ErrForbidden)

	_, err = svc.Toggle(ctx, bob, t1.ID)
	assert.ErrorIs(t, err, types.ErrForbidden)

	err = svc.Delete(ctx, bob, t1.ID)
	assert.ErrorIs(t, err, types.ErrForbidden)

	err = svc.Reorder(ctx, bob, day, []string{t1.ID})
	assert.ErrorIs(t, err, types.ErrForbidden)

	listed, err := svc.List(ctx, bob, types.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	got, err := store.Get(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice's task", got.Statement)
	assert.False(t, got.IsCompleted)
	assert.Equal(t, 0, got.Order)
}

func TestServiceGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	task := create(t, svc, alice, "Specific task", day)

	got, err := svc.Get(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Specific task", got.Statement)

	_, err = svc.Get(ctx, alice, "0190f0f0-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = svc.Get(ctx, alice, "not-a-uuid")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	task := create(t, svc, alice, "Original statement", day)

	done := true
	got, err := svc.Update(ctx, alice, task.ID, types.TaskPatch{IsCompleted: &done})
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, "Original statement", got.Statement)

	statement := "Updated statement"
	got, err = svc.Update(ctx, alice, task.ID, types.TaskPatch{Statement: &statement})
	require.NoError(t, err)
	assert.Equal(t, "Updated statement", got.Statement)
	assert.True(t, got.IsCompleted)

	empty := " "
	_, err = svc.Update(ctx, alice, task.ID, types.TaskPatch{Statement: &empty})
	assert.ErrorIs(t, err, types.ErrStatementRequired)
}

func TestServiceToggle(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	task := create(t, svc, alice, "toggle", day)

	got, err := svc.Toggle(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
}

func TestServiceDeleteThenFetch(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	task := create(t, svc, alice, "Delete me", day)

	require.NoError(t, svc.Delete(ctx, alice, task.ID))

	_, err := svc.Get(ctx, alice, task.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = svc.Delete(ctx, alice, task.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestServiceListSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	groceries := create(t, svc, alice, "Buy groceries", day)
	create(t, svc, alice, "Call mom", day)

	search := "groceries"
	got, err := svc.List(ctx, alice, types.TaskFilter{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, []string{groceries.ID}, taskIDs(got))
}

func TestServiceDates(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	for _, d := range []string{"2025-12-01", "2025-12-02", "2025-12-03", "2025-12-04", "2025-12-05"} {
		create(t, svc, alice, "task", d)
	}
	create(t, svc, alice, "second", "2025-12-05")

	got, err := svc.Dates(ctx, alice, 3)
	require.NoError(t, err)
	assert.Equal(t, []types.DateCount{
		{Date: "2025-12-05", TaskCount: 2},
		{Date: "2025-12-04", TaskCount: 1},
		{Date: "2025-12-03", TaskCount: 1},
	}, got)

	got, err = svc.Dates(ctx, alice, 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = svc.Dates(ctx, alice, -1)
	assert.ErrorIs(t, err, types.ErrInvalidLimit)
}

func TestServiceReorder(t *testing.T) {
	ctx := context.Background()

	t.Run("applies the requested sequence", func(t *testing.T) {
		svc, _ := setupService(t)
		t1 := create(t, svc, alice, "T1", day)
		t2 := create(t, svc, alice, "T2", day)
		t3 := create(t, svc, alice, "T3", day)

		require.NoError(t, svc.Reorder(ctx, alice, day, []string{t3.ID, t1.ID, t2.ID}))

		date := day
		got, err := svc.List(ctx, alice, types.TaskFilter{Date: &date})
		require.NoError(t, err)
		assert.Equal(t, []string{t3.ID, t1.ID, t2.ID}, taskIDs(got))
	})

	t.Run("a foreign task rejects the whole request", func(t *testing.T) {
		svc, store := setupService(t)
		t1 := create(t, svc, alice, "T1", day)
		t2 := create(t, svc, alice, "T2", day)
		theirs := create(t, svc, bob, "B1", day)

		err := svc.Reorder(ctx, alice, day, []string{t2.ID, theirs.ID, t1.ID})
		require.ErrorIs(t, err, types.ErrForbidden)

		for _, id := range []string{t1.ID, t2.ID, theirs.ID} {
			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Order, "task %s must keep its order", id)
		}
	})

	t.Run("a task on another date rejects the whole request", func(t *testing.T) {
		svc, store := setupService(t)
		t1 := create(t, svc, alice, "T1", day)
		other := create(t, svc, alice, "other", "2025-12-02")

		err := svc.Reorder(ctx, alice, day, []string{other.ID, t1.ID})
		require.ErrorIs(t, err, types.ErrForbidden)

		got, err := store.Get(ctx, t1.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Order)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		svc, _ := setupService(t)
		t1 := create(t, svc, alice, "T1", day)

		err := svc.Reorder(ctx, alice, day, []string{t1.ID, "0190f0f0-0000-7000-8000-000000000000"})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("malformed input is a validation error", func(t *testing.T) {
		svc, _ := setupService(t)
		t1 := create(t, svc, alice, "T1", day)

		tests := []struct {
			name    string
			date    string
			ids     []string
			wantErr error
		}{
			{name: "empty list", date: day, ids: nil, wantErr: types.ErrInvalidTaskIDs},
			{name: "malformed id", date: day, ids: []string{"42"}, wantErr: types.ErrInvalidID},
			{name: "duplicate id", date: day, ids: []string{t1.ID, t1.ID}, wantErr: types.ErrDuplicateTaskID},
			{name: "missing date", date: "", ids: []string{t1.ID}, wantErr: types.ErrDateRequired},
			{name: "bad date", date: "2025-13-01", ids: []string{t1.ID}, wantErr: types.ErrInvalidDate},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := svc.Reorder(ctx, alice, tt.date, tt.ids)
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, types.IsValidation(err))
			})
		}
	})
}
