package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dayplan/pkg/types"
)

// fakeStore serves Get/GetMany from a map; other methods are unused by Guard.
type fakeStore struct {
	types.TaskStore
	tasks   map[string]*types.Task
	loadErr error
}

func (f *fakeStore) Get(_ context.Context, id string) (*types.Task, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) GetMany(_ context.Context, ids []string) ([]*types.Task, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var out []*types.Task
	for _, id := range ids {
		if t, ok := f.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestCanViewAndMutate(t *testing.T) {
	task := &types.Task{ID: "t1", UserID: alice}

	assert.True(t, CanView(alice, task))
	assert.False(t, CanView(bob, task))
	assert.False(t, CanView("", &types.Task{ID: "t2"}))
	assert.False(t, CanView(alice, nil))

	assert.True(t, CanMutate(alice, task))
	assert.False(t, CanMutate(bob, task))
}

func TestGuardAuthorizeView(t *testing.T) {
	store := &fakeStore{tasks: map[string]*types.Task{
		"t1": {ID: "t1", UserID: alice, TaskDate: day},
	}}
	g := NewGuard(store)
	ctx := context.Background()

	got, err := g.AuthorizeView(ctx, alice, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	_, err = g.AuthorizeView(ctx, bob, "t1")
	assert.ErrorIs(t, err, types.ErrForbidden)

	_, err = g.AuthorizeMutate(ctx, bob, "t1")
	assert.ErrorIs(t, err, types.ErrForbidden)

	_, err = g.AuthorizeView(ctx, alice, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGuardAuthorizeReorder(t *testing.T) {
	store := &fakeStore{tasks: map[string]*types.Task{
		"a1": {ID: "a1", UserID: alice, TaskDate: day},
		"a2": {ID: "a2", UserID: alice, TaskDate: day},
		"a3": {ID: "a3", UserID: alice, TaskDate: "2025-12-02"},
		"b1": {ID: "b1", UserID: bob, TaskDate: day},
	}}
	g := NewGuard(store)
	ctx := context.Background()

	tests := []struct {
		name    string
		ids     []string
		wantErr error
	}{
		{name: "all in bucket", ids: []string{"a2", "a1"}},
		{name: "foreign owner", ids: []string{"a1", "b1"}, wantErr: types.ErrForbidden},
		{name: "other date", ids: []string{"a3", "a1"}, wantErr: types.ErrForbidden},
		{name: "missing task", ids: []string{"a1", "zz"}, wantErr: types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AuthorizeReorder(ctx, alice, day, tt.ids)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGuardPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	g := NewGuard(&fakeStore{loadErr: boom})

	err := g.AuthorizeReorder(context.Background(), alice, day, []string{"a1"})
	assert.ErrorIs(t, err, boom)

	_, err = g.AuthorizeView(context.Background(), alice, "a1")
	assert.ErrorIs(t, err, boom)
}
