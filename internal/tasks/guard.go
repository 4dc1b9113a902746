package tasks

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/dayplan/pkg/types"
)

// CanView reports whether actor may read task.
func CanView(actor string, task *types.Task) bool {
	return actor != "" && task != nil && actor == task.UserID
}

// CanMutate reports whether actor may update or delete task.
func CanMutate(actor string, task *types.Task) bool {
	return actor != "" && task != nil && actor == task.UserID
}

// Guard loads the tasks a request targets and denies cross-user access before
// any mutation or detailed read reaches the store.
type Guard struct {
	store types.TaskStore
}

// NewGuard creates a Guard backed by store.
func NewGuard(store types.TaskStore) *Guard {
	return &Guard{store: store}
}

// AuthorizeView loads the task and returns it if actor owns it.
// Returns ErrNotFound for a missing task and ErrForbidden for a foreign one.
func (g *Guard) AuthorizeView(ctx context.Context, actor, taskID string) (*types.Task, error) {
	task, err := g.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, task) {
		return nil, types.ErrForbidden
	}
	return task, nil
}

// AuthorizeMutate is AuthorizeView for update, toggle and delete.
func (g *Guard) AuthorizeMutate(ctx context.Context, actor, taskID string) (*types.Task, error) {
	task, err := g.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanMutate(actor, task) {
		return nil, types.ErrForbidden
	}
	return task, nil
}

// AuthorizeReorder requires every referenced task to exist, to belong to actor
// and to be filed under date. One failing task denies the whole request.
func (g *Guard) AuthorizeReorder(ctx context.Context, actor, date string, taskIDs []string) error {
	loaded, err := g.store.GetMany(ctx, taskIDs)
	if err != nil {
		return fmt.Errorf("loading reorder targets: %w", err)
	}

	byID := make(map[string]*types.Task, len(loaded))
	for _, t := range loaded {
		byID[t.ID] = t
	}

	want := types.Bucket{UserID: actor, TaskDate: date}
	for _, id := range taskIDs {
		t, ok := byID[id]
		if !ok {
			return types.ErrNotFound
		}
		if t.Bucket() != want {
			return types.ErrForbidden
		}
	}
	return nil
}
