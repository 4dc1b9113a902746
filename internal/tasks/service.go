// Package tasks holds the ownership guard and the task service that sits
// between the request boundary and the task store. Every operation takes the
// acting user explicitly; nothing is read from ambient request state.
package tasks

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/dayplan/pkg/types"
)

// Service implements the task operations: filtered listing, date summaries,
// single-task CRUD, completion toggling and date-scoped reordering.
type Service struct {
	store types.TaskStore
	guard *Guard
}

// NewService creates a Service over store.
func NewService(store types.TaskStore) *Service {
	return &Service{store: store, guard: NewGuard(store)}
}

// List returns the owner's tasks matching filter.
func (s *Service) List(ctx context.Context, owner string, filter types.TaskFilter) ([]*types.Task, error) {
	if owner == "" {
		return nil, types.ErrUnauthenticated
	}
	return s.store.List(ctx, owner, filter)
}

// Dates returns the owner's per-date task counts. A zero limit selects the
// default; larger limits are clamped.
func (s *Service) Dates(ctx context.Context, owner string, limit int) ([]types.DateCount, error) {
	if owner == "" {
		return nil, types.ErrUnauthenticated
	}
	if limit < 0 {
		return nil, types.Invalid("limit", types.ErrInvalidLimit)
	}
	return s.store.AggregateDates(ctx, owner, types.ClampDatesLimit(limit))
}

// Create files a new task for owner. Any UserID on in is ignored.
func (s *Service) Create(ctx context.Context, owner string, in types.NewTask) (*types.Task, error) {
	if owner == "" {
		return nil, types.ErrUnauthenticated
	}
	in.UserID = owner
	return s.store.Create(ctx, in)
}

// Get returns a task the owner may view.
func (s *Service) Get(ctx context.Context, owner, taskID string) (*types.Task, error) {
	if owner == "" {
		return nil, types.ErrUnauthenticated
	}
	if !validID(taskID) {
		return nil, types.ErrNotFound
	}
	return s.guard.AuthorizeView(ctx, owner, taskID)
}

// Update applies patch to a task the owner may mutate.
func (s *Service) Update(ctx context.Context, owner, taskID string, patch types.TaskPatch) (*types.Task, error) {
	task, err := s.authorizeMutate(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}
	return s.store.UpdatePartial(ctx, task, patch)
}

// Toggle flips the completion flag of a task the owner may mutate.
func (s *Service) Toggle(ctx context.Context, owner, taskID string) (*types.Task, error) {
	task, err := s.authorizeMutate(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}
	return s.store.ToggleCompletion(ctx, task)
}

// Delete removes a task the owner may mutate.
func (s *Service) Delete(ctx context.Context, owner, taskID string) error {
	task, err := s.authorizeMutate(ctx, owner, taskID)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, task)
}

// Reorder makes the stored order of the owner's tasks on date follow
// taskIDs. The request is validated and authorized as a whole before any
// write; the writes themselves commit atomically.
func (s *Service) Reorder(ctx context.Context, owner, date string, taskIDs []string) error {
	if owner == "" {
		return types.ErrUnauthenticated
	}
	date, err := types.ParseDate("date", date)
	if err != nil {
		return err
	}
	if err := validateReorderIDs(taskIDs); err != nil {
		return err
	}
	if err := s.guard.AuthorizeReorder(ctx, owner, date, taskIDs); err != nil {
		return err
	}
	if _, err := s.store.BulkSetOrder(ctx, owner, date, taskIDs); err != nil {
		return fmt.Errorf("reordering tasks: %w", err)
	}
	return nil
}

func (s *Service) authorizeMutate(ctx context.Context, owner, taskID string) (*types.Task, error) {
	if owner == "" {
		return nil, types.ErrUnauthenticated
	}
	if !validID(taskID) {
		return nil, types.ErrNotFound
	}
	return s.guard.AuthorizeMutate(ctx, owner, taskID)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// validateReorderIDs rejects an empty list, malformed ids and repeats.
func validateReorderIDs(taskIDs []string) error {
	if len(taskIDs) == 0 {
		return types.Invalid("task_ids", types.ErrInvalidTaskIDs)
	}
	seen := make(map[string]struct{}, len(taskIDs))
	for i, id := range taskIDs {
		field := fmt.Sprintf("task_ids.%d", i)
		if !validID(id) {
			return types.Invalid(field, types.ErrInvalidID)
		}
		if _, dup := seen[id]; dup {
			return types.Invalid(field, types.ErrDuplicateTaskID)
		}
		seen[id] = struct{}{}
	}
	return nil
}
