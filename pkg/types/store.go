package types

import (
	"context"
	"errors"
)

// TaskStore is the persistence boundary for tasks. It is the only component
// that issues reads and writes against the datastore.
type TaskStore interface {
	// Create validates and inserts a task, assigning ID and timestamps.
	Create(ctx context.Context, in NewTask) (*Task, error)

	// Get returns the task with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Task, error)

	// GetMany returns the tasks that exist among ids, in no particular order.
	// Missing ids are simply absent from the result.
	GetMany(ctx context.Context, ids []string) ([]*Task, error)

	// UpdatePartial applies only the non-nil fields of patch and returns the
	// post-update state.
	UpdatePartial(ctx context.Context, task *Task, patch TaskPatch) (*Task, error)

	// ToggleCompletion flips IsCompleted in a single write.
	ToggleCompletion(ctx context.Context, task *Task) (*Task, error)

	// Delete removes the task permanently. A second delete returns ErrNotFound.
	Delete(ctx context.Context, task *Task) error

	// List returns the owner's tasks matching filter, ordered by Order
	// ascending then CreatedAt descending.
	List(ctx context.Context, ownerID string, filter TaskFilter) ([]*Task, error)

	// AggregateDates returns per-date task counts for the owner, most recent
	// date first, truncated to the clamped limit.
	AggregateDates(ctx context.Context, ownerID string, limit int) ([]DateCount, error)

	// BulkSetOrder sets Order to the list position for every id that belongs
	// to ownerID on taskDate, in one transaction. It returns how many rows
	// were written; out-of-scope ids are skipped.
	BulkSetOrder(ctx context.Context, ownerID, taskDate string, orderedIDs []string) (int, error)
}

// Datastore is the lifecycle wrapper around a storage backend. Callers attach
// it to a Config, obtain the TaskStore, and detach when done.
type Datastore interface {
	// Attach opens the backend described by config. It returns
	// ErrAlreadyAttached if called twice without Detach.
	Attach(config Config) error

	// Detach releases backend resources. It is idempotent.
	Detach() error

	// Tasks returns the task store, or ErrDetached before Attach.
	Tasks() (TaskStore, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// Datastore lifecycle errors.
var (
	ErrDetached        = errors.New("datastore is detached")
	ErrAlreadyAttached = errors.New("datastore is already attached")
)
