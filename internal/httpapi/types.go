package httpapi

import (
	"context"

	"github.com/mesh-intelligence/dayplan/internal/auth"
	"github.com/mesh-intelligence/dayplan/pkg/types"
)

// TaskService is the task core as seen by the handlers. Every call names the
// acting user explicitly.
type TaskService interface {
	List(ctx context.Context, owner string, filter types.TaskFilter) ([]*types.Task, error)
	Dates(ctx context.Context, owner string, limit int) ([]types.DateCount, error)
	Create(ctx context.Context, owner string, in types.NewTask) (*types.Task, error)
	Get(ctx context.Context, owner, taskID string) (*types.Task, error)
	Update(ctx context.Context, owner, taskID string, patch types.TaskPatch) (*types.Task, error)
	Toggle(ctx context.Context, owner, taskID string) (*types.Task, error)
	Delete(ctx context.Context, owner, taskID string) error
	Reorder(ctx context.Context, owner, date string, taskIDs []string) error
}

// Authenticator resolves Authorization headers to identities and ends
// sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (auth.Identity, error)
	Logout(ctx context.Context, id auth.Identity) error
}

// Pinger reports whether the datastore is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

type userResponse struct {
	ID string `json:"id"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type createTaskRequest struct {
	Statement   string `json:"statement"`
	TaskDate    string `json:"task_date"`
	IsCompleted *bool  `json:"is_completed"`
}

// updateTaskRequest accepts task_date only to reject it with a field error
// instead of a generic unknown-field failure.
type updateTaskRequest struct {
	Statement   *string `json:"statement"`
	IsCompleted *bool   `json:"is_completed"`
	TaskDate    *string `json:"task_date"`
}

type reorderRequest struct {
	Date    string   `json:"date"`
	TaskIDs []string `json:"task_ids"`
}
