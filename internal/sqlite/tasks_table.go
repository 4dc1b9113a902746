// This file implements the task store accessor for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/dayplan/pkg/types"
)

// Compile-time interface check: tasksTable must implement TaskStore.
var _ types.TaskStore = (*tasksTable)(nil)

// timeLayout is fixed-width so that created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const taskColumns = "task_id, user_id, statement, task_date, sort_order, is_completed, created_at, updated_at"

// likeEscaper escapes LIKE metacharacters so search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// tasksTable implements TaskStore. Each operation hydrates rows into
// *types.Task values; callers never see driver types.
type tasksTable struct {
	backend *Backend
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// newTaskID generates a UUID v7 string. V7 ids are time ordered, which makes
// them a stable final tie-break in listings.
func newTaskID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}

func now() time.Time {
	return time.Now().UTC()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Create validates the input and inserts a new task with order 0.
func (tt *tasksTable) Create(ctx context.Context, in types.NewTask) (*types.Task, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, types.Invalid("user_id", types.ErrInvalidOwner)
	}
	statement, err := types.NormalizeStatement(in.Statement)
	if err != nil {
		return nil, err
	}
	taskDate, err := types.ParseDate("task_date", in.TaskDate)
	if err != nil {
		return nil, err
	}

	db, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}

	id, err := newTaskID()
	if err != nil {
		return nil, err
	}
	ts := now()
	task := &types.Task{
		ID:          id,
		UserID:      in.UserID,
		Statement:   statement,
		TaskDate:    taskDate,
		Order:       0,
		IsCompleted: in.IsCompleted,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		task.ID, task.UserID, task.Statement, task.TaskDate, task.Order,
		task.IsCompleted, formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	return task, nil
}

// Get retrieves a task by ID.
// Returns ErrNotFound if no row exists.
func (tt *tasksTable) Get(ctx context.Context, id string) (*types.Task, error) {
	if id == "" {
		return nil, types.Invalid("id", types.ErrInvalidID)
	}
	db, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE task_id = ?", id)
	task, err := hydrateTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return task, nil
}

// GetMany loads every existing task among ids. Missing ids are skipped.
func (tt *tasksTable) GetMany(ctx context.Context, ids []string) ([]*types.Task, error) {
	if len(ids) == 0 {
		return []*types.Task{}, nil
	}
	db, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := "SELECT " + taskColumns + " FROM tasks WHERE task_id IN (" + strings.Join(placeholders, ", ") + ")"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	return collectTasks(rows)
}

// UpdatePartial writes only the fields present in patch. An empty patch is a
// no-op that still returns the current state.
func (tt *tasksTable) UpdatePartial(ctx context.Context, task *types.Task, patch types.TaskPatch) (*types.Task, error) {
	if task == nil || task.ID == "" {
		return nil, types.Invalid("id", types.ErrInvalidID)
	}

	var sets []string
	var args []any
	if patch.Statement != nil {
		statement, err := types.NormalizeStatement(*patch.Statement)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "statement = ?")
		args = append(args, statement)
	}
	if patch.IsCompleted != nil {
		sets = append(sets, "is_completed = ?")
		args = append(args, *patch.IsCompleted)
	}
	if len(sets) == 0 {
		return tt.Get(ctx, task.ID)
	}

	db, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(now()), task.ID)

	res, err := db.ExecContext(ctx, "UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE task_id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return tt.Get(ctx, task.ID)
}

// ToggleCompletion flips is_completed in a single statement.
func (tt *tasksTable) ToggleCompletion(ctx context.Context, task *types.Task) (*types.Task, error) {
	if task == nil || task.ID == "" {
		return nil, types.Invalid("id", types.ErrInvalidID)
	}
	db, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}

	res, err := db.ExecContext(ctx,
		"UPDATE tasks SET is_completed = 1 - is_completed, updated_at = ? WHERE task_id = ?",
		formatTime(now()), task.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("toggling task %s: %w", task.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return tt.Get(ctx, task.ID)
}

// Delete permanently removes the task.
// Returns ErrNotFound when the row is already gone.
func (tt *tasksTable) Delete(ctx context.Context, task *types.Task) error {
	if task == nil || task.ID == "" {
		return types.Invalid("id", types.ErrInvalidID)
	}
	db, err := tt.backend.conn()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE task_id = ?", task.ID)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", task.ID, err)
	}
	return requireAffected(res)
}

// List returns the owner's tasks that match every set filter field.
// The user_id predicate is unconditional.
func (tt *tasksTable) List(ctx context.Context, ownerID string, filter types.TaskFilter) ([]*types.Task, error) {
	if ownerID == "" {
		return nil, types.Invalid("user_id", types.ErrInvalidOwner)
	}

	conditions := []string{"user_id = ?"}
	args := []any{ownerID}

	if filter.Search != nil {
		if term := strings.TrimSpace(*filter.Search); term != "" {
			conditions = append(conditions, foldFuncName+`(statement) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+likeEscaper.Replace(foldSearch(term))+"%")
		}
	}
	if filter.Date != nil {
		date, err := types.ParseDate("date", *filter.Date)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "task_date = ?")
		args = append(args, date)
	}
	if filter.IsCompleted != nil {
		conditions = append(conditions, "is_completed = ?")
		args = append(args, *filter.IsCompleted)
	}

	db, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}

	query := "SELECT " + taskColumns + " FROM tasks WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY sort_order ASC, created_at DESC, task_id DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return collectTasks(rows)
}

// AggregateDates counts the owner's tasks per date, newest date first.
func (tt *tasksTable) AggregateDates(ctx context.Context, ownerID string, limit int) ([]types.DateCount, error) {
	if ownerID == "" {
		return nil, types.Invalid("user_id", types.ErrInvalidOwner)
	}
	db, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT task_date, COUNT(*) FROM tasks WHERE user_id = ? GROUP BY task_date ORDER BY task_date DESC LIMIT ?",
		ownerID, types.ClampDatesLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating task dates: %w", err)
	}
	defer rows.Close()

	results := []types.DateCount{}
	for rows.Next() {
		var dc types.DateCount
		if err := rows.Scan(&dc.Date, &dc.TaskCount); err != nil {
			return nil, fmt.Errorf("scanning date count: %w", err)
		}
		results = append(results, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating date counts: %w", err)
	}
	return results, nil
}

// BulkSetOrder assigns order = position for each id in one transaction.
// Rows outside (ownerID, taskDate) are not written. A repeated id ends up
// with the position of its last occurrence.
func (tt *tasksTable) BulkSetOrder(ctx context.Context, ownerID, taskDate string, orderedIDs []string) (int, error) {
	if ownerID == "" {
		return 0, types.Invalid("user_id", types.ErrInvalidOwner)
	}
	date, err := types.ParseDate("date", taskDate)
	if err != nil {
		return 0, err
	}
	db, err := tt.backend.conn()
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"UPDATE tasks SET sort_order = ?, updated_at = ? WHERE task_id = ? AND user_id = ? AND task_date = ?")
	if err != nil {
		return 0, fmt.Errorf("preparing reorder: %w", err)
	}
	defer stmt.Close()

	updatedAt := formatTime(now())
	written := 0
	for i, id := range orderedIDs {
		res, err := stmt.ExecContext(ctx, i, updatedAt, id, ownerID, date)
		if err != nil {
			return 0, fmt.Errorf("setting order for task %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading rows affected: %w", err)
		}
		written += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing reorder: %w", err)
	}
	return written, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

func collectTasks(rows *sql.Rows) ([]*types.Task, error) {
	defer rows.Close()

	results := []*types.Task{}
	for rows.Next() {
		task, err := hydrateTask(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating task: %w", err)
		}
		results = append(results, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return results, nil
}

// hydrateTask scans one row in taskColumns order.
func hydrateTask(row rowScanner) (*types.Task, error) {
	var t types.Task
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.UserID, &t.Statement, &t.TaskDate, &t.Order, &t.IsCompleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing task created_at: %w", err)
	}
	t.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing task updated_at: %w", err)
	}
	return &t, nil
}
