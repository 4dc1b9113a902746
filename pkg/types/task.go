package types

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxStatementLength is the upper bound on a task statement, counted in
// Unicode characters after surrounding whitespace is trimmed.
const MaxStatementLength = 100

// DateLayout is the only accepted wire and storage format for task dates.
const DateLayout = "2006-01-02"

// Date aggregation limits.
const (
	DefaultDatesLimit = 30
	MaxDatesLimit     = 100
)

// Task is a single to-do item owned by one user and filed under one calendar
// date. Order is meaningful only among tasks sharing UserID and TaskDate.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Statement   string    `json:"statement"`
	TaskDate    string    `json:"task_date"`
	Order       int       `json:"order"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask carries the fields a caller supplies when creating a task.
// The store assigns ID, Order and timestamps.
type NewTask struct {
	UserID      string
	Statement   string
	TaskDate    string
	IsCompleted bool
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Statement   *string `json:"statement,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Statement == nil && p.IsCompleted == nil
}

// TaskFilter enumerates the optional listing criteria. Set fields combine
// with AND; a nil or blank Search matches everything.
type TaskFilter struct {
	Search      *string
	Date        *string
	IsCompleted *bool
}

// DateCount is one row of the per-date summary.
type DateCount struct {
	Date      string `json:"date"`
	TaskCount int    `json:"task_count"`
}

// Bucket identifies the (owner, date) scope within which Order is compared.
type Bucket struct {
	UserID   string
	TaskDate string
}

// Bucket returns the ordering scope of the task.
func (t *Task) Bucket() Bucket {
	return Bucket{UserID: t.UserID, TaskDate: t.TaskDate}
}

// NormalizeStatement trims the statement and checks it against the length
// bound. It returns the trimmed text.
func NormalizeStatement(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Invalid("statement", ErrStatementRequired)
	}
	if utf8.RuneCountInString(s) > MaxStatementLength {
		return "", Invalid("statement", ErrStatementTooLong)
	}
	return s, nil
}

// ParseDate validates a YYYY-MM-DD calendar date and returns it in canonical
// form. field names the input for the resulting ValidationError.
func ParseDate(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Invalid(field, ErrDateRequired)
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", Invalid(field, ErrInvalidDate)
	}
	return d.Format(DateLayout), nil
}

// ClampDatesLimit applies the default and the ceiling for date aggregation.
func ClampDatesLimit(limit int) int {
	if limit <= 0 {
		return DefaultDatesLimit
	}
	if limit > MaxDatesLimit {
		return MaxDatesLimit
	}
	return limit
}
