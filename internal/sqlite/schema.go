package sqlite

// Schema DDL. Statements are idempotent so Attach can run them against an
// existing database file.
const (
	createTasks = `CREATE TABLE IF NOT EXISTS tasks (
    task_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    statement TEXT NOT NULL,
    task_date TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0 CHECK (sort_order >= 0),
    is_completed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL for the listing, bucket and aggregation queries.
const (
	idxTasksUserDate  = `CREATE INDEX IF NOT EXISTS idx_tasks_user_date ON tasks(user_id, task_date);`
	idxTasksUserOrder = `CREATE INDEX IF NOT EXISTS idx_tasks_user_order ON tasks(user_id, sort_order, created_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createTasks,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxTasksUserDate,
	idxTasksUserOrder,
}
