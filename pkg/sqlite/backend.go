// Package sqlite exposes the SQLite task datastore to programs outside this
// module while keeping its implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/dayplan/internal/sqlite"
	"github.com/mesh-intelligence/dayplan/pkg/types"
)

// NewBackend creates an unattached SQLite datastore.
//
// Example:
//
//	ds := sqlite.NewBackend()
//	err := ds.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".dayplan-db",
//	})
//	defer ds.Detach()
//	tasks, err := ds.Tasks()
func NewBackend() types.Datastore {
	return sqlite.NewBackend()
}
