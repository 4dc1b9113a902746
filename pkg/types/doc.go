// Package types defines the Task entity, the filter and patch shapes used to
// query and mutate it, the Datastore and TaskStore interfaces, and the
// standard errors shared by every layer of dayplan.
package types
