package types

// Op tags the kind of operation a result came from, so the presentation
// layer can choose user-facing text without the core knowing about it.
type Op string

const (
	OpCreated   Op = "created"
	OpRetrieved Op = "retrieved"
	OpUpdated   Op = "updated"
	OpToggled   Op = "toggled"
	OpDeleted   Op = "deleted"
	OpReordered Op = "reordered"
)
