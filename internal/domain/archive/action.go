package archive

// ActionKind names the outcome chosen by Decide.
type ActionKind string

// Action kinds.
const (
	ActionNoOp    ActionKind = "noop"
	ActionCreate  ActionKind = "create"
	ActionReplace ActionKind = "replace"
	ActionRemove  ActionKind = "remove"
)

// String returns the string representation of the action kind.
func (k ActionKind) String() string {
	return string(k)
}

// Changes returns true if the action modifies the filesystem.
func (k ActionKind) Changes() bool {
	return k == ActionCreate || k == ActionReplace || k == ActionRemove
}

// Action is the single transition selected for a descriptor. Each variant
// carries the data needed to narrate it.
type Action interface {
	Kind() ActionKind
	Target() string
	isAction()
}

// NoOpReason explains why nothing has to change.
type NoOpReason string

// No-op reasons.
const (
	ReasonAbsent        NoOpReason = "already absent"
	ReasonCreatesExists NoOpReason = "creates marker exists"
	ReasonChecksumMatch NoOpReason = "checksum matches"
	ReasonPresent       NoOpReason = "archive present"
)

// NoOp leaves the archive untouched.
type NoOp struct {
	Path   string
	Reason NoOpReason
}

// Create downloads an archive that does not exist yet.
type Create struct {
	Path        string
	Source      string
	Extract     bool
	ExtractPath string
	Creates     string
	Cleanup     bool
}

// Replace downloads an archive over an existing one whose digest differs.
type Replace struct {
	Path      string
	Source    string
	Algorithm ChecksumType
	Current   string
	Desired   string
}

// Remove deletes the archive.
type Remove struct {
	Path string
}

// Kind implements Action.
func (NoOp) Kind() ActionKind { return ActionNoOp }

// Kind implements Action.
func (Create) Kind() ActionKind { return ActionCreate }

// Kind implements Action.
func (Replace) Kind() ActionKind { return ActionReplace }

// Kind implements Action.
func (Remove) Kind() ActionKind { return ActionRemove }

// Target implements Action.
func (a NoOp) Target() string { return a.Path }

// Target implements Action.
func (a Create) Target() string { return a.Path }

// Target implements Action.
func (a Replace) Target() string { return a.Path }

// Target implements Action.
func (a Remove) Target() string { return a.Path }

func (NoOp) isAction()    {}
func (Create) isAction()  {}
func (Replace) isAction() {}
func (Remove) isAction()  {}
