package models

// EventKind identifies the type of an engine event.
type EventKind int

const (
	// EventResult carries a completed FileResult
	EventResult EventKind = iota
	// EventProblem reports a per-file failure
	EventProblem
	// EventFileDone signals that one file finished scanning, regardless of outcome
	EventFileDone
	// EventAllDone is the terminal event, emitted exactly once per run
	EventAllDone
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventResult:
		return "result"
	case EventProblem:
		return "problem"
	case EventFileDone:
		return "file_done"
	case EventAllDone:
		return "all_done"
	default:
		return "unknown"
	}
}

// Event is one message on the engine's result stream. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Event struct {
	Kind    EventKind
	Result  *FileResult // set for EventResult
	Path    string      // set for EventProblem and EventFileDone
	Message string      // set for EventProblem
}

// Problem is a per-file failure as surfaced to consumers.
type Problem struct {
	Path    string // File the failure applies to
	Message string // Human-readable cause
}

// RunProgress is a point-in-time snapshot of a run. FilesDone and
// Problems increase monotonically; Cancelled transitions only
// false to true.
type RunProgress struct {
	FilesTotal int64 // Number of enumerated files
	FilesDone  int64 // Files that finished scanning
	Problems   int64 // Per-file failures reported so far
	Cancelled  bool  // True once cancellation was requested
}
