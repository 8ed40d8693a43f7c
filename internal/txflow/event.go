package txflow

// EventKind discriminates the lifecycle transitions surfaced to subscribers.
type EventKind int

const (
	// EventSubmissionRejected fires when a call is rejected before the
	// network accepts it. No identifier exists for such events.
	EventSubmissionRejected EventKind = iota

	// EventConfirming fires the instant an identifier becomes available.
	EventConfirming

	// EventConfirmed fires when the network finalizes the call successfully.
	EventConfirmed

	// EventFailed fires when the accepted call reverts or times out.
	EventFailed
)

// Event is a single observed transition in a tracked call's lifecycle.
// Subscribers receive events in the order they are observed.
type Event struct {
	Kind       EventKind
	Identifier string // empty for submission rejections
	Err        error  // set for rejections and failures
}
