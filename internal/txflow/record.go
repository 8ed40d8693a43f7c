package txflow

// ConfirmationStatus tracks where a submitted call sits in its on-chain
// lifecycle. Confirmed and failed are terminal per identifier.
type ConfirmationStatus int

const (
	// StatusUnconfirmed means no identifier exists yet, either because
	// nothing was submitted or because submission was rejected outright.
	StatusUnconfirmed ConfirmationStatus = iota

	// StatusConfirming means the network accepted the call and produced an
	// identifier, but has not finalized it.
	StatusConfirming

	// StatusConfirmed means the call executed successfully.
	StatusConfirmed

	// StatusFailed means the network accepted the call but execution
	// reverted or timed out.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s ConfirmationStatus) String() string {
	switch s {
	case StatusConfirming:
		return "confirming"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "unconfirmed"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s ConfirmationStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Record describes the most recent outstanding call tracked by a Service
// instance. A new submission overwrites the previous record: the service is
// a single slot, not a queue.
type Record struct {
	// Identifier is the opaque handle produced once the network accepts the
	// call. It is set exactly once per submission and is empty before
	// submission or on immediate rejection.
	Identifier string

	// SubmissionError is populated if the call was rejected before being
	// accepted (e.g., signer refused, invalid arguments).
	SubmissionError error

	// Status is the call's confirmation lifecycle position.
	Status ConfirmationStatus

	// ConfirmationError is populated only when Status is StatusFailed.
	ConfirmationError error
}
