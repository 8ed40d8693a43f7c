package notify

import (
	"errors"

	"github.com/google/uuid"
)

// Status classifies a notice for rendering.
type Status string

const (
	// StatusInfo marks the transient "confirming" notice. At most one info
	// notice exists per transaction identifier at any time.
	StatusInfo Status = "info"

	// StatusSuccess marks a confirmed transaction. Cleared only by dismissal.
	StatusSuccess Status = "success"

	// StatusError marks a rejected submission or a failed confirmation.
	// Cleared only by dismissal.
	StatusError Status = "error"
)

// Notification is a single user-facing notice. Notices are kept in insertion
// order; there is no reordering or priority.
type Notification struct {
	// ID is unique per notice and is the handle used for dismissal.
	ID string

	// Message is the human-readable text.
	Message string

	// Status classifies the notice.
	Status Status

	// TransactionID optionally links the notice back to a tracked call's
	// identifier.
	TransactionID string

	// ExplorerURL is a block-explorer link for the transaction, when one is
	// linked and an explorer base is configured.
	ExplorerURL string
}

// newNoticeID produces a unique notice id. UUIDv7 is time-ordered and
// collision resistant, so notices created within the same instant still get
// distinct ids.
func newNoticeID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// shortMessager is implemented by errors that carry a compact human-readable
// form alongside their full text.
type shortMessager interface {
	ShortMessage() string
}

// errorText prefers an error's short human-readable form when it exposes one,
// falling back to the raw error text.
func errorText(err error) string {
	if err == nil {
		return ""
	}

	var sm shortMessager
	if errors.As(err, &sm) {
		return sm.ShortMessage()
	}
	return err.Error()
}
