// Package notify maintains the user-visible notification feed. It converts
// transaction lifecycle events into a deduplicated, insertion-ordered list of
// notices and supports manual dismissal. The list is owned exclusively by
// this service; other components only request insertions and removals through
// its contract.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/foresightmkt/foresight/internal/txflow"
)

// Service is the notification coordinator contract.
type Service interface {
	// Add appends a notice. Insertion is idempotent on the
	// (TransactionID, Status) pair: a notice linked to a transaction is
	// skipped if one with the same identifier and status already exists.
	// Notices without a transaction link are always appended.
	Add(n Notification)

	// Remove dismisses the notice with the given id, regardless of its
	// status. It is a no-op if the id is absent. This is the only way
	// success and error notices are cleared.
	Remove(id string)

	// List returns the current notices in insertion order.
	List() []Notification

	// HandleEvent folds a transaction lifecycle event into the feed.
	HandleEvent(ctx context.Context, ev txflow.Event)
}

type service struct {
	mu           sync.Mutex
	notices      []Notification
	explorerBase string
}

var _ Service = (*service)(nil)

type config struct {
	explorerBase string
}

// Option configures the notification coordinator.
type Option func(*config)

// WithExplorerBaseURL sets the block-explorer base used to build transaction
// links (<base>/tx/<identifier>).
func WithExplorerBaseURL(base string) Option {
	return func(c *config) {
		c.explorerBase = base
	}
}

// New creates a notification coordinator. A single instance is constructed
// per application session and passed by reference to whichever views need it.
func New(opts ...Option) *service {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		explorerBase: cfg.explorerBase,
	}
}

func (s *service) Add(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addLocked(n)
}

func (s *service) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notices {
		if n.ID == id {
			s.notices = append(s.notices[:i], s.notices[i+1:]...)
			return
		}
	}
}

func (s *service) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, len(s.notices))
	copy(out, s.notices)
	return out
}

// HandleEvent applies one lifecycle transition. The removal of a pending
// notice and the insertion of its terminal replacement happen under a single
// lock acquisition, so no reader ever observes the intermediate state.
func (s *service) HandleEvent(ctx context.Context, ev txflow.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case txflow.EventSubmissionRejected:
		s.addLocked(s.buildNotice(StatusError, fmt.Sprintf("Error: %s", errorText(ev.Err)), ""))

	case txflow.EventConfirming:
		s.addLocked(s.buildNotice(StatusInfo, "Transaction is confirming...", ev.Identifier))

	case txflow.EventConfirmed:
		s.dropInfoLocked(ev.Identifier)
		s.addLocked(s.buildNotice(StatusSuccess, "Transaction confirmed successfully!", ev.Identifier))

	case txflow.EventFailed:
		s.dropInfoLocked(ev.Identifier)
		s.addLocked(s.buildNotice(StatusError, fmt.Sprintf("Transaction failed: %s", errorText(ev.Err)), ev.Identifier))
	}
}

func (s *service) buildNotice(status Status, message, transactionID string) Notification {
	n := Notification{
		ID:            newNoticeID(),
		Message:       message,
		Status:        status,
		TransactionID: transactionID,
	}

	if transactionID != "" && s.explorerBase != "" {
		n.ExplorerURL = fmt.Sprintf("%s/tx/%s", s.explorerBase, transactionID)
	}
	return n
}

// addLocked appends a notice unless an equivalent one is already present.
// Duplicate lifecycle signals (the same confirming or confirmed event
// observed twice) therefore never produce duplicate notices.
func (s *service) addLocked(n Notification) {
	if n.TransactionID != "" {
		for _, existing := range s.notices {
			if existing.TransactionID == n.TransactionID && existing.Status == n.Status {
				return
			}
		}
	}

	s.notices = append(s.notices, n)
}

// dropInfoLocked removes the pending (info) notice for an identifier, if one
// exists, ahead of its terminal replacement.
func (s *service) dropInfoLocked(transactionID string) {
	kept := s.notices[:0]
	for _, n := range s.notices {
		if n.TransactionID == transactionID && n.Status == StatusInfo {
			continue
		}
		kept = append(kept, n)
	}
	s.notices = kept
}
