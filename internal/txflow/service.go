// Package txflow tracks the lifecycle of contract write calls: submission,
// identifier assignment, and confirmation watching. It owns the single
// outstanding-call slot per Service instance and publishes ordered lifecycle
// events to subscribers (the notification coordinator and the trade planner).
package txflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/pkg/resilience/retry"
)

const defaultPollInterval = 2 * time.Second

// ErrExecutionReverted is recorded as the confirmation error when the network
// accepted a call but its execution reverted.
var ErrExecutionReverted = errors.New("transaction execution reverted")

// CallSender submits a signed contract call to the network and returns the
// identifier the network assigned, or an error if the call was rejected
// before acceptance.
type CallSender interface {
	SendCall(ctx context.Context, call contracts.Call) (string, error)
}

// ReceiptState is the chain client's view of an accepted call.
type ReceiptState int

const (
	// ReceiptPending means the network has not finalized the call.
	ReceiptPending ReceiptState = iota

	// ReceiptSuccess means the call executed successfully.
	ReceiptSuccess

	// ReceiptReverted means execution failed on chain.
	ReceiptReverted
)

// ReceiptSource reports the current state of an accepted call. Polling
// cadence and terminal-state detection live in this package; the source only
// answers point-in-time queries.
type ReceiptSource interface {
	TransactionState(ctx context.Context, identifier string) (ReceiptState, error)
}

// Service is the transaction submitter and confirmation watcher pair. At most
// one call is tracked at a time: submitting while a previous call is
// outstanding stops tracking the previous call. The network may still process
// the abandoned call; overwriting a slot is not a cancellation.
type Service interface {
	// Submit requests network acceptance of the call. It returns once the
	// network has accepted or rejected the submission; confirmation is
	// watched in the background. Outcomes are reflected in Record and
	// published to subscribers.
	Submit(ctx context.Context, call contracts.Call)

	// Record returns a copy of the current outstanding call's record.
	Record() Record

	// Subscribe registers a callback for lifecycle events. Callbacks run
	// synchronously in observation order and must not block; they may call
	// Submit. Subscribe before the first Submit.
	Subscribe(fn func(Event))
}

type service struct {
	mu          sync.Mutex
	generation  uint64 // bumped per submission; stale watchers discard their results
	record      Record
	subscribers []func(Event)

	sender       CallSender
	receipts     ReceiptSource
	pollInterval time.Duration
	retry        retry.Retry
}

var _ Service = (*service)(nil)

type config struct {
	pollInterval time.Duration
	retry        retry.Retry
}

// Option configures the txflow service.
type Option func(*config)

// WithPollInterval sets how often the watcher queries the receipt source.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithRetry wraps every receipt query in the given retry policy.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// New creates a transaction flow service backed by the given sender and
// receipt source.
func New(sender CallSender, receipts ReceiptSource, opts ...Option) *service {
	cfg := config{
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		sender:       sender,
		receipts:     receipts,
		pollInterval: cfg.pollInterval,
		retry:        cfg.retry,
	}
}

func (s *service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = append(s.subscribers, fn)
}

func (s *service) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.record
}

// Submit overwrites the tracked record, sends the call, and on acceptance
// starts a watcher goroutine for the new identifier. A watcher belonging to
// an overwritten submission observes the generation mismatch and drops its
// result instead of touching the new record.
func (s *service) Submit(ctx context.Context, call contracts.Call) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.record = Record{}
	s.mu.Unlock()

	identifier, err := s.sender.SendCall(ctx, call)

	s.mu.Lock()
	if gen != s.generation {
		// Overwritten while the send was in flight; this submission's UI
		// tracking is abandoned.
		s.mu.Unlock()
		return
	}

	if err != nil {
		s.record.SubmissionError = err
		s.mu.Unlock()
		s.emit(Event{Kind: EventSubmissionRejected, Err: err})
		return
	}

	s.record.Identifier = identifier
	s.record.Status = StatusConfirming
	s.mu.Unlock()

	s.emit(Event{Kind: EventConfirming, Identifier: identifier})

	go s.watch(ctx, gen, identifier)
}

// emit delivers an event to all subscribers. The subscriber slice is copied
// under the lock so callbacks run without holding it, keeping re-entrant
// Submit calls (approval-then-swap) deadlock free.
func (s *service) emit(ev Event) {
	s.mu.Lock()
	subscribers := make([]func(Event), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(ev)
	}
}
