package txflow

import (
	"context"
	"time"

	"github.com/foresightmkt/foresight/internal/pkg/logger"
)

// watch polls the receipt source for the given identifier until a terminal
// state is observed or the context ends. Terminal transitions are applied at
// most once per generation: a stale watcher (overwritten submission) or a
// duplicate terminal signal leaves the record untouched and emits nothing.
func (s *service) watch(ctx context.Context, gen uint64, identifier string) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		state, err := s.fetchState(ctx, identifier)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient receipt lookup failures do not fail the call; the
			// chain still owns its fate.
			logger.Warn(ctx, "receipt lookup failed",
				"tx.identifier", identifier,
				"error", err,
			)
			continue
		}

		switch state {
		case ReceiptPending:
			continue
		case ReceiptSuccess:
			if s.finalize(gen, StatusConfirmed, nil) {
				s.emit(Event{Kind: EventConfirmed, Identifier: identifier})
			}
			return
		case ReceiptReverted:
			if s.finalize(gen, StatusFailed, ErrExecutionReverted) {
				s.emit(Event{Kind: EventFailed, Identifier: identifier, Err: ErrExecutionReverted})
			}
			return
		}
	}
}

// fetchState queries the receipt source, applying the retry policy when one
// is configured.
func (s *service) fetchState(ctx context.Context, identifier string) (ReceiptState, error) {
	if s.retry == nil {
		return s.receipts.TransactionState(ctx, identifier)
	}

	var state ReceiptState
	err := s.retry.Execute(ctx, func() error {
		var err error
		state, err = s.receipts.TransactionState(ctx, identifier)
		return err
	})
	return state, err
}

// finalize applies a terminal status to the record. It reports false when the
// watcher's generation was overwritten or the record is already terminal, in
// which case the caller must not emit an event.
func (s *service) finalize(gen uint64, status ConfirmationStatus, confirmationErr error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.record.Status.Terminal() {
		return false
	}

	s.record.Status = status
	s.record.ConfirmationError = confirmationErr
	return true
}
