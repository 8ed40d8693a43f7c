package trade

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/pkg/logger"
	"github.com/foresightmkt/foresight/internal/txflow"
)

// ErrAttemptInFlight rejects a new trading attempt while a previous one is
// still between submission and its terminal state.
var ErrAttemptInFlight = errors.New("a trading attempt is already in flight")

type phase int

const (
	phaseIdle phase = iota
	phaseApprovalPending
	phaseActionPending
)

// Planner drives two-phase trading attempts: an optional ERC-20 approval
// followed by the actual call, where the second submission happens only after
// the approval confirms on chain. A failed or rejected approval ends the
// attempt and the deferred call is never submitted.
//
// At most one attempt runs at a time.
type Planner struct {
	flow    txflow.Service
	gateway *contracts.Gateway

	mu       sync.Mutex
	phase    phase
	pending  string
	deferred *contracts.Call
	attempt  context.Context
}

// NewPlanner creates a planner and subscribes it to the flow's lifecycle
// events.
func NewPlanner(flow txflow.Service, gateway *contracts.Gateway) *Planner {
	p := &Planner{
		flow:    flow,
		gateway: gateway,
	}

	flow.Subscribe(p.handleEvent)

	return p
}

// InFlight reports whether a trading attempt is still progressing.
func (p *Planner) InFlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.phase != phaseIdle
}

// ExecuteSwap runs a swap attempt against an initialized pool, inserting an
// approval for the token being sold when the current allowance does not cover
// amountIn. The returned plan reflects the decision taken; preconditions are
// reported as errors without touching the flow.
func (p *Planner) ExecuteSwap(ctx context.Context, pool contracts.Pool, side OutcomeSide, amountIn, amountOutMinimum, allowance *big.Int) (Plan, error) {
	if !pool.Initialized {
		return Plan{}, ErrPoolNotInitialized
	}

	if amountIn == nil || amountIn.Sign() <= 0 {
		return Plan{}, ErrInvalidAmount
	}

	plan := BuildPlan(side, pool, allowance, amountIn)
	swap := p.gateway.Swap(pool.MarketID, amountIn, amountOutMinimum, plan.ZeroForOne)

	if !plan.NeedsApproval {
		return plan, p.run(ctx, nil, swap)
	}

	approval := p.gateway.Approve(plan.TokenToApprove, p.gateway.AMM.Address, amountIn)

	return plan, p.run(ctx, &approval, swap)
}

// ExecuteMint runs a mint attempt, inserting a collateral approval for the
// prediction market contract when the allowance does not cover the amount.
func (p *Planner) ExecuteMint(ctx context.Context, id contracts.MarketID, amount, allowance *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	mint := p.gateway.CreateOutcomeTokens(id, amount)

	if allowance.Cmp(amount) >= 0 {
		return p.run(ctx, nil, mint)
	}

	approval := p.gateway.Approve(p.gateway.Collateral.Address, p.gateway.PredictionMarket.Address, amount)

	return p.run(ctx, &approval, mint)
}

// run claims the planner for one attempt and submits its first call. Phase
// transitions after that point are driven entirely by flow events.
func (p *Planner) run(ctx context.Context, approval *contracts.Call, action contracts.Call) error {
	p.mu.Lock()
	if p.phase != phaseIdle {
		p.mu.Unlock()
		return ErrAttemptInFlight
	}

	first := action
	if approval != nil {
		p.phase = phaseApprovalPending
		p.deferred = &action
		first = *approval
	} else {
		p.phase = phaseActionPending
	}
	p.attempt = ctx
	p.mu.Unlock()

	// Submit emits the rejection or confirming event synchronously, so by the
	// time it returns handleEvent has already recorded the identifier or
	// reset the phase.
	p.flow.Submit(ctx, first)

	if rec := p.flow.Record(); rec.SubmissionError != nil {
		return rec.SubmissionError
	}

	return nil
}

func (p *Planner) resetLocked() {
	p.phase = phaseIdle
	p.pending = ""
	p.deferred = nil
	p.attempt = nil
}

// handleEvent advances the attempt's phase. The flow holds a single
// outstanding call, so events carrying no known identifier while an attempt
// is in flight belong to the submission this planner just made.
func (p *Planner) handleEvent(ev txflow.Event) {
	p.mu.Lock()

	switch ev.Kind {
	case txflow.EventConfirming:
		if p.phase != phaseIdle && p.pending == "" {
			p.pending = ev.Identifier
		}

	case txflow.EventSubmissionRejected:
		if p.phase != phaseIdle && p.pending == "" {
			p.resetLocked()
		}

	case txflow.EventFailed:
		if p.phase != phaseIdle && ev.Identifier == p.pending {
			p.resetLocked()
		}

	case txflow.EventConfirmed:
		if p.phase == phaseApprovalPending && ev.Identifier == p.pending {
			action := *p.deferred
			ctx := p.attempt

			p.phase = phaseActionPending
			p.pending = ""
			p.deferred = nil
			p.mu.Unlock()

			logger.Info(ctx, "approval confirmed, submitting deferred call",
				"approvalTransaction", ev.Identifier,
				"method", action.Method,
			)

			// Submit re-enters handleEvent, so the lock must be released.
			p.flow.Submit(ctx, action)
			return
		}

		if p.phase == phaseActionPending && ev.Identifier == p.pending {
			p.resetLocked()
		}
	}

	p.mu.Unlock()
}
