package trade

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/foresightmkt/foresight/internal/contracts"

	"github.com/ethereum/go-ethereum/common"
)

// ErrPoolNotInitialized blocks trading against a pool the AMM has not
// initialized yet. It is a local precondition: no call is submitted and no
// notice is produced.
var ErrPoolNotInitialized = errors.New("pool is not initialized")

// OutcomeSide identifies which of a market's two outcomes the trader selected.
type OutcomeSide int

const (
	// SideFirst is the market's first outcome.
	SideFirst OutcomeSide = iota

	// SideSecond is the market's second outcome.
	SideSecond
)

// ParseOutcomeSide parses the CLI form of an outcome selection.
func ParseOutcomeSide(s string) (OutcomeSide, error) {
	switch s {
	case "first", "1":
		return SideFirst, nil
	case "second", "2":
		return SideSecond, nil
	default:
		return 0, fmt.Errorf("invalid outcome side %q (want first or second)", s)
	}
}

// Plan is the approval decision for one trading attempt. It is computed fresh
// from the current allowance and pool data on every attempt and never
// persisted.
type Plan struct {
	// TokenToApprove is the pool token the trader spends. Buying the first
	// outcome means selling tokenA (the pool's token0) into the pool, so the
	// approval targets the token being sold, not the outcome token being
	// bought. Getting this backwards is the classic directional bug in this
	// flow.
	TokenToApprove common.Address

	// ZeroForOne is the swap direction matching TokenToApprove: true when
	// selling token0 (first outcome selected), false when selling token1.
	ZeroForOne bool

	// NeedsApproval is true when the current allowance is strictly below the
	// requested amount. An allowance exactly equal to the amount needs no
	// approval.
	NeedsApproval bool
}

// BuildPlan derives the approval plan for a trading attempt from the selected
// outcome, the pool's token ordering, and the spender's current allowance.
func BuildPlan(side OutcomeSide, pool contracts.Pool, allowance, amount *big.Int) Plan {
	token := pool.TokenB
	if side == SideFirst {
		token = pool.TokenA
	}

	return Plan{
		TokenToApprove: token,
		ZeroForOne:     side == SideFirst,
		NeedsApproval:  allowance.Cmp(amount) < 0,
	}
}
