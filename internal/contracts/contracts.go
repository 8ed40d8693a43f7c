// Package contracts holds typed descriptors for the external smart contracts
// (prediction market, AMM, liquidity pools, and ERC-20 tokens) and builds the
// calls this client submits or reads against them. It carries no business
// logic of its own: the Gateway produces Call values and decodes result
// tuples, and everything else is enforced on chain.
package contracts

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// UnresolvableOutcome is the third assertable outcome accepted by the
// prediction market contract alongside the two named outcomes.
const UnresolvableOutcome = "Unresolvable"

// ErrUnknownMethod is returned when a Call names a function that is not part
// of its interface fragment.
var ErrUnknownMethod = errors.New("method not present in interface fragment")

// MarketID is the fixed 32-byte identifier of a prediction market instance.
type MarketID [32]byte

// MarketIDFromHex parses a 0x-prefixed 32-byte hex string into a MarketID.
func MarketIDFromHex(s string) (MarketID, error) {
	var id MarketID

	raw, err := hexutil.Decode(s)
	if err != nil {
		return id, fmt.Errorf("invalid market id: %w", err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("invalid market id: expected %d bytes, got %d", len(id), len(raw))
	}

	copy(id[:], raw)
	return id, nil
}

// Hex returns the 0x-prefixed hexadecimal form of the market id.
func (id MarketID) Hex() string {
	return hexutil.Encode(id[:])
}

// MarshalText encodes the market id as its hex form, for JSON and cache keys.
func (id MarketID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText parses the hex form produced by MarshalText.
func (id *MarketID) UnmarshalText(text []byte) error {
	parsed, err := MarketIDFromHex(string(text))
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

// Contract pairs a deployed address with its interface fragment.
type Contract struct {
	Address common.Address
	ABI     *abi.ABI
}

// Call describes a single contract call: target address, interface fragment,
// function name, and ordered arguments. It is the unit consumed by the
// transaction submitter and by read-side executors.
type Call struct {
	To     common.Address
	ABI    *abi.ABI
	Method string
	Args   []any
}

// Data ABI-encodes the call. It fails with ErrUnknownMethod if the function
// is not present in the interface fragment; argument arity and types are
// validated by the ABI encoder itself.
func (c Call) Data() ([]byte, error) {
	if c.ABI == nil {
		return nil, fmt.Errorf("%w: %q (no interface fragment)", ErrUnknownMethod, c.Method)
	}
	if _, ok := c.ABI.Methods[c.Method]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, c.Method)
	}

	return c.ABI.Pack(c.Method, c.Args...)
}

// Market is the decoded result of getMarket, with outcome names already
// converted from their padded byte form to text.
type Market struct {
	ID            MarketID
	Resolved      bool
	Outcome1Token common.Address
	Outcome2Token common.Address
	Outcome1      string
	Outcome2      string
}

// Pool is the decoded AMM pool record pairing a market's two outcome tokens.
type Pool struct {
	MarketID    MarketID       `json:"marketId"`
	Address     common.Address `json:"pool"`
	TokenA      common.Address `json:"tokenA"`
	TokenB      common.Address `json:"tokenB"`
	Fee         uint32         `json:"fee"`
	Initialized bool           `json:"poolInitialized"`
}

// FeePercent converts the pool's fee units to a percentage (3000 -> 0.30%).
func (p Pool) FeePercent() float64 {
	return float64(p.Fee) / 10_000
}

// Slot0 is the subset of the pool's slot0 tuple this client consumes.
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         *big.Int
	Unlocked     bool
}

// Gateway exposes typed call builders for every contract the application
// talks to. It is constructed once per session from the configured addresses
// and passed by reference to the services that need it.
type Gateway struct {
	PredictionMarket Contract
	AMM              Contract
	Collateral       Contract
}

// NewGateway builds a Gateway from the deployed contract addresses.
func NewGateway(predictionMarket, amm, collateral common.Address) *Gateway {
	return &Gateway{
		PredictionMarket: Contract{Address: predictionMarket, ABI: predictionMarketABI},
		AMM:              Contract{Address: amm, ABI: ammABI},
		Collateral:       Contract{Address: collateral, ABI: erc20ABI},
	}
}

// Approve builds an ERC-20 approve call against the given token.
func (g *Gateway) Approve(token, spender common.Address, amount *big.Int) Call {
	return Call{
		To:     token,
		ABI:    erc20ABI,
		Method: "approve",
		Args:   []any{spender, amount},
	}
}

// InitializeMarket builds the market creation call. Reward and bond are
// 18-decimal fixed-point values; feeUnits is the pool fee in hundredths of a
// basis point (uint24 on chain).
func (g *Gateway) InitializeMarket(outcome1, outcome2, description string, reward, bond, feeUnits *big.Int) Call {
	return Call{
		To:     g.PredictionMarket.Address,
		ABI:    g.PredictionMarket.ABI,
		Method: "initializeMarket",
		Args:   []any{outcome1, outcome2, description, reward, bond, feeUnits},
	}
}

// CreateOutcomeTokens builds the collateral-for-outcome-tokens minting call.
// The amount is a 6-decimal collateral value.
func (g *Gateway) CreateOutcomeTokens(id MarketID, amount *big.Int) Call {
	return Call{
		To:     g.PredictionMarket.Address,
		ABI:    g.PredictionMarket.ABI,
		Method: "createOutcomeTokens",
		Args:   []any{[32]byte(id), amount},
	}
}

// AssertMarket builds the outcome assertion call.
func (g *Gateway) AssertMarket(id MarketID, assertedOutcome string) Call {
	return Call{
		To:     g.PredictionMarket.Address,
		ABI:    g.PredictionMarket.ABI,
		Method: "assertMarket",
		Args:   []any{[32]byte(id), assertedOutcome},
	}
}

// SettleOutcomeTokens builds the post-resolution settlement call.
func (g *Gateway) SettleOutcomeTokens(id MarketID) Call {
	return Call{
		To:     g.PredictionMarket.Address,
		ABI:    g.PredictionMarket.ABI,
		Method: "settleOutcomeTokens",
		Args:   []any{[32]byte(id)},
	}
}

// Swap builds the AMM swap call. zeroForOne selects the trade direction
// between the pool's token0 and token1.
func (g *Gateway) Swap(id MarketID, amountIn, amountOutMinimum *big.Int, zeroForOne bool) Call {
	return Call{
		To:     g.AMM.Address,
		ABI:    g.AMM.ABI,
		Method: "swap",
		Args:   []any{[32]byte(id), amountIn, amountOutMinimum, zeroForOne},
	}
}

// GetMarket builds the read call for a market's resolution state, outcome
// token addresses, and encoded outcome names.
func (g *Gateway) GetMarket(id MarketID) Call {
	return Call{
		To:     g.PredictionMarket.Address,
		ABI:    g.PredictionMarket.ABI,
		Method: "getMarket",
		Args:   []any{[32]byte(id)},
	}
}

// GetPool builds the read call for the pool backing the given market.
func (g *Gateway) GetPool(id MarketID) Call {
	return Call{
		To:     g.AMM.Address,
		ABI:    g.AMM.ABI,
		Method: "getPoolUsingMarketId",
		Args:   []any{[32]byte(id)},
	}
}

// GetAllPools builds the read call for the full pool directory.
func (g *Gateway) GetAllPools() Call {
	return Call{
		To:     g.AMM.Address,
		ABI:    g.AMM.ABI,
		Method: "getAllPools",
	}
}

// BalanceOf builds the ERC-20 balance read call against the given token.
func (g *Gateway) BalanceOf(token, account common.Address) Call {
	return Call{
		To:     token,
		ABI:    erc20ABI,
		Method: "balanceOf",
		Args:   []any{account},
	}
}

// Allowance builds the ERC-20 allowance read call against the given token.
func (g *Gateway) Allowance(token, owner, spender common.Address) Call {
	return Call{
		To:     token,
		ABI:    erc20ABI,
		Method: "allowance",
		Args:   []any{owner, spender},
	}
}

// Slot0 builds the slot0 read call against a pool contract.
func (g *Gateway) Slot0(pool common.Address) Call {
	return Call{
		To:     pool,
		ABI:    poolABI,
		Method: "slot0",
	}
}
