package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/pkg/logger"
	"github.com/foresightmkt/foresight/internal/pkg/validator"
	"github.com/foresightmkt/foresight/internal/trade"
	"github.com/foresightmkt/foresight/internal/txflow"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidAssertedOutcome rejects assertions that name neither of the
	// market's outcomes nor the unresolvable marker.
	ErrInvalidAssertedOutcome = errors.New("asserted outcome must be one of the market's outcomes or Unresolvable")

	// ErrMarketNotResolved rejects settlement before the market's assertion
	// has been resolved on chain.
	ErrMarketNotResolved = errors.New("market is not resolved yet")

	// ErrInvalidPoolFee rejects pool fees outside the AMM's accepted range.
	ErrInvalidPoolFee = errors.New("pool fee must be between 0.01% and 100%")
)

// ContractReader executes read-only contract calls and returns the raw ABI
// output.
type ContractReader interface {
	CallContract(ctx context.Context, call contracts.Call) ([]byte, error)
}

// Service is the market-facing application layer. Reads go through the
// contract reader, writes through the transaction flow, and two-phase writes
// through the planner.
type Service struct {
	reader    ContractReader
	gateway   *contracts.Gateway
	planner   *trade.Planner
	flow      txflow.Service
	directory PoolDirectory
	account   common.Address
}

// Option customizes optional service collaborators.
type Option func(*Service)

// WithPoolDirectory plugs in a cache for the pool listing. Without it every
// listing hits the chain.
func WithPoolDirectory(directory PoolDirectory) Option {
	return func(s *Service) {
		s.directory = directory
	}
}

// New assembles the market service for the given account.
func New(reader ContractReader, gateway *contracts.Gateway, planner *trade.Planner, flow txflow.Service, account common.Address, opts ...Option) *Service {
	s := &Service{
		reader:    reader,
		gateway:   gateway,
		planner:   planner,
		flow:      flow,
		directory: NewNopDirectory(),
		account:   account,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) submit(ctx context.Context, call contracts.Call) error {
	s.flow.Submit(ctx, call)

	return s.flow.Record().SubmissionError
}

func (s *Service) readBig(ctx context.Context, call contracts.Call) (*big.Int, error) {
	output, err := s.reader.CallContract(ctx, call)
	if err != nil {
		return nil, err
	}

	return contracts.DecodeUint256(output)
}

// ListPools returns every pool the AMM knows about, served from the directory
// when it holds a fresh copy.
func (s *Service) ListPools(ctx context.Context) ([]contracts.Pool, error) {
	pools, err := s.directory.Pools(ctx)
	if err == nil {
		return pools, nil
	}

	if !errors.Is(err, ErrPoolsNotCached) {
		logger.Warn(ctx, "pool directory read failed, falling back to the chain", "error", err)
	}

	output, err := s.reader.CallContract(ctx, s.gateway.GetAllPools())
	if err != nil {
		return nil, err
	}

	pools, err = s.gateway.DecodePools(output)
	if err != nil {
		return nil, err
	}

	if err := s.directory.StorePools(ctx, pools); err != nil {
		logger.Warn(ctx, "failed to store pools in the directory", "error", err)
	}

	return pools, nil
}

// GetMarket fetches and decodes one market record.
func (s *Service) GetMarket(ctx context.Context, id contracts.MarketID) (contracts.Market, error) {
	output, err := s.reader.CallContract(ctx, s.gateway.GetMarket(id))
	if err != nil {
		return contracts.Market{}, err
	}

	return s.gateway.DecodeMarket(id, output)
}

// GetPool fetches and decodes the pool backing one market.
func (s *Service) GetPool(ctx context.Context, id contracts.MarketID) (contracts.Pool, error) {
	output, err := s.reader.CallContract(ctx, s.gateway.GetPool(id))
	if err != nil {
		return contracts.Pool{}, err
	}

	return s.gateway.DecodePool(output)
}

// CreateMarketInput carries the parameters for initializing a new market.
type CreateMarketInput struct {
	Outcome1    string  `validate:"required"`
	Outcome2    string  `validate:"required,nefield=Outcome1"`
	Description string  `validate:"required"`
	Reward      string  `validate:"required"`
	Bond        string  `validate:"required"`
	FeePercent  float64 `validate:"gt=0"`
}

// CreateMarket submits an initializeMarket call. The pool fee is given as a
// percentage and converted to the AMM's fee units (0.30% -> 3000).
func (s *Service) CreateMarket(ctx context.Context, input CreateMarketInput) error {
	if err := validator.Validate(input); err != nil {
		return err
	}

	feeUnits := int64(math.Round(input.FeePercent * 10_000))
	if feeUnits < 100 || feeUnits > 1_000_000 {
		return ErrInvalidPoolFee
	}

	reward, err := trade.ParseAmount(input.Reward, trade.NativeDecimals)
	if err != nil {
		return fmt.Errorf("reward: %w", err)
	}

	bond, err := trade.ParseAmount(input.Bond, trade.NativeDecimals)
	if err != nil {
		return fmt.Errorf("bond: %w", err)
	}

	call := s.gateway.InitializeMarket(input.Outcome1, input.Outcome2, input.Description, reward, bond, big.NewInt(feeUnits))

	return s.submit(ctx, call)
}

// MintOutcomeTokens locks USDC collateral and mints both outcome tokens. The
// amount is parsed at the collateral's 6 decimals, and an approval for the
// prediction market contract is inserted when the allowance is short.
func (s *Service) MintOutcomeTokens(ctx context.Context, id contracts.MarketID, amount string) error {
	value, err := trade.ParseAmount(amount, trade.CollateralDecimals)
	if err != nil {
		return err
	}

	allowance, err := s.readBig(ctx, s.gateway.Allowance(s.gateway.Collateral.Address, s.account, s.gateway.PredictionMarket.Address))
	if err != nil {
		return err
	}

	return s.planner.ExecuteMint(ctx, id, value, allowance)
}

// Trade runs a swap attempt for the selected outcome. amountOutMinimum may be
// empty, which disables slippage protection.
func (s *Service) Trade(ctx context.Context, id contracts.MarketID, side trade.OutcomeSide, amountIn, amountOutMinimum string) (trade.Plan, error) {
	pool, err := s.GetPool(ctx, id)
	if err != nil {
		return trade.Plan{}, err
	}

	value, err := trade.ParseAmount(amountIn, trade.NativeDecimals)
	if err != nil {
		return trade.Plan{}, err
	}

	minOut := big.NewInt(0)
	if amountOutMinimum != "" {
		if minOut, err = trade.ParseAmount(amountOutMinimum, trade.NativeDecimals); err != nil {
			return trade.Plan{}, err
		}
	}

	sellToken := pool.TokenB
	if side == trade.SideFirst {
		sellToken = pool.TokenA
	}

	allowance, err := s.readBig(ctx, s.gateway.Allowance(sellToken, s.account, s.gateway.AMM.Address))
	if err != nil {
		return trade.Plan{}, err
	}

	return s.planner.ExecuteSwap(ctx, pool, side, value, minOut, allowance)
}

// Assert submits an assertion of the market's outcome, which must name one of
// the market's two outcomes or the unresolvable marker.
func (s *Service) Assert(ctx context.Context, id contracts.MarketID, assertedOutcome string) error {
	market, err := s.GetMarket(ctx, id)
	if err != nil {
		return err
	}

	switch assertedOutcome {
	case market.Outcome1, market.Outcome2, contracts.UnresolvableOutcome:
	default:
		return ErrInvalidAssertedOutcome
	}

	return s.submit(ctx, s.gateway.AssertMarket(id, assertedOutcome))
}

// Settle redeems the account's outcome tokens on a resolved market.
func (s *Service) Settle(ctx context.Context, id contracts.MarketID) error {
	market, err := s.GetMarket(ctx, id)
	if err != nil {
		return err
	}

	if !market.Resolved {
		return ErrMarketNotResolved
	}

	return s.submit(ctx, s.gateway.SettleOutcomeTokens(id))
}

// Balances holds the account's raw token balances for one market.
type Balances struct {
	Outcome1   *big.Int
	Outcome2   *big.Int
	Collateral *big.Int
}

// Balances reads the account's outcome token and collateral balances.
func (s *Service) Balances(ctx context.Context, id contracts.MarketID) (Balances, error) {
	market, err := s.GetMarket(ctx, id)
	if err != nil {
		return Balances{}, err
	}

	out := Balances{}

	if out.Outcome1, err = s.readBig(ctx, s.gateway.BalanceOf(market.Outcome1Token, s.account)); err != nil {
		return Balances{}, err
	}

	if out.Outcome2, err = s.readBig(ctx, s.gateway.BalanceOf(market.Outcome2Token, s.account)); err != nil {
		return Balances{}, err
	}

	if out.Collateral, err = s.readBig(ctx, s.gateway.BalanceOf(s.gateway.Collateral.Address, s.account)); err != nil {
		return Balances{}, err
	}

	return out, nil
}

// Prediction reads the pool's current price and derives the leading outcome.
func (s *Service) Prediction(ctx context.Context, id contracts.MarketID) (Prediction, error) {
	market, err := s.GetMarket(ctx, id)
	if err != nil {
		return Prediction{}, err
	}

	pool, err := s.GetPool(ctx, id)
	if err != nil {
		return Prediction{}, err
	}

	if !pool.Initialized {
		return Prediction{}, trade.ErrPoolNotInitialized
	}

	output, err := s.reader.CallContract(ctx, s.gateway.Slot0(pool.Address))
	if err != nil {
		return Prediction{}, err
	}

	slot0, err := s.gateway.DecodeSlot0(output)
	if err != nil {
		return Prediction{}, err
	}

	return ComputePrediction(market, slot0.SqrtPriceX96), nil
}
