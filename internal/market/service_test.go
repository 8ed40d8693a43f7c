package market

import (
	"context"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/notify"
	"github.com/foresightmkt/foresight/internal/pkg/logger"
	"github.com/foresightmkt/foresight/internal/trade"
	"github.com/foresightmkt/foresight/internal/txflow"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(logger.WithLevel("error"))
	os.Exit(m.Run())
}

var (
	testAccount  = common.HexToAddress("0x9999999999999999999999999999999999999999")
	testPoolAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")
	tokenA       = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenB       = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testMarketID = contracts.MarketID{0x01}
)

func testGateway() *contracts.Gateway {
	return contracts.NewGateway(
		common.HexToAddress("0x1d8A4f3abacfE2eD80dd576db7f5c62239F25c98"),
		common.HexToAddress("0x34b5Fe022535Ff7d82dD44fe63eBd1135A9eB2C5"),
		common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
	)
}

// chainStub backs the reader, sender, and receipt source with scripted
// responses keyed by contract method.
type chainStub struct {
	mu     sync.Mutex
	reads  map[string][]byte
	sent   []contracts.Call
	states map[string]txflow.ReceiptState
	nextID int
}

func newChainStub() *chainStub {
	return &chainStub{
		reads:  make(map[string][]byte),
		states: make(map[string]txflow.ReceiptState),
	}
}

func (s *chainStub) CallContract(_ context.Context, call contracts.Call) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.reads[call.Method]
	if !ok {
		return nil, errors.New("unexpected read: " + call.Method)
	}
	return data, nil
}

func (s *chainStub) SendCall(_ context.Context, call contracts.Call) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, call)
	s.nextID++
	return "0xtx" + string(rune('0'+s.nextID)), nil
}

func (s *chainStub) TransactionState(_ context.Context, identifier string) (txflow.ReceiptState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[identifier], nil
}

func (s *chainStub) resolve(identifier string, state txflow.ReceiptState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[identifier] = state
}

func (s *chainStub) sentMethods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.sent))
	for i, c := range s.sent {
		out[i] = c.Method
	}
	return out
}

func (s *chainStub) sentAt(i int) contracts.Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[i]
}

func (s *chainStub) waitForSent(t *testing.T, expected ...string) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		methods := s.sentMethods()
		if len(methods) >= len(expected) {
			assert.Equal(t, expected, methods)
			return
		}

		select {
		case <-deadline:
			t.Fatalf("submissions %v never reached %v", methods, expected)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// scriptMarket primes the getMarket read.
func (s *chainStub) scriptMarket(t *testing.T, gateway *contracts.Gateway, resolved bool, outcome1, outcome2 string) {
	t.Helper()

	call := gateway.GetMarket(testMarketID)
	data, err := call.ABI.Methods[call.Method].Outputs.Pack(resolved, tokenA, tokenB, []byte(outcome1), []byte(outcome2))
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[call.Method] = data
}

// poolTuple mirrors the AMM's PoolData components for output packing.
type poolTuple struct {
	MarketId        [32]byte
	Pool            common.Address
	TokenA          common.Address
	TokenB          common.Address
	Fee             *big.Int
	PoolInitialized bool
}

func testPoolTuple(initialized bool) poolTuple {
	return poolTuple{
		MarketId:        testMarketID,
		Pool:            testPoolAddr,
		TokenA:          tokenA,
		TokenB:          tokenB,
		Fee:             big.NewInt(3000),
		PoolInitialized: initialized,
	}
}

func (s *chainStub) scriptPool(t *testing.T, gateway *contracts.Gateway, initialized bool) {
	t.Helper()

	call := gateway.GetPool(testMarketID)
	data, err := call.ABI.Methods[call.Method].Outputs.Pack(testPoolTuple(initialized))
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[call.Method] = data
}

func (s *chainStub) scriptAllPools(t *testing.T, gateway *contracts.Gateway, pools ...poolTuple) {
	t.Helper()

	call := gateway.GetAllPools()
	data, err := call.ABI.Methods[call.Method].Outputs.Pack(pools)
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[call.Method] = data
}

func (s *chainStub) scriptUint(t *testing.T, gateway *contracts.Gateway, method string, value *big.Int) {
	t.Helper()

	call := gateway.BalanceOf(tokenA, testAccount)
	data, err := call.ABI.Methods["balanceOf"].Outputs.Pack(value)
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[method] = data
}

// units scales a whole-token amount to base units.
func units(n int64, decimals int) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

type fixture struct {
	svc     *Service
	stub    *chainStub
	gateway *contracts.Gateway
	notices notify.Service
	planner *trade.Planner
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()

	stub := newChainStub()
	gateway := testGateway()
	flow := txflow.New(stub, stub, txflow.WithPollInterval(5*time.Millisecond))

	notices := notify.New()
	flow.Subscribe(func(ev txflow.Event) {
		notices.HandleEvent(context.Background(), ev)
	})

	planner := trade.NewPlanner(flow, gateway)

	return fixture{
		svc:     New(stub, gateway, planner, flow, testAccount, opts...),
		stub:    stub,
		gateway: gateway,
		notices: notices,
		planner: planner,
	}
}

func (f fixture) waitForIdle(t *testing.T) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for f.planner.InFlight() {
		select {
		case <-deadline:
			t.Fatal("planner never returned to idle")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestService_GetMarket(t *testing.T) {
	f := newFixture(t)
	f.stub.scriptMarket(t, f.gateway, false, "Yes", "No")

	market, err := f.svc.GetMarket(t.Context(), testMarketID)
	require.NoError(t, err)

	assert.Equal(t, testMarketID, market.ID)
	assert.False(t, market.Resolved)
	assert.Equal(t, "Yes", market.Outcome1)
	assert.Equal(t, "No", market.Outcome2)
	assert.Equal(t, tokenA, market.Outcome1Token)
	assert.Equal(t, tokenB, market.Outcome2Token)
}

// recordingDirectory is an in-memory PoolDirectory with call accounting.
type recordingDirectory struct {
	mu     sync.Mutex
	pools  []contracts.Pool
	cached bool
	stores int
}

func (d *recordingDirectory) Pools(_ context.Context) ([]contracts.Pool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cached {
		return nil, ErrPoolsNotCached
	}
	return d.pools, nil
}

func (d *recordingDirectory) StorePools(_ context.Context, pools []contracts.Pool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pools = pools
	d.cached = true
	d.stores++
	return nil
}

func TestService_ListPools(t *testing.T) {
	t.Run("cache miss reads the chain and fills the directory", func(t *testing.T) {
		directory := new(recordingDirectory)
		f := newFixture(t, WithPoolDirectory(directory))
		f.stub.scriptAllPools(t, f.gateway, testPoolTuple(true))

		pools, err := f.svc.ListPools(t.Context())
		require.NoError(t, err)

		require.Len(t, pools, 1)
		assert.Equal(t, testMarketID, pools[0].MarketID)
		assert.Equal(t, 1, directory.stores)
	})

	t.Run("cache hit skips the chain", func(t *testing.T) {
		directory := &recordingDirectory{
			cached: true,
			pools:  []contracts.Pool{{MarketID: testMarketID, Address: testPoolAddr}},
		}
		f := newFixture(t, WithPoolDirectory(directory))
		// No getAllPools read is scripted: hitting the chain would fail.

		pools, err := f.svc.ListPools(t.Context())
		require.NoError(t, err)
		require.Len(t, pools, 1)
	})

	t.Run("without a directory every listing hits the chain", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptAllPools(t, f.gateway, testPoolTuple(true), testPoolTuple(false))

		pools, err := f.svc.ListPools(t.Context())
		require.NoError(t, err)
		assert.Len(t, pools, 2)
	})
}

func TestService_CreateMarket(t *testing.T) {
	validInput := func() CreateMarketInput {
		return CreateMarketInput{
			Outcome1:    "Yes",
			Outcome2:    "No",
			Description: "Will it happen?",
			Reward:      "1",
			Bond:        "5",
			FeePercent:  0.3,
		}
	}

	t.Run("submits initializeMarket with scaled amounts", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.svc.CreateMarket(t.Context(), validInput()))

		f.stub.waitForSent(t, "initializeMarket")
		call := f.stub.sentAt(0)

		reward := call.Args[3].(*big.Int)
		expectedReward, _ := new(big.Int).SetString("1000000000000000000", 10)
		assert.Zero(t, expectedReward.Cmp(reward))

		feeUnits := call.Args[5].(*big.Int)
		assert.Equal(t, int64(3000), feeUnits.Int64())
	})

	t.Run("identical outcomes fail validation", func(t *testing.T) {
		f := newFixture(t)

		input := validInput()
		input.Outcome2 = input.Outcome1

		assert.Error(t, f.svc.CreateMarket(t.Context(), input))
		assert.Empty(t, f.stub.sentMethods())
	})

	t.Run("fee outside the accepted range is rejected", func(t *testing.T) {
		f := newFixture(t)

		for _, fee := range []float64{0.0001, 150} {
			input := validInput()
			input.FeePercent = fee

			assert.ErrorIs(t, f.svc.CreateMarket(t.Context(), input), ErrInvalidPoolFee, "fee %v", fee)
		}
		assert.Empty(t, f.stub.sentMethods())
	})

	t.Run("unparsable reward is rejected", func(t *testing.T) {
		f := newFixture(t)

		input := validInput()
		input.Reward = "abc"

		assert.ErrorIs(t, f.svc.CreateMarket(t.Context(), input), trade.ErrInvalidAmount)
	})
}

func TestService_MintOutcomeTokens(t *testing.T) {
	t.Run("short allowance approves then mints, with notices tracking both", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptUint(t, f.gateway, "allowance", big.NewInt(0))

		require.NoError(t, f.svc.MintOutcomeTokens(t.Context(), testMarketID, "100"))

		f.stub.waitForSent(t, "approve")
		approval := f.stub.sentAt(0)
		assert.Equal(t, f.gateway.Collateral.Address, approval.To)
		assert.Zero(t, big.NewInt(100_000000).Cmp(approval.Args[1].(*big.Int)), "USDC amounts parse at 6 decimals")

		f.stub.resolve("0xtx1", txflow.ReceiptSuccess)
		f.stub.waitForSent(t, "approve", "createOutcomeTokens")

		f.stub.resolve("0xtx2", txflow.ReceiptSuccess)
		f.waitForIdle(t)

		var pending, succeeded int
		for _, n := range f.notices.List() {
			switch n.Status {
			case notify.StatusInfo:
				pending++
			case notify.StatusSuccess:
				succeeded++
			}
		}
		assert.Zero(t, pending, "terminal notices replace pending ones")
		assert.Equal(t, 2, succeeded)
	})

	t.Run("covered allowance mints directly", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptUint(t, f.gateway, "allowance", big.NewInt(100_000000))

		require.NoError(t, f.svc.MintOutcomeTokens(t.Context(), testMarketID, "100"))

		f.stub.waitForSent(t, "createOutcomeTokens")
	})

	t.Run("invalid amount never reads the chain", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.MintOutcomeTokens(t.Context(), testMarketID, "12.3456789")
		assert.ErrorIs(t, err, trade.ErrInvalidAmount)
		assert.Empty(t, f.stub.sentMethods())
	})
}

func TestService_Trade(t *testing.T) {
	t.Run("buying the first outcome swaps zero for one", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptPool(t, f.gateway, true)
		f.stub.scriptUint(t, f.gateway, "allowance", units(10, trade.NativeDecimals))

		plan, err := f.svc.Trade(t.Context(), testMarketID, trade.SideFirst, "10", "")
		require.NoError(t, err)

		assert.False(t, plan.NeedsApproval)
		assert.True(t, plan.ZeroForOne)
		assert.Equal(t, tokenA, plan.TokenToApprove)

		f.stub.waitForSent(t, "swap")
		swap := f.stub.sentAt(0)
		assert.Equal(t, true, swap.Args[3])
	})

	t.Run("uninitialized pool is rejected before any submission", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptPool(t, f.gateway, false)
		f.stub.scriptUint(t, f.gateway, "allowance", big.NewInt(0))

		_, err := f.svc.Trade(t.Context(), testMarketID, trade.SideFirst, "10", "")
		assert.ErrorIs(t, err, trade.ErrPoolNotInitialized)
		assert.Empty(t, f.stub.sentMethods())
	})
}

func TestService_Assert(t *testing.T) {
	t.Run("accepts the market's outcomes and the unresolvable marker", func(t *testing.T) {
		for _, outcome := range []string{"Yes", "No", contracts.UnresolvableOutcome} {
			f := newFixture(t)
			f.stub.scriptMarket(t, f.gateway, false, "Yes", "No")

			require.NoError(t, f.svc.Assert(t.Context(), testMarketID, outcome), "outcome %q", outcome)
			f.stub.waitForSent(t, "assertMarket")
		}
	})

	t.Run("rejects any other outcome text", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptMarket(t, f.gateway, false, "Yes", "No")

		err := f.svc.Assert(t.Context(), testMarketID, "Maybe")
		assert.ErrorIs(t, err, ErrInvalidAssertedOutcome)
		assert.Empty(t, f.stub.sentMethods())
	})
}

func TestService_Settle(t *testing.T) {
	t.Run("unresolved market cannot settle", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptMarket(t, f.gateway, false, "Yes", "No")

		err := f.svc.Settle(t.Context(), testMarketID)
		assert.ErrorIs(t, err, ErrMarketNotResolved)
		assert.Empty(t, f.stub.sentMethods())
	})

	t.Run("resolved market settles", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptMarket(t, f.gateway, true, "Yes", "No")

		require.NoError(t, f.svc.Settle(t.Context(), testMarketID))
		f.stub.waitForSent(t, "settleOutcomeTokens")
	})
}

func TestService_Prediction(t *testing.T) {
	t.Run("computes the leading outcome from slot0", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptMarket(t, f.gateway, false, "Yes", "No")
		f.stub.scriptPool(t, f.gateway, true)

		slot0Call := f.gateway.Slot0(testPoolAddr)
		data, err := slot0Call.ABI.Methods["slot0"].Outputs.Pack(
			new(big.Int).Lsh(big.NewInt(1), 96),
			big.NewInt(0),
			uint16(1),
			uint16(1),
			uint16(1),
			uint8(0),
			true,
		)
		require.NoError(t, err)
		f.stub.reads["slot0"] = data

		prediction, err := f.svc.Prediction(t.Context(), testMarketID)
		require.NoError(t, err)

		assert.Equal(t, "Yes", prediction.Outcome)
		assert.InDelta(t, 50.0, prediction.Percent, 1e-6)
	})

	t.Run("uninitialized pool has no prediction", func(t *testing.T) {
		f := newFixture(t)
		f.stub.scriptMarket(t, f.gateway, false, "Yes", "No")
		f.stub.scriptPool(t, f.gateway, false)

		_, err := f.svc.Prediction(t.Context(), testMarketID)
		assert.ErrorIs(t, err, trade.ErrPoolNotInitialized)
	})
}
