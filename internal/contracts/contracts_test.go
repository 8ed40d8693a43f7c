package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPredictionMarket = common.HexToAddress("0x1d8A4f3abacfE2eD80dd576db7f5c62239F25c98")
	testAMM              = common.HexToAddress("0x34b5Fe022535Ff7d82dD44fe63eBd1135A9eB2C5")
	testCollateral       = common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	testToken            = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testAccount          = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testGateway() *Gateway {
	return NewGateway(testPredictionMarket, testAMM, testCollateral)
}

func TestMarketID(t *testing.T) {
	t.Run("hex round trip", func(t *testing.T) {
		hex := "0x0102030000000000000000000000000000000000000000000000000000000000"

		id, err := MarketIDFromHex(hex)
		require.NoError(t, err)
		assert.Equal(t, hex, id.Hex())
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := MarketIDFromHex("0x0102")
		assert.Error(t, err)
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := MarketIDFromHex("0102030000000000000000000000000000000000000000000000000000000000")
		assert.Error(t, err)
	})

	t.Run("text marshaling round trip", func(t *testing.T) {
		id := MarketID{0xab, 0xcd}

		text, err := id.MarshalText()
		require.NoError(t, err)

		var decoded MarketID
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, id, decoded)
	})
}

func TestCall_Data(t *testing.T) {
	t.Run("encodes a known method with the selector first", func(t *testing.T) {
		call := testGateway().BalanceOf(testToken, testAccount)

		data, err := call.Data()
		require.NoError(t, err)

		method, ok := erc20ABI.Methods["balanceOf"]
		require.True(t, ok)
		assert.Equal(t, method.ID, data[:4])
	})

	t.Run("unknown method fails", func(t *testing.T) {
		call := Call{To: testToken, ABI: erc20ABI, Method: "transferFrom"}

		_, err := call.Data()
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})

	t.Run("missing interface fragment fails", func(t *testing.T) {
		call := Call{To: testToken, Method: "balanceOf"}

		_, err := call.Data()
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})
}

func TestGateway_CallBuilders(t *testing.T) {
	gateway := testGateway()
	id := MarketID{0x01}

	t.Run("every builder produces an encodable call", func(t *testing.T) {
		calls := map[string]Call{
			"approve":              gateway.Approve(testToken, testAMM, big.NewInt(100)),
			"initializeMarket":     gateway.InitializeMarket("Yes", "No", "desc", big.NewInt(1), big.NewInt(5), big.NewInt(3000)),
			"createOutcomeTokens":  gateway.CreateOutcomeTokens(id, big.NewInt(100)),
			"assertMarket":         gateway.AssertMarket(id, "Yes"),
			"settleOutcomeTokens":  gateway.SettleOutcomeTokens(id),
			"swap":                 gateway.Swap(id, big.NewInt(100), big.NewInt(0), true),
			"getMarket":            gateway.GetMarket(id),
			"getPoolUsingMarketId": gateway.GetPool(id),
			"getAllPools":          gateway.GetAllPools(),
			"balanceOf":            gateway.BalanceOf(testToken, testAccount),
			"allowance":            gateway.Allowance(testToken, testAccount, testAMM),
			"slot0":                gateway.Slot0(testToken),
		}

		for method, call := range calls {
			assert.Equal(t, method, call.Method)

			data, err := call.Data()
			require.NoError(t, err, "method %s", method)
			assert.NotEmpty(t, data, "method %s", method)
		}
	})

	t.Run("calls target the right contract", func(t *testing.T) {
		assert.Equal(t, testToken, gateway.Approve(testToken, testAMM, big.NewInt(1)).To)
		assert.Equal(t, testPredictionMarket, gateway.CreateOutcomeTokens(id, big.NewInt(1)).To)
		assert.Equal(t, testAMM, gateway.Swap(id, big.NewInt(1), big.NewInt(0), true).To)
		assert.Equal(t, testToken, gateway.Slot0(testToken).To)
	})
}

func TestPool_FeePercent(t *testing.T) {
	assert.InDelta(t, 0.30, Pool{Fee: 3000}.FeePercent(), 1e-9)
	assert.InDelta(t, 1.00, Pool{Fee: 10000}.FeePercent(), 1e-9)
}
