package ethereum

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/pkg/logger"
	"github.com/foresightmkt/foresight/internal/pkg/transport/jsonrpc"
	"github.com/foresightmkt/foresight/internal/txflow"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(logger.WithLevel("error"))
	os.Exit(m.Run())
}

const (
	// Throwaway key, never funded anywhere.
	testPrivateKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	testChainID    = uint64(84532)
)

var testTxHash = "0x" + strings.Repeat("ab", 32)

// rpcStub is a scripted JSON-RPC server. Results are keyed by method; the
// raw params of every request are recorded.
type rpcStub struct {
	mu      sync.Mutex
	results map[string]any
	errors  map[string]map[string]any
	params  map[string][]json.RawMessage
}

func newRPCStub() *rpcStub {
	return &rpcStub{
		results: map[string]any{
			"eth_getTransactionCount": "0x5",
			"eth_gasPrice":            "0x3b9aca00",
			"eth_estimateGas":         "0x5208",
			"eth_sendRawTransaction":  testTxHash,
		},
		errors: make(map[string]map[string]any),
		params: make(map[string][]json.RawMessage),
	}
}

func (s *rpcStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any               `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.params[req.Method] = req.Params
		response := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr, ok := s.errors[req.Method]; ok {
			response["error"] = rpcErr
		} else {
			response["result"] = s.results[req.Method]
		}
		s.mu.Unlock()

		json.NewEncoder(w).Encode(response)
	}
}

func (s *rpcStub) set(method string, result any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[method] = result
}

func (s *rpcStub) fail(method string, code int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[method] = map[string]any{"code": code, "message": message}
}

func (s *rpcStub) requested(method string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.params[method]
	return ok
}

func (s *rpcStub) firstParam(t *testing.T, method string) string {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	params := s.params[method]
	require.NotEmpty(t, params, "no %s request recorded", method)

	var value string
	require.NoError(t, json.Unmarshal(params[0], &value))
	return value
}

func newTestClient(t *testing.T, stub *rpcStub) *Client {
	t.Helper()

	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	conn := jsonrpc.NewClient(server.Client(), server.URL)

	client, err := NewClient(conn, testPrivateKey, testChainID)
	require.NoError(t, err)
	return client
}

func testCall() contracts.Call {
	gateway := contracts.NewGateway(
		common.HexToAddress("0x1d8A4f3abacfE2eD80dd576db7f5c62239F25c98"),
		common.HexToAddress("0x34b5Fe022535Ff7d82dD44fe63eBd1135A9eB2C5"),
		common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
	)
	return gateway.SettleOutcomeTokens(contracts.MarketID{0x01})
}

func TestNewClient(t *testing.T) {
	t.Run("derives the account from the key", func(t *testing.T) {
		client := newTestClient(t, newRPCStub())
		assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", client.Account().Hex())
	})

	t.Run("key prefix is optional", func(t *testing.T) {
		stub := newRPCStub()
		server := httptest.NewServer(stub.handler())
		t.Cleanup(server.Close)

		conn := jsonrpc.NewClient(server.Client(), server.URL)

		client, err := NewClient(conn, strings.TrimPrefix(testPrivateKey, "0x"), testChainID)
		require.NoError(t, err)
		assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", client.Account().Hex())
	})

	t.Run("garbage key is rejected", func(t *testing.T) {
		_, err := NewClient(nil, "not-a-key", testChainID)
		assert.Error(t, err)
	})
}

func TestClient_SendCall(t *testing.T) {
	t.Run("signs and broadcasts a legacy transaction", func(t *testing.T) {
		stub := newRPCStub()
		client := newTestClient(t, stub)
		call := testCall()

		hash, err := client.SendCall(t.Context(), call)
		require.NoError(t, err)
		assert.Equal(t, testTxHash, hash)

		raw, err := hexutil.Decode(stub.firstParam(t, "eth_sendRawTransaction"))
		require.NoError(t, err)

		var tx gethtypes.Transaction
		require.NoError(t, tx.UnmarshalBinary(raw))

		assert.Equal(t, call.To, *tx.To())
		assert.Equal(t, uint64(5), tx.Nonce())
		assert.Equal(t, uint64(25200), tx.Gas(), "estimate of 21000 gets a 20% margin")
		assert.Zero(t, big.NewInt(1_000_000_000).Cmp(tx.GasPrice()))

		sender, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(new(big.Int).SetUint64(testChainID)), &tx)
		require.NoError(t, err)
		assert.Equal(t, client.Account(), sender)
	})

	t.Run("estimation failure stops before signing", func(t *testing.T) {
		stub := newRPCStub()
		stub.fail("eth_estimateGas", 3, "execution reverted")
		client := newTestClient(t, stub)

		_, err := client.SendCall(t.Context(), testCall())
		assert.ErrorIs(t, err, jsonrpc.ErrProviderReturnedError)
		assert.False(t, stub.requested("eth_sendRawTransaction"), "nothing must be broadcast after a failed estimate")
	})
}

func TestClient_TransactionState(t *testing.T) {
	t.Run("missing receipt is pending", func(t *testing.T) {
		stub := newRPCStub()
		stub.set("eth_getTransactionReceipt", nil)
		client := newTestClient(t, stub)

		state, err := client.TransactionState(t.Context(), testTxHash)
		require.NoError(t, err)
		assert.Equal(t, txflow.ReceiptPending, state)
	})

	t.Run("status 0x1 is success", func(t *testing.T) {
		stub := newRPCStub()
		stub.set("eth_getTransactionReceipt", map[string]any{"status": "0x1", "blockNumber": "0x10"})
		client := newTestClient(t, stub)

		state, err := client.TransactionState(t.Context(), testTxHash)
		require.NoError(t, err)
		assert.Equal(t, txflow.ReceiptSuccess, state)
	})

	t.Run("status 0x0 is reverted", func(t *testing.T) {
		stub := newRPCStub()
		stub.set("eth_getTransactionReceipt", map[string]any{"status": "0x0", "blockNumber": "0x10"})
		client := newTestClient(t, stub)

		state, err := client.TransactionState(t.Context(), testTxHash)
		require.NoError(t, err)
		assert.Equal(t, txflow.ReceiptReverted, state)
	})
}

func TestClient_CallContract(t *testing.T) {
	t.Run("returns the decoded output bytes", func(t *testing.T) {
		stub := newRPCStub()
		stub.set("eth_call", "0x"+strings.Repeat("00", 31)+"2a")
		client := newTestClient(t, stub)

		output, err := client.CallContract(t.Context(), testCall())
		require.NoError(t, err)

		require.Len(t, output, 32)
		assert.Equal(t, byte(0x2a), output[31])
	})

	t.Run("provider errors pass through", func(t *testing.T) {
		stub := newRPCStub()
		stub.fail("eth_call", 3, "execution reverted")
		client := newTestClient(t, stub)

		_, err := client.CallContract(t.Context(), testCall())
		assert.ErrorIs(t, err, jsonrpc.ErrProviderReturnedError)
	})
}
