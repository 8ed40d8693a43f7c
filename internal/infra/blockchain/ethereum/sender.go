package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/pkg/logger"
	"github.com/foresightmkt/foresight/internal/pkg/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// gas estimates get a 20% margin so calls whose footprint grows between
// estimation and inclusion still land.
const gasMarginPercent = 20

type callParams struct {
	From string `json:"from"`
	To   string `json:"to"`
	Data string `json:"data"`
}

func (c *Client) fetchHex(ctx context.Context, method string, params ...any) (types.Hex, error) {
	data, err := c.conn.Fetch(ctx, method, params...)
	if err != nil {
		return "", err
	}

	var value types.Hex
	return value, json.Unmarshal(data, &value)
}

func (c *Client) pendingNonce(ctx context.Context) (uint64, error) {
	nonce, err := c.fetchHex(ctx, "eth_getTransactionCount", c.account.Hex(), "pending")
	if err != nil {
		return 0, err
	}

	return nonce.Uint64(), nil
}

func (c *Client) gasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.fetchHex(ctx, "eth_gasPrice")
	if err != nil {
		return nil, err
	}

	return price.Big(), nil
}

func (c *Client) estimateGas(ctx context.Context, params callParams) (uint64, error) {
	estimate, err := c.fetchHex(ctx, "eth_estimateGas", params)
	if err != nil {
		return 0, err
	}

	return estimate.Uint64() * (100 + gasMarginPercent) / 100, nil
}

// SendCall signs the call as a legacy transaction and broadcasts it,
// returning the transaction hash. Estimation runs the call against the
// node's pending state, so calls the contract would revert are rejected here
// before anything is signed.
func (c *Client) SendCall(ctx context.Context, call contracts.Call) (string, error) {
	data, err := call.Data()
	if err != nil {
		return "", err
	}

	nonce, err := c.pendingNonce(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch pending nonce: %w", err)
	}

	price, err := c.gasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gas price: %w", err)
	}

	gas, err := c.estimateGas(ctx, callParams{
		From: c.account.Hex(),
		To:   call.To.Hex(),
		Data: hexutil.Encode(data),
	})
	if err != nil {
		return "", fmt.Errorf("gas estimation failed: %w", err)
	}

	signed, err := gethtypes.SignNewTx(c.key, gethtypes.LatestSignerForChainID(c.chainID), &gethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: price,
		Gas:      gas,
		To:       &call.To,
		Value:    new(big.Int),
		Data:     data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", err
	}

	hash, err := c.fetchHex(ctx, "eth_sendRawTransaction", hexutil.Encode(raw))
	if err != nil {
		return "", err
	}

	logger.Debug(ctx, "transaction broadcast",
		"hash", string(hash),
		"method", call.Method,
		"nonce", nonce,
		"gas", gas,
	)

	return string(hash), nil
}
