package ethereum

import (
	"context"
	"encoding/json"

	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/pkg/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallContract executes a read-only call against the latest state and returns
// the raw ABI-encoded output.
func (c *Client) CallContract(ctx context.Context, call contracts.Call) ([]byte, error) {
	data, err := call.Data()
	if err != nil {
		return nil, err
	}

	response, err := c.conn.Fetch(ctx, "eth_call", callParams{
		From: c.account.Hex(),
		To:   call.To.Hex(),
		Data: hexutil.Encode(data),
	}, "latest")
	if err != nil {
		return nil, err
	}

	var output types.Hex
	if err := json.Unmarshal(response, &output); err != nil {
		return nil, err
	}

	return hexutil.Decode(string(output))
}
