package ethereum

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/foresightmkt/foresight/internal/pkg/types"
	"github.com/foresightmkt/foresight/internal/txflow"
)

type receiptResponse struct {
	Status      types.Hex `json:"status"`
	BlockNumber types.Hex `json:"blockNumber"`
}

// TransactionState reports the receipt state of a broadcast transaction. A
// null receipt means the transaction is still pending.
func (c *Client) TransactionState(ctx context.Context, identifier string) (txflow.ReceiptState, error) {
	data, err := c.conn.Fetch(ctx, "eth_getTransactionReceipt", identifier)
	if err != nil {
		return txflow.ReceiptPending, err
	}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return txflow.ReceiptPending, nil
	}

	var receipt receiptResponse
	if err := json.Unmarshal(data, &receipt); err != nil {
		return txflow.ReceiptPending, err
	}

	if receipt.Status.Uint64() == 1 {
		return txflow.ReceiptSuccess, nil
	}

	return txflow.ReceiptReverted, nil
}
