// Package ethereum adapts an Ethereum-compatible JSON-RPC node to the ports
// the application needs: read-only contract calls, signed call submission,
// and receipt polling.
package ethereum

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/foresightmkt/foresight/internal/market"
	"github.com/foresightmkt/foresight/internal/pkg/transport/jsonrpc"
	"github.com/foresightmkt/foresight/internal/txflow"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Client talks to one Ethereum-compatible node on behalf of one signing key.
type Client struct {
	conn    jsonrpc.Client
	key     *ecdsa.PrivateKey
	account common.Address
	chainID *big.Int
}

var (
	_ txflow.CallSender     = (*Client)(nil)
	_ txflow.ReceiptSource  = (*Client)(nil)
	_ market.ContractReader = (*Client)(nil)
)

// NewClient creates a client bound to the given chain and signing key. The
// key is a hex-encoded secp256k1 private key, with or without a 0x prefix.
func NewClient(conn jsonrpc.Client, privateKeyHex string, chainID uint64) (*Client, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Client{
		conn:    conn,
		key:     key,
		account: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).SetUint64(chainID),
	}, nil
}

// Account returns the address derived from the configured signing key.
func (c *Client) Account() common.Address {
	return c.account
}
