package contracts

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// poolRaw mirrors the on-chain PoolData tuple for ABI unpacking. Field names
// must match the tuple component names, capitalized.
type poolRaw struct {
	MarketId        [32]byte
	Pool            common.Address
	TokenA          common.Address
	TokenB          common.Address
	Fee             *big.Int
	PoolInitialized bool
}

func (r poolRaw) toPool() Pool {
	return Pool{
		MarketID:    MarketID(r.MarketId),
		Address:     r.Pool,
		TokenA:      r.TokenA,
		TokenB:      r.TokenB,
		Fee:         uint32(r.Fee.Uint64()),
		Initialized: r.PoolInitialized,
	}
}

// decodeOutcomeName converts an on-chain encoded outcome name to text. The
// contract stores names as raw bytes, zero-padded when they originate from
// fixed-width storage, so trailing NUL bytes are stripped.
func decodeOutcomeName(raw []byte) string {
	return string(bytes.TrimRight(raw, "\x00"))
}

// DecodeMarket decodes the getMarket result tuple.
func (g *Gateway) DecodeMarket(id MarketID, data []byte) (Market, error) {
	out, err := g.PredictionMarket.ABI.Unpack("getMarket", data)
	if err != nil {
		return Market{}, fmt.Errorf("decoding market %s: %w", id.Hex(), err)
	}

	return Market{
		ID:            id,
		Resolved:      out[0].(bool),
		Outcome1Token: out[1].(common.Address),
		Outcome2Token: out[2].(common.Address),
		Outcome1:      decodeOutcomeName(out[3].([]byte)),
		Outcome2:      decodeOutcomeName(out[4].([]byte)),
	}, nil
}

// DecodePool decodes the getPoolUsingMarketId result.
func (g *Gateway) DecodePool(data []byte) (Pool, error) {
	out, err := g.AMM.ABI.Unpack("getPoolUsingMarketId", data)
	if err != nil {
		return Pool{}, fmt.Errorf("decoding pool: %w", err)
	}

	raw := *abi.ConvertType(out[0], new(poolRaw)).(*poolRaw)
	return raw.toPool(), nil
}

// DecodePools decodes the getAllPools result.
func (g *Gateway) DecodePools(data []byte) ([]Pool, error) {
	out, err := g.AMM.ABI.Unpack("getAllPools", data)
	if err != nil {
		return nil, fmt.Errorf("decoding pool directory: %w", err)
	}

	raws := *abi.ConvertType(out[0], new([]poolRaw)).(*[]poolRaw)

	pools := make([]Pool, len(raws))
	for i, raw := range raws {
		pools[i] = raw.toPool()
	}
	return pools, nil
}

// DecodeSlot0 decodes the pool's slot0 tuple, keeping only the fields this
// client consumes.
func (g *Gateway) DecodeSlot0(data []byte) (Slot0, error) {
	out, err := poolABI.Unpack("slot0", data)
	if err != nil {
		return Slot0{}, fmt.Errorf("decoding slot0: %w", err)
	}

	return Slot0{
		SqrtPriceX96: out[0].(*big.Int),
		Tick:         out[1].(*big.Int),
		Unlocked:     out[6].(bool),
	}, nil
}

// DecodeUint256 decodes a single uint256 return value, as produced by the
// ERC-20 balanceOf and allowance reads.
func DecodeUint256(data []byte) (*big.Int, error) {
	out, err := erc20ABI.Unpack("balanceOf", data)
	if err != nil {
		return nil, fmt.Errorf("decoding uint256: %w", err)
	}

	return out[0].(*big.Int), nil
}
