package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/market"

	"github.com/redis/go-redis/v9"
)

// marketKeyPrefix is the namespace prefix for all market directory keys.
const marketKeyPrefix = "market"

// poolListingTTL bounds how stale the cached pool listing can get. New pools
// appear rarely, and a cold read just falls through to the chain.
const poolListingTTL = 5 * time.Minute

// poolListingKey is the Redis key holding the JSON-encoded pool listing for
// one chain. The format is:
//
//	"market:pools:<chainID>"
func poolListingKey(chainID uint64) string {
	return fmt.Sprintf("%s:pools:%d", marketKeyPrefix, chainID)
}

// PoolDirectory wraps the client with the chain it caches for.
type PoolDirectory struct {
	client  *client
	chainID uint64
}

var _ market.PoolDirectory = (*PoolDirectory)(nil)

// NewPoolDirectory creates a pool directory scoped to one chain.
func NewPoolDirectory(c *client, chainID uint64) *PoolDirectory {
	return &PoolDirectory{
		client:  c,
		chainID: chainID,
	}
}

// Pools loads the cached pool listing, returning market.ErrPoolsNotCached
// when the key is missing or expired.
func (d *PoolDirectory) Pools(ctx context.Context) ([]contracts.Pool, error) {
	val, err := d.client.conn.Get(ctx, poolListingKey(d.chainID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = market.ErrPoolsNotCached
		}

		return nil, err
	}

	var pools []contracts.Pool
	return pools, json.Unmarshal(val, &pools)
}

// StorePools replaces the cached pool listing.
func (d *PoolDirectory) StorePools(ctx context.Context, pools []contracts.Pool) error {
	val, err := json.Marshal(pools)
	if err != nil {
		return err
	}

	return d.client.conn.Set(ctx, poolListingKey(d.chainID), val, poolListingTTL).Err()
}
