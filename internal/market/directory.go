package market

import (
	"context"
	"errors"

	"github.com/foresightmkt/foresight/internal/contracts"
)

// ErrPoolsNotCached signals that the directory holds no pool listing, so the
// caller should read the chain and store the result.
var ErrPoolsNotCached = errors.New("pools are not cached")

// PoolDirectory caches the AMM's pool listing between sessions.
type PoolDirectory interface {
	// Pools returns the cached listing, or ErrPoolsNotCached when the cache
	// is empty or expired.
	Pools(ctx context.Context) ([]contracts.Pool, error)

	// StorePools replaces the cached listing.
	StorePools(ctx context.Context, pools []contracts.Pool) error
}

type nopDirectory struct{}

var _ PoolDirectory = (*nopDirectory)(nil)

// NewNopDirectory returns a directory that caches nothing, forcing every pool
// listing onto the chain.
func NewNopDirectory() PoolDirectory {
	return new(nopDirectory)
}

func (nopDirectory) Pools(_ context.Context) ([]contracts.Pool, error) {
	return nil, ErrPoolsNotCached
}

func (nopDirectory) StorePools(_ context.Context, _ []contracts.Pool) error {
	return nil
}
