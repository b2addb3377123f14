// Package tokens implements the Token Metadata Cache (component B):
// resolves and memoizes (chainId, token) -> decimals/symbol via JSON-RPC,
// persisted so later runs skip the on-chain read entirely.
package tokens

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"aquaquote/internal/abiutil"
	"aquaquote/internal/addr"
	"aquaquote/internal/contractclient"
)

// Providers resolves the single, reused JSON-RPC caller for a chain. The
// cache never constructs its own ethclient — that is the caller's single-
// flight-guarded provider cache (§5 "JSON-RPC provider cache (B) is
// single-flight per chain"), injected here as a narrow interface so tests
// can fake it.
type Providers interface {
	Caller(chainID int) (contractclient.Caller, error)
}

// Cache is the component B implementation.
type Cache struct {
	store     *Store
	providers Providers
}

func NewCache(store *Store, providers Providers) *Cache {
	return &Cache{store: store, providers: providers}
}

// Ensure resolves (chainID, address) to a Record, reading from the store if
// already cached or from the chain otherwise. decimals() failure is fatal;
// symbol() failure is tolerated and stored as nil.
func (c *Cache) Ensure(ctx context.Context, chainID int, address string) (*Record, error) {
	checksummed, err := addr.Checksum(address)
	if err != nil {
		return nil, fmt.Errorf("invalid token address %q: %w", address, err)
	}
	key := checksummed.Hex()

	if existing, err := c.store.Find(chainID, key); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	caller, err := c.providers.Caller(chainID)
	if err != nil {
		return nil, fmt.Errorf("resolving JSON-RPC provider for chain %d: %w", chainID, err)
	}

	client := contractclient.New(caller, checksummed, abiutil.ERC20Metadata())

	var decimals uint8
	var symbol *string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := client.Call(gctx, "decimals")
		if err != nil {
			return fmt.Errorf("reading decimals() for %s on chain %d: %w", key, chainID, err)
		}
		decimals = out[0].(uint8)
		return nil
	})
	g.Go(func() error {
		out, callErr := client.Call(gctx, "symbol")
		if callErr != nil {
			// symbol() is tolerated to fail — stored as null, per §4.B.
			return nil
		}
		s := out[0].(string)
		symbol = &s
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	rec := &Record{ChainID: chainID, Address: key, Decimals: decimals, Symbol: symbol}
	if err := c.store.Insert(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// EnsureBoth resolves sell and buy token records concurrently, as used by
// the orchestrator's getPrice step 4 ("Concurrently ensure both token
// records via B").
func (c *Cache) EnsureBoth(ctx context.Context, chainID int, sell, buy common.Address) (sellRec, buyRec *Record, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, e := c.Ensure(gctx, chainID, sell.Hex())
		if e != nil {
			return e
		}
		sellRec = r
		return nil
	})
	g.Go(func() error {
		r, e := c.Ensure(gctx, chainID, buy.Hex())
		if e != nil {
			return e
		}
		buyRec = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sellRec, buyRec, nil
}
