// Package rpcpool is the JSON-RPC provider cache shared by every component
// that talks to a chain: one ethclient.Client per chainId, reused, with
// single-flight initialization so concurrent first-callers for the same
// chain don't open redundant connections (§5 "JSON-RPC provider cache (B)
// is single-flight per chain").
package rpcpool

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/singleflight"

	"aquaquote/internal/chainscfg"
	"aquaquote/internal/contractclient"
)

// Pool lazily dials and caches one *ethclient.Client per chain.
type Pool struct {
	registry *chainscfg.Registry

	mu      sync.RWMutex
	clients map[int]*ethclient.Client

	group singleflight.Group
}

func New(registry *chainscfg.Registry) *Pool {
	return &Pool{
		registry: registry,
		clients:  make(map[int]*ethclient.Client),
	}
}

// Caller returns the reused JSON-RPC client for chainID, dialing it on
// first use. Concurrent first-callers for the same chain collapse onto a
// single dial via singleflight.
func (p *Pool) Caller(chainID int) (contractclient.Caller, error) {
	p.mu.RLock()
	client, ok := p.clients[chainID]
	p.mu.RUnlock()
	if ok {
		return client, nil
	}

	key := fmt.Sprintf("%d", chainID)
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		p.mu.RLock()
		if existing, ok := p.clients[chainID]; ok {
			p.mu.RUnlock()
			return existing, nil
		}
		p.mu.RUnlock()

		chain, err := p.registry.Get(chainID)
		if err != nil {
			return nil, err
		}

		dialed, err := ethclient.Dial(chain.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("dialing RPC for chain %d: %w", chainID, err)
		}

		p.mu.Lock()
		p.clients[chainID] = dialed
		p.mu.Unlock()
		return dialed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ethclient.Client), nil
}

// Close tears down every cached client.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clients {
		c.Close()
	}
	p.clients = make(map[int]*ethclient.Client)
}
