// Package cache holds per-wallet, per-chain balances and addresses in
// memory with lazy TTL eviction. Entries are keyed independently, so a slow
// chain never blocks writes for the others. A store can be attached for
// fire-and-forget persistence across restarts.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/prism-wallet/prism/internal/store"
	"github.com/prism-wallet/prism/pkg/logging"
)

// Clock abstracts time for tests.
type Clock func() time.Time

// DefaultBalanceTTL is how long a balance stays fresh.
const DefaultBalanceTTL = 5 * time.Minute

type balanceEntry struct {
	value    string
	storedAt time.Time
}

type addressKey struct {
	walletID string
	chain    string
	index    uint32
}

type balanceKey struct {
	walletID string
	chain    string
}

// Cache is safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	balances  map[balanceKey]balanceEntry
	addresses map[addressKey]string
	ttl       time.Duration
	now       Clock

	persist *store.Store // optional
	log     *logging.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects a time source.
func WithClock(clock Clock) Option {
	return func(c *Cache) { c.now = clock }
}

// WithTTL overrides the balance TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithStore attaches a persistence backend. Writes to it happen in the
// background and never fail a cache update.
func WithStore(s *store.Store) Option {
	return func(c *Cache) { c.persist = s }
}

// New creates an empty cache.
func New(log *logging.Logger, opts ...Option) *Cache {
	c := &Cache{
		balances:  make(map[balanceKey]balanceEntry),
		addresses: make(map[addressKey]string),
		ttl:       DefaultBalanceTTL,
		now:       time.Now,
		log:       log.Component("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBalance stores a balance for (walletID, chain).
func (c *Cache) SetBalance(walletID, chain, balance string) {
	now := c.now()
	c.mu.Lock()
	c.balances[balanceKey{walletID, chain}] = balanceEntry{value: balance, storedAt: now}
	c.mu.Unlock()

	if c.persist != nil {
		go func() {
			if err := c.persist.SaveBalance(walletID, chain, balance, now); err != nil {
				c.log.Warn("balance persist failed", "wallet", walletID, "chain", chain, "error", err)
			}
		}()
	}
}

// GetBalance returns the cached balance if it is still fresh. Expired
// entries are evicted on read, not by a background sweeper.
func (c *Cache) GetBalance(walletID, chain string) (string, bool) {
	key := balanceKey{walletID, chain}

	c.mu.RLock()
	entry, ok := c.balances[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	// Fresh means strictly younger than the TTL; an entry exactly TTL old
	// has expired.
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a fresher write may have landed.
		if cur, ok := c.balances[key]; ok && cur.storedAt.Equal(entry.storedAt) {
			delete(c.balances, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

// SetAddress stores an address at (walletID, chain, index). Addresses do
// not expire; derivation is deterministic.
func (c *Cache) SetAddress(walletID, chain string, index uint32, address string) {
	c.mu.Lock()
	c.addresses[addressKey{walletID, chain, index}] = address
	c.mu.Unlock()

	if c.persist != nil {
		now := c.now()
		go func() {
			if err := c.persist.SaveAddress(walletID, chain, index, address, now); err != nil {
				c.log.Warn("address persist failed", "wallet", walletID, "chain", chain, "error", err)
			}
		}()
	}
}

// GetAddress returns the cached address at an exact index.
func (c *Cache) GetAddress(walletID, chain string, index uint32) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	addr, ok := c.addresses[addressKey{walletID, chain, index}]
	return addr, ok
}

// PrimaryAddresses returns the lowest-index address per chain for a wallet.
func (c *Cache) PrimaryAddresses(walletID string) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lowest := make(map[string]uint32)
	out := make(map[string]string)
	for key, addr := range c.addresses {
		if key.walletID != walletID {
			continue
		}
		if cur, ok := lowest[key.chain]; !ok || key.index < cur {
			lowest[key.chain] = key.index
			out[key.chain] = addr
		}
	}
	return out
}

// AddressesForChain returns all cached addresses for (walletID, chain) in
// index order.
func (c *Cache) AddressesForChain(walletID, chain string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var indices []uint32
	byIndex := make(map[uint32]string)
	for key, addr := range c.addresses {
		if key.walletID == walletID && key.chain == chain {
			indices = append(indices, key.index)
			byIndex[key.index] = addr
		}
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		out = append(out, byIndex[idx])
	}
	return out
}

// DropWallet removes everything cached for a wallet.
func (c *Cache) DropWallet(walletID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.balances {
		if key.walletID == walletID {
			delete(c.balances, key)
		}
	}
	for key := range c.addresses {
		if key.walletID == walletID {
			delete(c.addresses, key)
		}
	}
}

// Warm loads persisted rows for a wallet into memory. Persisted balances
// come back already stale-dated so the TTL still applies.
func (c *Cache) Warm(walletID string) {
	if c.persist == nil {
		return
	}

	if balances, err := c.persist.LoadBalances(walletID); err == nil {
		c.mu.Lock()
		for _, b := range balances {
			c.balances[balanceKey{b.WalletID, b.Chain}] = balanceEntry{value: b.Balance, storedAt: b.UpdatedAt}
		}
		c.mu.Unlock()
	}

	if addrs, err := c.persist.LoadAddresses(walletID); err == nil {
		c.mu.Lock()
		for _, a := range addrs {
			c.addresses[addressKey{a.WalletID, a.Chain, a.Index}] = a.Address
		}
		c.mu.Unlock()
	}
}
