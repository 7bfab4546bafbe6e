// Package loader fans wallet data loads out across all chain services and
// fans the results back in under one umbrella timeout. Each chain lands in
// the cache independently; one slow chain delays only itself.
package loader

import (
	"context"
	"errors"
	"sync"

	"github.com/prism-wallet/prism/internal/cache"
	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/chainsvc"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/status"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/logging"
)

// ChainData is the per-chain result of a load.
type ChainData struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// ServiceBuilder is what the loader needs from the chain service manager.
type ServiceBuilder interface {
	Build(rec *wallet.Record) (map[string]chainsvc.Service, error)
	HasPrivacyChain() bool
}

// Loader coordinates full-wallet refreshes.
type Loader struct {
	mgr   ServiceBuilder
	cache *cache.Cache
	agg   *status.Aggregator
	cfg   config.LoaderConfig
	log   *logging.Logger

	mu          sync.Mutex
	generations map[string]uint64 // walletID -> latest load generation
}

// New creates a loader.
func New(mgr ServiceBuilder, c *cache.Cache, agg *status.Aggregator, cfg config.LoaderConfig, log *logging.Logger) *Loader {
	return &Loader{
		mgr:         mgr,
		cache:       c,
		agg:         agg,
		cfg:         cfg,
		log:         log.Component("loader"),
		generations: make(map[string]uint64),
	}
}

// Load refreshes every chain for a wallet and returns whatever arrived
// before the umbrella timeout. Chains that missed the deadline report the
// loading placeholder; their goroutines keep running and still write the
// cache when they finish, unless a newer load has started since.
func (l *Loader) Load(ctx context.Context, rec *wallet.Record) (map[string]ChainData, error) {
	services, err := l.mgr.Build(rec)
	if err != nil {
		return nil, err
	}

	generation := l.bumpGeneration(rec.ID)

	timeout := l.cfg.Timeout
	if l.mgr.HasPrivacyChain() {
		timeout = l.cfg.PrivacyTimeout
	}
	umbrella, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan ChainData, len(services))
	for sym, svc := range services {
		go func(sym string, svc chainsvc.Service) {
			// Detached from the umbrella: a late chain finishes its write
			// on its own schedule instead of being killed mid-flight.
			results <- l.loadChain(context.WithoutCancel(ctx), rec, sym, svc, generation)
		}(sym, svc)
	}

	out := make(map[string]ChainData, len(services))
	for range services {
		select {
		case data := <-results:
			out[data.Chain] = data
		case <-umbrella.Done():
			for sym := range services {
				if _, ok := out[sym]; !ok {
					out[sym] = ChainData{Chain: sym, Address: chain.SentinelLoading, Balance: chain.SentinelLoading}
				}
			}
			l.log.Warn("load timed out, returning partial results", "wallet", rec.ID, "loaded", len(out))
			return out, nil
		}
	}
	return out, nil
}

// loadChain initializes, fetches, and caches one chain.
func (l *Loader) loadChain(ctx context.Context, rec *wallet.Record, sym string, svc chainsvc.Service, generation uint64) ChainData {
	data := ChainData{Chain: sym}
	l.agg.Set(sym, status.StatusConnecting)

	if init, ok := svc.(chainsvc.Initializer); ok {
		if err := init.Init(ctx); err != nil {
			// Init errors that matter surface as a failed state; the
			// service decides which ones degrade instead.
			l.agg.Set(sym, status.StatusError)
			data.Address = addressSentinel(err)
			data.Balance = chain.BalanceError
			return data
		}
	}

	addr, err := svc.GetAddress(ctx, 0)
	if err != nil {
		data.Address = addressSentinel(err)
	} else {
		data.Address = addr
		if chain.UsableAddress(addr) && l.currentGeneration(rec.ID) == generation {
			l.cache.SetAddress(rec.ID, sym, 0, addr)
		}
	}

	balance, err := svc.GetBalance(ctx)
	if err != nil {
		data.Balance = chain.BalanceError
		l.agg.Set(sym, status.StatusError)
	} else {
		data.Balance = balance
		l.agg.Set(sym, status.StatusConnected)
		// Stale-load guard: only the newest load may write.
		if l.currentGeneration(rec.ID) == generation {
			l.cache.SetBalance(rec.ID, sym, balance)
		}
	}
	return data
}

// addressSentinel maps typed errors to the display placeholders.
func addressSentinel(err error) string {
	switch {
	case errors.Is(err, wallet.ErrNoCredentials), errors.Is(err, wallet.ErrMnemonicRequired):
		return chain.SentinelNoCredentials
	case errors.Is(err, chainsvc.ErrAddressUnavailable):
		return chain.SentinelAddressError
	case errors.Is(err, context.DeadlineExceeded):
		return chain.SentinelGettingAddress
	default:
		return chain.SentinelAddressError + ": " + err.Error()
	}
}

func (l *Loader) bumpGeneration(walletID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generations[walletID]++
	return l.generations[walletID]
}

func (l *Loader) currentGeneration(walletID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generations[walletID]
}
