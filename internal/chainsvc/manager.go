package chainsvc

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/logging"
)

// Manager builds the per-chain service set for a wallet. Building is
// deterministic: the same record and config always produce the same
// services, so a wallet can be rebuilt from storage at any time.
type Manager struct {
	cfg *config.Config
	log *logging.Logger

	mu       sync.Mutex
	services map[string]map[string]Service // walletID -> chain -> service
}

// NewManager creates a manager over the configured networks.
func NewManager(cfg *config.Config, log *logging.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		log:      log.Component("manager"),
		services: make(map[string]map[string]Service),
	}
}

// Build constructs services for every enabled network and caches them per
// wallet. A record without a mnemonic still gets all services; chains that
// need one answer individual calls with the credential error instead of
// failing the whole build.
func (m *Manager) Build(record *wallet.Record) (map[string]Service, error) {
	if record == nil {
		return nil, wallet.ErrNoCredentials
	}

	m.mu.Lock()
	if existing, ok := m.services[record.ID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	var keyring *wallet.Keyring
	if record.HasMnemonic() {
		var err error
		keyring, err = wallet.NewKeyring(record.Mnemonic)
		if err != nil {
			return nil, fmt.Errorf("failed to build keyring: %w", err)
		}
	}

	services := make(map[string]Service)
	for _, network := range m.cfg.EnabledNetworks() {
		svc, err := m.buildService(network, record, keyring)
		if err != nil {
			m.log.Error("failed to build chain service", "chain", network.Chain, "error", err)
			continue
		}
		services[network.Chain] = svc
	}

	m.mu.Lock()
	m.services[record.ID] = services
	m.mu.Unlock()
	return services, nil
}

func (m *Manager) buildService(network config.Network, record *wallet.Record, keyring *wallet.Keyring) (Service, error) {
	params, ok := chain.Get(network.Chain)
	if !ok {
		return nil, fmt.Errorf("unknown chain %s", network.Chain)
	}

	switch params.Kind {
	case chain.KindEVM:
		return NewEVMService(network, record, keyring, m.log)
	case chain.KindBitcoin:
		return NewBitcoinService(network, record, keyring, m.log)
	case chain.KindSolana:
		return NewSolanaService(network, record, keyring, m.log)
	case chain.KindMonero:
		return NewMoneroService(network, record, keyring, m.log)
	case chain.KindZcash:
		return NewZcashService(network, record, keyring, m.log)
	default:
		return nil, fmt.Errorf("no service for chain kind %s", params.Kind)
	}
}

// InitAll runs the handshake for every service that has one, concurrently,
// and returns per-chain errors. A failed handshake never blocks the other
// chains.
func (m *Manager) InitAll(ctx context.Context, services map[string]Service) map[string]error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errMap = make(map[string]error)
	)

	for sym, svc := range services {
		init, ok := svc.(Initializer)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(sym string, init Initializer) {
			defer wg.Done()
			if err := init.Init(ctx); err != nil {
				m.log.Error("chain init failed", "chain", sym, "error", err)
				mu.Lock()
				errMap[sym] = err
				mu.Unlock()
			}
		}(sym, init)
	}
	wg.Wait()
	return errMap
}

// Drop forgets the cached services for a wallet. Used when a wallet is
// deleted or its secret changes.
func (m *Manager) Drop(walletID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.services, walletID)
}

// Chains returns the enabled chain symbols in stable order.
func (m *Manager) Chains() []string {
	var out []string
	for _, n := range m.cfg.EnabledNetworks() {
		out = append(out, n.Chain)
	}
	sort.Strings(out)
	return out
}

// HasPrivacyChain reports whether any enabled chain is a privacy chain.
// The wallet loader stretches its umbrella timeout when one is present.
func (m *Manager) HasPrivacyChain() bool {
	for _, n := range m.cfg.EnabledNetworks() {
		if params, ok := chain.Get(n.Chain); ok {
			if params.Kind == chain.KindMonero || params.Kind == chain.KindZcash {
				return true
			}
		}
	}
	return false
}
