package chainsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prism-wallet/prism/internal/backend"
	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/helpers"
	"github.com/prism-wallet/prism/pkg/logging"
	"github.com/prism-wallet/prism/pkg/retry"
)

// moneroAPI is the subset of the wallet-rpc client used by the service.
type moneroAPI interface {
	GetVersion(ctx context.Context) (uint32, error)
	RestoreFromMnemonic(ctx context.Context, name, mnemonic, password string) error
	OpenWallet(ctx context.Context, name, password string) error
	GetAddress(ctx context.Context) (string, error)
	GetBalance(ctx context.Context) (total, unlocked uint64, err error)
	Transfer(ctx context.Context, address string, amount uint64) (string, error)
}

// MoneroService serves Monero through a remote wallet node. The node scans
// the chain with the view key, so it can lag far behind; the service leans
// on retries and local derivation to stay responsive while it catches up.
type MoneroService struct {
	stateHolder
	params  *chain.Params
	record  *wallet.Record
	keyring *wallet.Keyring
	api     moneroAPI
	log     *logging.Logger
}

// NewMoneroService creates a Monero service against the configured
// monero-wallet-rpc endpoint. Custom keys "rpc_user" and "rpc_pass" carry
// node credentials.
func NewMoneroService(network config.Network, record *wallet.Record, keyring *wallet.Keyring, log *logging.Logger) (*MoneroService, error) {
	params, ok := chain.Get(network.Chain)
	if !ok {
		return nil, fmt.Errorf("unknown chain %s", network.Chain)
	}
	svc := &MoneroService{
		params:  params,
		record:  record,
		keyring: keyring,
		api:     backend.NewMoneroClient(network.RPCURL, network.Custom["rpc_user"], network.Custom["rpc_pass"]),
		log:     log.Component(network.Chain),
	}
	svc.setState(StateInitializing)
	return svc, nil
}

func (s *MoneroService) Symbol() string { return s.params.Symbol }

// Init performs the remote handshake and restores the wallet on the node.
// A node missing the wallet RPC methods is unusable and fails the service
// outright; any other failure degrades it - the node may just be syncing.
func (s *MoneroService) Init(ctx context.Context) error {
	mnemonic, err := s.record.RequireMnemonic()
	if err != nil {
		s.setState(StateFailed)
		return err
	}

	initCtx, cancel := context.WithTimeout(ctx, s.params.InitTimeout)
	defer cancel()

	if _, err := s.api.GetVersion(initCtx); err != nil {
		if errors.Is(err, backend.ErrMissingCapability) {
			s.setState(StateFailed)
			return err
		}
		s.setState(StateDegraded)
		s.log.Warn("wallet node handshake failed, continuing degraded", "error", err)
		return nil
	}

	// Open an existing wallet file first; restore only when none exists.
	name := "prism-" + s.record.ID
	if err := s.api.OpenWallet(initCtx, name, ""); err != nil {
		if err := s.api.RestoreFromMnemonic(initCtx, name, mnemonic, ""); err != nil {
			if errors.Is(err, backend.ErrMissingCapability) {
				s.setState(StateFailed)
				return err
			}
			s.setState(StateDegraded)
			s.log.Warn("wallet restore failed, continuing degraded", "error", err)
			return nil
		}
	}

	s.setState(StateReady)
	return nil
}

// GetAddress asks the remote node, retrying while it answers with a
// placeholder, and falls back to local derivation when the node never
// produces a usable address. Non-zero indexes are subaddresses, derived
// locally; the remote wallet only serves the account-0 primary.
func (s *MoneroService) GetAddress(ctx context.Context, index uint32) (string, error) {
	if index > 0 {
		sub, err := s.record.MoneroSubaddress(s.keyring, index)
		if err != nil {
			return "", errors.Join(ErrAddressUnavailable, err)
		}
		return sub, nil
	}

	if s.State() == StateFailed {
		return "", ErrAddressUnavailable
	}

	cfg := retry.Config{
		Attempts: s.params.AddressAttempts,
		Delay:    s.params.AddressRetryDelay,
	}
	addr, err := retry.Value(ctx, cfg, func(ctx context.Context) (string, bool, error) {
		addr, err := s.api.GetAddress(ctx)
		if err != nil {
			return "", false, err
		}
		if !chain.UsableAddress(addr) || strings.Contains(addr, "Error") {
			return addr, false, nil
		}
		return addr, true, nil
	})
	if err == nil {
		return addr, nil
	}

	s.log.Warn("remote address unavailable, deriving locally", "error", err)
	local, derr := s.record.MoneroAddress(s.keyring)
	if derr != nil {
		return "", errors.Join(ErrAddressUnavailable, derr)
	}
	return local, nil
}

// GetBalance degrades to zero instead of erroring. A syncing wallet node
// reports transient failures constantly and a zero balance reads better
// than a broken asset row.
func (s *MoneroService) GetBalance(ctx context.Context) (string, error) {
	if s.State() == StateFailed {
		return chain.ZeroBalance, nil
	}
	total, _, err := s.api.GetBalance(ctx)
	if err != nil {
		s.log.Warn("balance fetch failed, reporting zero", "error", err)
		return chain.ZeroBalance, nil
	}
	return helpers.FormatUint(total, s.params.Decimals), nil
}

func (s *MoneroService) SendTransaction(ctx context.Context, to, amount string) (string, error) {
	if s.State() != StateReady {
		return "", fmt.Errorf("wallet node not ready (state %s)", s.State())
	}
	if !s.ValidateAddress(to) {
		return "", fmt.Errorf("invalid destination address %q", to)
	}

	atomic, err := helpers.ParseAmount(amount, s.params.Decimals)
	if err != nil {
		return "", fmt.Errorf("invalid amount: %w", err)
	}
	if !atomic.IsUint64() {
		return "", fmt.Errorf("amount overflow: %s", amount)
	}

	txHash, err := s.api.Transfer(ctx, to, atomic.Uint64())
	if err != nil {
		return "", err
	}
	s.log.Info("transaction sent", "tx_hash", txHash, "to", to, "amount", amount)
	return txHash, nil
}

// ValidateAddress accepts mainnet primary (4...) and subaddress (8...)
// formats by length and prefix.
func (s *MoneroService) ValidateAddress(addr string) bool {
	if len(addr) != 95 && len(addr) != 106 {
		return false
	}
	return addr[0] == '4' || addr[0] == '8'
}
