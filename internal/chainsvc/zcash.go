package chainsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/prism-wallet/prism/internal/backend"
	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/helpers"
	"github.com/prism-wallet/prism/pkg/logging"
)

// zcashAPI is the subset of the zcashd client used by the service.
type zcashAPI interface {
	GetInfo(ctx context.Context) (int64, error)
	GetBalance(ctx context.Context, address string) (uint64, error)
	GetUTXOs(ctx context.Context, address string) ([]backend.UTXO, error)
	Broadcast(ctx context.Context, rawTxHex string) (string, error)
}

// ZcashService serves the Zcash transparent pool. Addresses derive locally;
// zcashd provides balances through its address index. Shielded operations
// live behind the swap shield adapter, not here.
type ZcashService struct {
	stateHolder
	params  *chain.Params
	record  *wallet.Record
	keyring *wallet.Keyring
	api     zcashAPI
	log     *logging.Logger
}

// NewZcashService creates a Zcash service against the configured zcashd
// node. Custom keys "rpc_user" and "rpc_pass" carry node credentials.
func NewZcashService(network config.Network, record *wallet.Record, keyring *wallet.Keyring, log *logging.Logger) (*ZcashService, error) {
	params, ok := chain.Get(network.Chain)
	if !ok {
		return nil, fmt.Errorf("unknown chain %s", network.Chain)
	}
	svc := &ZcashService{
		params:  params,
		record:  record,
		keyring: keyring,
		api:     backend.NewZcashClient(network.RPCURL, network.Custom["rpc_user"], network.Custom["rpc_pass"]),
		log:     log.Component(network.Chain),
	}
	svc.setState(StateInitializing)
	return svc, nil
}

func (s *ZcashService) Symbol() string { return s.params.Symbol }

// Init checks node reachability. A node without the address index cannot
// answer balance queries at all and fails the service; an unreachable node
// only degrades it.
func (s *ZcashService) Init(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, s.params.InitTimeout)
	defer cancel()

	if _, err := s.api.GetInfo(initCtx); err != nil {
		if errors.Is(err, backend.ErrMissingCapability) {
			s.setState(StateFailed)
			return err
		}
		s.setState(StateDegraded)
		s.log.Warn("node handshake failed, continuing degraded", "error", err)
		return nil
	}

	s.setState(StateReady)
	return nil
}

func (s *ZcashService) GetAddress(_ context.Context, index uint32) (string, error) {
	if s.State() == StateFailed {
		return "", ErrAddressUnavailable
	}
	return s.record.ZcashAddress(s.keyring, index)
}

func (s *ZcashService) GetBalance(ctx context.Context) (string, error) {
	addr, err := s.GetAddress(ctx, 0)
	if err != nil {
		return "", err
	}
	zats, err := s.api.GetBalance(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("balance fetch failed: %w", err)
	}
	return helpers.FormatUint(zats, s.params.Decimals), nil
}

// SendTransaction is not wired up for the transparent pool yet; building
// Zcash transactions needs consensus branch id handling that the btcd
// txscript stack cannot sign.
func (s *ZcashService) SendTransaction(_ context.Context, _, _ string) (string, error) {
	return "", ErrSendUnsupported
}

func (s *ZcashService) ValidateAddress(addr string) bool {
	return wallet.ValidateZcashTransparentAddress(addr)
}
