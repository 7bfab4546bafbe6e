package chainsvc

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/prism-wallet/prism/internal/backend"
	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/helpers"
	"github.com/prism-wallet/prism/pkg/logging"
)

// solanaAPI is the subset of the Solana client used by the service.
type solanaAPI interface {
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}

// SolanaService serves Solana. Addresses derive locally from the SLIP-0010
// path; the RPC node provides balances. Broadcasting is not wired up yet,
// and SendTransaction reports that honestly instead of half-working.
type SolanaService struct {
	stateHolder
	params  *chain.Params
	record  *wallet.Record
	keyring *wallet.Keyring
	api     solanaAPI
	log     *logging.Logger
}

// NewSolanaService creates a Solana service against the configured RPC node.
func NewSolanaService(network config.Network, record *wallet.Record, keyring *wallet.Keyring, log *logging.Logger) (*SolanaService, error) {
	params, ok := chain.Get(network.Chain)
	if !ok {
		return nil, fmt.Errorf("unknown chain %s", network.Chain)
	}
	return &SolanaService{
		params:  params,
		record:  record,
		keyring: keyring,
		api:     backend.NewSolanaClient(network.RPCURL),
		log:     log.Component(network.Chain),
	}, nil
}

func (s *SolanaService) Symbol() string { return s.params.Symbol }

func (s *SolanaService) GetAddress(_ context.Context, index uint32) (string, error) {
	return s.record.SolanaAddress(s.keyring, index)
}

func (s *SolanaService) GetBalance(ctx context.Context) (string, error) {
	addr, err := s.GetAddress(ctx, 0)
	if err != nil {
		return "", err
	}
	lamports, err := s.api.GetBalance(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("balance fetch failed: %w", err)
	}
	return helpers.FormatUint(lamports, s.params.Decimals), nil
}

// SendTransaction always fails with ErrSendUnsupported. The failure is
// isolated to this chain; balances and addresses keep working.
func (s *SolanaService) SendTransaction(_ context.Context, _, _ string) (string, error) {
	return "", ErrSendUnsupported
}

func (s *SolanaService) ValidateAddress(addr string) bool {
	decoded := base58.Decode(addr)
	return len(decoded) == 32
}
