package chainsvc

import (
	"context"
	"fmt"

	"github.com/prism-wallet/prism/internal/backend"
	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/helpers"
	"github.com/prism-wallet/prism/pkg/logging"
)

// bitcoinAPI is the subset of the mempool client used by the service.
type bitcoinAPI interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	GetUTXOs(ctx context.Context, address string) ([]backend.UTXO, error)
	GetFeeRate(ctx context.Context) (uint64, error)
	Broadcast(ctx context.Context, rawTxHex string) (string, error)
}

// BitcoinService serves Bitcoin. Keys and addresses derive locally; the
// mempool.space API provides UTXOs, balances, and broadcast.
type BitcoinService struct {
	stateHolder
	params  *chain.Params
	record  *wallet.Record
	keyring *wallet.Keyring
	api     bitcoinAPI
	log     *logging.Logger
}

// NewBitcoinService creates a Bitcoin service against the configured API.
func NewBitcoinService(network config.Network, record *wallet.Record, keyring *wallet.Keyring, log *logging.Logger) (*BitcoinService, error) {
	params, ok := chain.Get(network.Chain)
	if !ok {
		return nil, fmt.Errorf("unknown chain %s", network.Chain)
	}
	return &BitcoinService{
		params:  params,
		record:  record,
		keyring: keyring,
		api:     backend.NewMempoolClient(network.RPCURL),
		log:     log.Component(network.Chain),
	}, nil
}

func (s *BitcoinService) Symbol() string { return s.params.Symbol }

func (s *BitcoinService) GetAddress(_ context.Context, index uint32) (string, error) {
	return s.record.BitcoinAddress(s.keyring, index)
}

func (s *BitcoinService) GetBalance(ctx context.Context) (string, error) {
	addr, err := s.GetAddress(ctx, 0)
	if err != nil {
		return "", err
	}
	sats, err := s.api.GetBalance(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("balance fetch failed: %w", err)
	}
	return helpers.FormatUint(sats, s.params.Decimals), nil
}

func (s *BitcoinService) SendTransaction(ctx context.Context, to, amount string) (string, error) {
	if !s.ValidateAddress(to) {
		return "", fmt.Errorf("invalid destination address %q", to)
	}

	addr, err := s.GetAddress(ctx, 0)
	if err != nil {
		return "", err
	}
	priv, err := s.keyring.DeriveForChain(s.params, 0, 0)
	if err != nil {
		return "", err
	}

	sats, err := helpers.BTCToSatoshis(amount)
	if err != nil {
		return "", fmt.Errorf("invalid amount: %w", err)
	}

	utxos, err := s.api.GetUTXOs(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("utxo fetch failed: %w", err)
	}
	feeRate, err := s.api.GetFeeRate(ctx)
	if err != nil {
		return "", fmt.Errorf("fee rate fetch failed: %w", err)
	}

	rawHex, txid, err := wallet.BuildAndSignBitcoinTx(priv, addr, utxos, to, sats, feeRate)
	if err != nil {
		return "", err
	}

	broadcastID, err := s.api.Broadcast(ctx, rawHex)
	if err != nil {
		return "", err
	}
	if broadcastID != "" {
		txid = broadcastID
	}

	s.log.Info("transaction sent", "txid", txid, "to", to, "amount", amount)
	return txid, nil
}

func (s *BitcoinService) ValidateAddress(addr string) bool {
	return wallet.ValidateBitcoinAddress(addr)
}
