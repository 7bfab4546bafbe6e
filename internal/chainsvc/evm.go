package chainsvc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/helpers"
	"github.com/prism-wallet/prism/pkg/logging"
)

// evmRPC is the subset of ethclient used by the service.
type evmRPC interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// EVMService serves Ethereum-family chains. Keys derive locally; the node
// is only consulted for balances and broadcasting.
type EVMService struct {
	stateHolder
	params  *chain.Params
	network config.Network
	record  *wallet.Record
	keyring *wallet.Keyring
	client  evmRPC
	log     *logging.Logger
}

// NewEVMService dials the configured RPC endpoint.
func NewEVMService(network config.Network, record *wallet.Record, keyring *wallet.Keyring, log *logging.Logger) (*EVMService, error) {
	params, ok := chain.Get(network.Chain)
	if !ok {
		return nil, fmt.Errorf("unknown chain %s", network.Chain)
	}

	client, err := ethclient.Dial(network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", network.RPCURL, err)
	}

	return &EVMService{
		params:  params,
		network: network,
		record:  record,
		keyring: keyring,
		client:  client,
		log:     log.Component(network.Chain),
	}, nil
}

func (s *EVMService) Symbol() string { return s.params.Symbol }

// GetAddress derives the checksummed address at index. Derivation is local
// and never retried.
func (s *EVMService) GetAddress(_ context.Context, index uint32) (string, error) {
	return s.record.EVMAddress(s.keyring, index)
}

// GetBalance fetches the native balance at index 0.
func (s *EVMService) GetBalance(ctx context.Context) (string, error) {
	addr, err := s.GetAddress(ctx, 0)
	if err != nil {
		return "", err
	}

	wei, err := s.client.BalanceAt(ctx, common.HexToAddress(addr), nil)
	if err != nil {
		return "", fmt.Errorf("balance fetch failed: %w", err)
	}
	return helpers.FormatAmount(wei, s.params.Decimals), nil
}

// SendTransaction sends native currency with EIP-1559 pricing.
func (s *EVMService) SendTransaction(ctx context.Context, to, amount string) (string, error) {
	if !s.ValidateAddress(to) {
		return "", fmt.Errorf("invalid destination address %q", to)
	}

	priv, err := s.record.EVMKey(s.keyring, 0)
	if err != nil {
		return "", err
	}
	from, err := s.GetAddress(ctx, 0)
	if err != nil {
		return "", err
	}

	value, err := helpers.ParseAmount(amount, s.params.Decimals)
	if err != nil {
		return "", fmt.Errorf("invalid amount: %w", err)
	}

	fromAddr := common.HexToAddress(from)
	toAddr := common.HexToAddress(to)

	nonce, err := s.client.PendingNonceAt(ctx, fromAddr)
	if err != nil {
		return "", fmt.Errorf("nonce fetch failed: %w", err)
	}
	tipCap, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return "", fmt.Errorf("gas tip fetch failed: %w", err)
	}
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("head fetch failed: %w", err)
	}
	// feeCap = 2*baseFee + tip leaves room for the next block's base fee.
	feeCap := new(big.Int).Add(
		new(big.Int).Mul(head.BaseFee, big.NewInt(2)),
		tipCap,
	)

	gas, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  fromAddr,
		To:    &toAddr,
		Value: value,
	})
	if err != nil {
		return "", fmt.Errorf("gas estimate failed: %w", err)
	}

	signed, err := wallet.SignEVMTx(priv, wallet.EVMTxParams{
		ChainID:   new(big.Int).SetUint64(s.params.ChainID),
		Nonce:     nonce,
		To:        toAddr,
		Value:     value,
		Gas:       gas,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
	})
	if err != nil {
		return "", err
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("broadcast failed: %w", err)
	}

	s.log.Info("transaction sent", "hash", signed.Hash().Hex(), "to", to, "amount", amount)
	return signed.Hash().Hex(), nil
}

func (s *EVMService) ValidateAddress(addr string) bool {
	return wallet.ValidateEVMAddress(addr)
}
