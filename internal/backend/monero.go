package backend

import (
	"context"
	"fmt"
)

// MoneroClient talks to a monero-wallet-rpc instance. The wallet node holds
// the view keys and scans the chain; this client only asks it questions.
type MoneroClient struct {
	rpc *rpcClient
}

// NewMoneroClient creates a monero-wallet-rpc client. The URL should point
// at the /json_rpc endpoint.
func NewMoneroClient(rpcURL, user, pass string) *MoneroClient {
	return &MoneroClient{rpc: newRPCClient(rpcURL, user, pass)}
}

// GetVersion returns the wallet RPC version. Used as the init handshake;
// a node that cannot answer this is not ready to serve wallet calls.
func (m *MoneroClient) GetVersion(ctx context.Context) (uint32, error) {
	var result struct {
		Version uint32 `json:"version"`
	}
	if err := m.rpc.call(ctx, "get_version", nil, &result); err != nil {
		return 0, err
	}
	return result.Version, nil
}

// RestoreFromMnemonic restores a deterministic wallet on the remote node.
// The node rejects the call if a wallet with that name already exists, which
// is fine - OpenWallet is tried first.
func (m *MoneroClient) RestoreFromMnemonic(ctx context.Context, name, mnemonic, password string) error {
	params := map[string]interface{}{
		"filename": name,
		"seed":     mnemonic,
		"password": password,
	}
	return m.rpc.call(ctx, "restore_deterministic_wallet", params, nil)
}

// OpenWallet opens a previously restored wallet file on the remote node.
func (m *MoneroClient) OpenWallet(ctx context.Context, name, password string) error {
	params := map[string]interface{}{
		"filename": name,
		"password": password,
	}
	return m.rpc.call(ctx, "open_wallet", params, nil)
}

// GetAddress returns the primary address of account 0. While the node is
// still syncing it may answer with an empty or error string; callers retry.
func (m *MoneroClient) GetAddress(ctx context.Context) (string, error) {
	var result struct {
		Address string `json:"address"`
	}
	params := map[string]interface{}{"account_index": 0}
	if err := m.rpc.call(ctx, "get_address", params, &result); err != nil {
		return "", err
	}
	return result.Address, nil
}

// GetBalance returns total and unlocked balance in atomic units.
func (m *MoneroClient) GetBalance(ctx context.Context) (total, unlocked uint64, err error) {
	var result struct {
		Balance         uint64 `json:"balance"`
		UnlockedBalance uint64 `json:"unlocked_balance"`
	}
	params := map[string]interface{}{"account_index": 0}
	if err := m.rpc.call(ctx, "get_balance", params, &result); err != nil {
		return 0, 0, err
	}
	return result.Balance, result.UnlockedBalance, nil
}

// Transfer sends amount atomic units to address and returns the tx hash.
func (m *MoneroClient) Transfer(ctx context.Context, address string, amount uint64) (string, error) {
	var result struct {
		TxHash string `json:"tx_hash"`
	}
	params := map[string]interface{}{
		"destinations": []map[string]interface{}{
			{"amount": amount, "address": address},
		},
		"account_index": 0,
		"priority":      0,
	}
	if err := m.rpc.call(ctx, "transfer", params, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBroadcastFailed, err)
	}
	return result.TxHash, nil
}
