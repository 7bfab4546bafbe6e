package backend

import (
	"context"
	"fmt"
)

// ZcashClient talks to a zcashd node with the address index enabled.
// Only the transparent pool is served here; shielded pools go through the
// swap shield adapter.
type ZcashClient struct {
	rpc *rpcClient
}

// NewZcashClient creates a zcashd RPC client.
func NewZcashClient(rpcURL, user, pass string) *ZcashClient {
	return &ZcashClient{rpc: newRPCClient(rpcURL, user, pass)}
}

// GetInfo performs the init handshake and returns the node's block height.
func (z *ZcashClient) GetInfo(ctx context.Context) (int64, error) {
	var result struct {
		Blocks int64 `json:"blocks"`
	}
	if err := z.rpc.call(ctx, "getinfo", nil, &result); err != nil {
		return 0, err
	}
	return result.Blocks, nil
}

// GetBalance returns the transparent balance of an address in zatoshis.
// Requires the node's addressindex capability.
func (z *ZcashClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		Balance int64 `json:"balance"`
	}
	params := []interface{}{
		map[string]interface{}{"addresses": []string{address}},
	}
	if err := z.rpc.call(ctx, "getaddressbalance", params, &result); err != nil {
		return 0, err
	}
	if result.Balance < 0 {
		return 0, fmt.Errorf("negative balance for %s", address)
	}
	return uint64(result.Balance), nil
}

// GetUTXOs returns transparent unspent outputs for an address.
func (z *ZcashClient) GetUTXOs(ctx context.Context, address string) ([]UTXO, error) {
	var raw []struct {
		TxID        string `json:"txid"`
		OutputIndex uint32 `json:"outputIndex"`
		Satoshis    uint64 `json:"satoshis"`
	}
	params := []interface{}{
		map[string]interface{}{"addresses": []string{address}},
	}
	if err := z.rpc.call(ctx, "getaddressutxos", params, &raw); err != nil {
		return nil, err
	}

	utxos := make([]UTXO, 0, len(raw))
	for _, u := range raw {
		utxos = append(utxos, UTXO{TxID: u.TxID, Vout: u.OutputIndex, Value: u.Satoshis})
	}
	return utxos, nil
}

// Broadcast submits a raw transaction in hex and returns its txid.
func (z *ZcashClient) Broadcast(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := z.rpc.call(ctx, "sendrawtransaction", []interface{}{rawTxHex}, &txid); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBroadcastFailed, err)
	}
	return txid, nil
}
