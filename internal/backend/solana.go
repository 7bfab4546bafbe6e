package backend

import (
	"context"
)

// SolanaClient talks to a Solana JSON-RPC node.
type SolanaClient struct {
	rpc *rpcClient
}

// NewSolanaClient creates a Solana RPC client.
func NewSolanaClient(rpcURL string) *SolanaClient {
	return &SolanaClient{rpc: newRPCClient(rpcURL, "", "")}
}

// GetBalance returns the lamport balance of a base58 pubkey.
func (s *SolanaClient) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	params := []interface{}{pubkey, map[string]string{"commitment": "confirmed"}}
	if err := s.rpc.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetVersion returns the node software version. Used as a health check.
func (s *SolanaClient) GetVersion(ctx context.Context) (string, error) {
	var result struct {
		SolanaCore string `json:"solana-core"`
	}
	if err := s.rpc.call(ctx, "getVersion", nil, &result); err != nil {
		return "", err
	}
	return result.SolanaCore, nil
}
