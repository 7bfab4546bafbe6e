package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MempoolClient fetches Bitcoin data from the mempool.space REST API.
// Compatible with mempool.space and self-hosted instances.
type MempoolClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMempoolClient creates a mempool.space API client.
func NewMempoolClient(baseURL string) *MempoolClient {
	return &MempoolClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UTXO is an unspent transaction output as reported by the API.
type UTXO struct {
	TxID  string `json:"txid"`
	Vout  uint32 `json:"vout"`
	Value uint64 `json:"value"` // satoshis
}

// GetBalance returns the confirmed balance of an address in satoshis.
func (m *MempoolClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		ChainStats struct {
			FundedTxoSum uint64 `json:"funded_txo_sum"`
			SpentTxoSum  uint64 `json:"spent_txo_sum"`
		} `json:"chain_stats"`
	}
	if err := m.get(ctx, "/address/"+address, &result); err != nil {
		return 0, err
	}
	return result.ChainStats.FundedTxoSum - result.ChainStats.SpentTxoSum, nil
}

// GetUTXOs returns unspent outputs for an address.
func (m *MempoolClient) GetUTXOs(ctx context.Context, address string) ([]UTXO, error) {
	var utxos []UTXO
	if err := m.get(ctx, "/address/"+address+"/utxo", &utxos); err != nil {
		return nil, err
	}
	return utxos, nil
}

// GetFeeRate returns the recommended fee rate in sat/vB for confirmation
// within a few blocks.
func (m *MempoolClient) GetFeeRate(ctx context.Context) (uint64, error) {
	var result struct {
		HalfHourFee uint64 `json:"halfHourFee"`
	}
	if err := m.get(ctx, "/v1/fees/recommended", &result); err != nil {
		return 0, err
	}
	if result.HalfHourFee == 0 {
		result.HalfHourFee = 1
	}
	return result.HalfHourFee, nil
}

// GetTipHeight returns the current chain tip height.
func (m *MempoolClient) GetTipHeight(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", m.baseURL+"/blocks/tip/height", nil)
	if err != nil {
		return 0, err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	var height int64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(body)), "%d", &height); err != nil {
		return 0, fmt.Errorf("unexpected tip height response: %q", body)
	}
	return height, nil
}

// Broadcast submits a raw transaction in hex and returns its txid.
func (m *MempoolClient) Broadcast(ctx context.Context, rawTxHex string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", m.baseURL+"/tx", strings.NewReader(rawTxHex))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBroadcastFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrBroadcastFailed, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}

func (m *MempoolClient) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", m.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
