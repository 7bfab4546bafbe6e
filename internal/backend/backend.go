// Package backend provides remote node clients for chains that are not
// served by go-ethereum's ethclient. Clients fetch data and broadcast
// transactions only - all signing happens in the wallet package.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Common errors
var (
	ErrNotConnected      = errors.New("backend not connected")
	ErrBroadcastFailed   = errors.New("broadcast failed")
	ErrRateLimited       = errors.New("rate limited")
	ErrMissingCapability = errors.New("node missing required capability")
)

// rpcClient is a minimal JSON-RPC 2.0 client shared by the node backends.
type rpcClient struct {
	url        string
	user       string
	pass       string
	httpClient *http.Client
	requestID  atomic.Uint64
}

func newRPCClient(url, user, pass string) *rpcClient {
	return &rpcClient{
		url:  url,
		user: user,
		pass: pass,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *rpcClient) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	id := c.requestID.Add(1)

	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(request)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var response struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if response.Error != nil {
		if response.Error.Code == -32601 || strings.Contains(strings.ToLower(response.Error.Message), "method not found") {
			return fmt.Errorf("%w: %s", ErrMissingCapability, method)
		}
		return fmt.Errorf("RPC error %d: %s", response.Error.Code, response.Error.Message)
	}

	if result != nil {
		if err := json.Unmarshal(response.Result, result); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
	}
	return nil
}
