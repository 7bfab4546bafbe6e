package rpc

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/prism-wallet/prism/internal/cache"
	"github.com/prism-wallet/prism/internal/chainsvc"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/loader"
	"github.com/prism-wallet/prism/internal/prices"
	"github.com/prism-wallet/prism/internal/status"
	"github.com/prism-wallet/prism/internal/store"
	"github.com/prism-wallet/prism/internal/swap"
	"github.com/prism-wallet/prism/pkg/logging"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// newTestServer wires a server against a temp store with every network
// disabled, so no handler dials out.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logging.New(&logging.Config{Level: "fatal"})

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	for i := range cfg.Networks {
		cfg.Networks[i].Enabled = false
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	manager := chainsvc.NewManager(cfg, log)
	balances := cache.New(log, cache.WithStore(db))
	agg := status.NewAggregator(log)
	engine := swap.NewEngine(cfg.Swap, prices.NewOracle(cfg.Prices, log), log)
	loads := loader.New(manager, balances, agg, cfg.Loader, log)

	return NewServer(Deps{
		Store:   db,
		Manager: manager,
		Loader:  loads,
		Cache:   balances,
		Engine:  engine,
		Status:  agg,
	})
}

func call(t *testing.T, s *Server, method string, params interface{}) *Response {
	t.Helper()
	req := Request{JSONRPC: "2.0", Method: method, ID: 1}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		req.Params = data
	}
	body, _ := json.Marshal(req)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/", bytes.NewReader(body))
	s.handleRPC(w, r)

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return &resp
}

func TestMethodNotFound(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, "no_such_method", nil)
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp)
	}
}

func TestParseError(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/", bytes.NewReader([]byte("{not json")))
	s.handleRPC(w, r)

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ParseError {
		t.Fatalf("expected parse error, got %+v", resp)
	}
}

func TestWalletLifecycle(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "wallet_create", map[string]string{"name": "main", "mnemonic": testMnemonic})
	if resp.Error != nil {
		t.Fatalf("wallet_create: %+v", resp.Error)
	}
	created, _ := json.Marshal(resp.Result)
	var info walletInfo
	if err := json.Unmarshal(created, &info); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if info.ID == "" || !info.HasMnemonic {
		t.Errorf("unexpected wallet info: %+v", info)
	}

	resp = call(t, s, "wallet_list", nil)
	if resp.Error != nil {
		t.Fatalf("wallet_list: %+v", resp.Error)
	}
	var infos []walletInfo
	data, _ := json.Marshal(resp.Result)
	json.Unmarshal(data, &infos)
	if len(infos) != 1 || infos[0].ID != info.ID {
		t.Errorf("list = %+v", infos)
	}

	// The only wallet cannot be deleted.
	resp = call(t, s, "wallet_delete", map[string]string{"id": info.ID})
	if resp.Error == nil {
		t.Fatal("deleting the last wallet should fail")
	}

	resp = call(t, s, "wallet_create", map[string]string{"name": "second", "mnemonic": testMnemonic})
	if resp.Error != nil {
		t.Fatalf("second wallet_create: %+v", resp.Error)
	}

	resp = call(t, s, "wallet_delete", map[string]string{"id": info.ID})
	if resp.Error != nil {
		t.Fatalf("wallet_delete: %+v", resp.Error)
	}
}

func TestWalletCreateRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	if resp := call(t, s, "wallet_create", map[string]string{"mnemonic": testMnemonic}); resp.Error == nil {
		t.Error("missing name should fail")
	}
	if resp := call(t, s, "wallet_create", map[string]string{"name": "x"}); resp.Error == nil {
		t.Error("missing credentials should fail")
	}
	if resp := call(t, s, "wallet_create", map[string]string{"name": "x", "mnemonic": "not a mnemonic"}); resp.Error == nil {
		t.Error("invalid mnemonic should fail")
	}
}

func TestWalletGenerate(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, "wallet_generate", nil)
	if resp.Error != nil {
		t.Fatalf("wallet_generate: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	mnemonic, _ := result["mnemonic"].(string)
	if mnemonic == "" {
		t.Fatal("empty mnemonic")
	}

	resp = call(t, s, "wallet_validateMnemonic", map[string]string{"mnemonic": mnemonic})
	valid := resp.Result.(map[string]interface{})["valid"].(bool)
	if !valid {
		t.Error("generated mnemonic should validate")
	}
}

func TestActiveWallet(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "wallet_create", map[string]string{"name": "a", "mnemonic": testMnemonic})
	if resp.Error != nil {
		t.Fatalf("wallet_create: %+v", resp.Error)
	}
	data, _ := json.Marshal(resp.Result)
	var first walletInfo
	json.Unmarshal(data, &first)

	resp = call(t, s, "wallet_getActive", nil)
	if resp.Error != nil {
		t.Fatalf("wallet_getActive: %+v", resp.Error)
	}
	data, _ = json.Marshal(resp.Result)
	var active walletInfo
	json.Unmarshal(data, &active)
	if active.ID != first.ID {
		t.Errorf("active = %q, want %q", active.ID, first.ID)
	}

	if resp := call(t, s, "wallet_setActive", map[string]string{"id": "missing"}); resp.Error == nil {
		t.Error("setting an unknown wallet active should fail")
	}
}

func TestStatusGet(t *testing.T) {
	s := newTestServer(t)
	s.agg.Set("BTC", status.StatusConnected)

	resp := call(t, s, "status_get", nil)
	if resp.Error != nil {
		t.Fatalf("status_get: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	if result["overall"] != string(status.StatusConnected) {
		t.Errorf("overall = %v", result["overall"])
	}
}

func TestTokensDiscoverWithoutEVM(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, "tokens_discover", map[string]interface{}{"id": "x"})
	if resp.Error == nil {
		t.Fatal("discovery without an EVM chain should fail")
	}
}
