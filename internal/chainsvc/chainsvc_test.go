package chainsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prism-wallet/prism/internal/backend"
	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/logging"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testWallet(t *testing.T) (*wallet.Record, *wallet.Keyring) {
	t.Helper()
	rec := wallet.NewRecord("test", testMnemonic, "")
	keyring, err := wallet.NewKeyring(testMnemonic)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	return rec, keyring
}

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{Level: "error"})
}

// fastParams returns a copy of the chain params with retry delays collapsed
// so tests run quickly.
func fastParams(t *testing.T, symbol string) *chain.Params {
	t.Helper()
	src, ok := chain.Get(symbol)
	if !ok {
		t.Fatalf("chain %s not registered", symbol)
	}
	cp := *src
	cp.AddressRetryDelay = time.Millisecond
	cp.InitTimeout = 100 * time.Millisecond
	return &cp
}

type fakeMoneroAPI struct {
	versionErr  error
	addresses   []string // consumed one per GetAddress call
	addressErr  error
	balance     uint64
	balanceErr  error
	addrCalls   int
	restoreErr  error
	openErr     error
	transferErr error
}

func (f *fakeMoneroAPI) GetVersion(context.Context) (uint32, error) {
	if f.versionErr != nil {
		return 0, f.versionErr
	}
	return 65539, nil
}

func (f *fakeMoneroAPI) RestoreFromMnemonic(context.Context, string, string, string) error {
	return f.restoreErr
}

func (f *fakeMoneroAPI) OpenWallet(context.Context, string, string) error {
	return f.openErr
}

func (f *fakeMoneroAPI) GetAddress(context.Context) (string, error) {
	f.addrCalls++
	if f.addressErr != nil {
		return "", f.addressErr
	}
	if len(f.addresses) == 0 {
		return "", errors.New("no address queued")
	}
	addr := f.addresses[0]
	if len(f.addresses) > 1 {
		f.addresses = f.addresses[1:]
	}
	return addr, nil
}

func (f *fakeMoneroAPI) GetBalance(context.Context) (uint64, uint64, error) {
	if f.balanceErr != nil {
		return 0, 0, f.balanceErr
	}
	return f.balance, f.balance, nil
}

func (f *fakeMoneroAPI) Transfer(context.Context, string, uint64) (string, error) {
	if f.transferErr != nil {
		return "", f.transferErr
	}
	return "txhash", nil
}

func newTestMoneroService(t *testing.T, api moneroAPI) *MoneroService {
	rec, keyring := testWallet(t)
	svc := &MoneroService{
		params:  fastParams(t, "XMR"),
		record:  rec,
		keyring: keyring,
		api:     api,
		log:     testLogger().Component("XMR"),
	}
	svc.setState(StateReady)
	return svc
}

// validXMRAddr is shaped like a mainnet primary address (95 chars, 4 prefix).
var validXMRAddr = "4" + string(make95())

func make95() []byte {
	b := make([]byte, 94)
	for i := range b {
		b[i] = 'A'
	}
	return b
}

func TestMoneroSubaddressIndexDerivedLocally(t *testing.T) {
	// The remote wallet only serves the primary address; a non-zero index
	// must never hit the node.
	api := &fakeMoneroAPI{addressErr: errors.New("node unreachable")}
	svc := newTestMoneroService(t, api)

	addr, err := svc.GetAddress(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetAddress(1): %v", err)
	}
	if !svc.ValidateAddress(addr) {
		t.Errorf("derived subaddress fails validation: %q", addr)
	}
	if addr[0] != '8' {
		t.Errorf("subaddress should start with 8, got %c", addr[0])
	}
	if api.addrCalls != 0 {
		t.Errorf("remote GetAddress called %d times, want 0", api.addrCalls)
	}

	other, err := svc.GetAddress(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetAddress(2): %v", err)
	}
	if other == addr {
		t.Error("different indices should produce different addresses")
	}
}

func TestMoneroAddressRetriesPlaceholders(t *testing.T) {
	api := &fakeMoneroAPI{addresses: []string{"Address Error", "Address Error: syncing", validXMRAddr}}
	svc := newTestMoneroService(t, api)

	addr, err := svc.GetAddress(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetAddress: %v", err)
	}
	if addr != validXMRAddr {
		t.Errorf("address = %q, want the node's final answer", addr)
	}
	if api.addrCalls != 3 {
		t.Errorf("expected 3 attempts, got %d", api.addrCalls)
	}
}

func TestMoneroAddressFallsBackToLocalDerivation(t *testing.T) {
	api := &fakeMoneroAPI{addressErr: errors.New("node unreachable")}
	svc := newTestMoneroService(t, api)

	addr, err := svc.GetAddress(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetAddress should fall back, got %v", err)
	}
	if len(addr) != 95 || addr[0] != '4' {
		t.Errorf("fallback should be a locally derived address, got %q", addr)
	}
	if api.addrCalls != 3 {
		t.Errorf("expected retry budget to be spent, got %d calls", api.addrCalls)
	}
}

func TestMoneroBalanceDegradesToZero(t *testing.T) {
	api := &fakeMoneroAPI{balanceErr: errors.New("node busy")}
	svc := newTestMoneroService(t, api)

	balance, err := svc.GetBalance(context.Background())
	if err != nil {
		t.Fatalf("GetBalance should not error: %v", err)
	}
	if balance != chain.ZeroBalance {
		t.Errorf("balance = %q, want %q", balance, chain.ZeroBalance)
	}
}

func TestMoneroInitMissingCapabilityFailsFast(t *testing.T) {
	api := &fakeMoneroAPI{versionErr: backend.ErrMissingCapability}
	svc := newTestMoneroService(t, api)
	svc.setState(StateInitializing)

	if err := svc.Init(context.Background()); !errors.Is(err, backend.ErrMissingCapability) {
		t.Fatalf("expected capability error, got %v", err)
	}
	if svc.State() != StateFailed {
		t.Errorf("state = %s, want failed", svc.State())
	}

	if _, err := svc.GetAddress(context.Background(), 0); !errors.Is(err, ErrAddressUnavailable) {
		t.Errorf("failed service should refuse addresses, got %v", err)
	}
	if balance, _ := svc.GetBalance(context.Background()); balance != chain.ZeroBalance {
		t.Errorf("failed service balance = %q, want %q", balance, chain.ZeroBalance)
	}
}

func TestMoneroInitOtherErrorDegrades(t *testing.T) {
	api := &fakeMoneroAPI{versionErr: errors.New("connection refused"), addresses: []string{validXMRAddr}}
	svc := newTestMoneroService(t, api)
	svc.setState(StateInitializing)

	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("transient init failure should not error: %v", err)
	}
	if svc.State() != StateDegraded {
		t.Errorf("state = %s, want degraded", svc.State())
	}

	// Degraded services still answer addresses.
	if _, err := svc.GetAddress(context.Background(), 0); err != nil {
		t.Errorf("degraded service should still serve addresses: %v", err)
	}
}

func TestMoneroInitWithoutMnemonic(t *testing.T) {
	rec := wallet.NewRecord("key-only", "", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	svc := &MoneroService{
		params: fastParams(t, "XMR"),
		record: rec,
		api:    &fakeMoneroAPI{},
		log:    testLogger().Component("XMR"),
	}
	svc.setState(StateInitializing)

	if err := svc.Init(context.Background()); !errors.Is(err, wallet.ErrMnemonicRequired) {
		t.Fatalf("expected ErrMnemonicRequired, got %v", err)
	}
	if svc.State() != StateFailed {
		t.Errorf("state = %s, want failed", svc.State())
	}
}

type fakeZcashAPI struct {
	infoErr    error
	balance    uint64
	balanceErr error
}

func (f *fakeZcashAPI) GetInfo(context.Context) (int64, error) {
	if f.infoErr != nil {
		return 0, f.infoErr
	}
	return 2500000, nil
}

func (f *fakeZcashAPI) GetBalance(context.Context, string) (uint64, error) {
	if f.balanceErr != nil {
		return 0, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeZcashAPI) GetUTXOs(context.Context, string) ([]backend.UTXO, error) {
	return nil, nil
}

func (f *fakeZcashAPI) Broadcast(context.Context, string) (string, error) {
	return "", nil
}

func TestZcashInitDegradesOnTransientError(t *testing.T) {
	rec, keyring := testWallet(t)
	svc := &ZcashService{
		params:  fastParams(t, "ZEC"),
		record:  rec,
		keyring: keyring,
		api:     &fakeZcashAPI{infoErr: errors.New("timeout")},
		log:     testLogger().Component("ZEC"),
	}
	svc.setState(StateInitializing)

	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("transient init failure should not error: %v", err)
	}
	if svc.State() != StateDegraded {
		t.Errorf("state = %s, want degraded", svc.State())
	}

	addr, err := svc.GetAddress(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetAddress: %v", err)
	}
	if !svc.ValidateAddress(addr) {
		t.Errorf("derived address should validate: %s", addr)
	}
}

func TestZcashBalanceErrorSurfaces(t *testing.T) {
	rec, keyring := testWallet(t)
	svc := &ZcashService{
		params:  fastParams(t, "ZEC"),
		record:  rec,
		keyring: keyring,
		api:     &fakeZcashAPI{balanceErr: errors.New("no address index")},
		log:     testLogger().Component("ZEC"),
	}
	svc.setState(StateReady)

	if _, err := svc.GetBalance(context.Background()); err == nil {
		t.Error("balance failure should surface as an error on non-privacy-degrading chains")
	}
}

func TestSolanaSendUnsupported(t *testing.T) {
	rec, keyring := testWallet(t)
	svc := &SolanaService{
		params:  fastParams(t, "SOL"),
		record:  rec,
		keyring: keyring,
		log:     testLogger().Component("SOL"),
	}

	if _, err := svc.SendTransaction(context.Background(), "any", "1"); !errors.Is(err, ErrSendUnsupported) {
		t.Errorf("expected ErrSendUnsupported, got %v", err)
	}

	// Other operations still work on the same service.
	addr, err := svc.GetAddress(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetAddress: %v", err)
	}
	if !svc.ValidateAddress(addr) {
		t.Errorf("derived address should validate: %s", addr)
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	return cfg
}

func TestManagerBuildIsCached(t *testing.T) {
	rec, _ := testWallet(t)
	mgr := NewManager(testConfig(), testLogger())

	first, err := mgr.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := mgr.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for sym := range first {
		if first[sym] != second[sym] {
			t.Errorf("service for %s rebuilt instead of cached", sym)
		}
	}

	mgr.Drop(rec.ID)
	third, err := mgr.Build(rec)
	if err != nil {
		t.Fatalf("Build after Drop: %v", err)
	}
	if len(third) != len(first) {
		t.Errorf("rebuild produced %d services, want %d", len(third), len(first))
	}
}

func TestManagerBuildNilRecord(t *testing.T) {
	mgr := NewManager(testConfig(), testLogger())
	if _, err := mgr.Build(nil); !errors.Is(err, wallet.ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestManagerKeyOnlyWallet(t *testing.T) {
	rec := wallet.NewRecord("key-only", "", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	mgr := NewManager(testConfig(), testLogger())

	services, err := mgr.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// EVM works from the raw key.
	eth, ok := services["ETH"]
	if !ok {
		t.Fatal("ETH service missing")
	}
	if _, err := eth.GetAddress(context.Background(), 0); err != nil {
		t.Errorf("EVM address from raw key: %v", err)
	}

	// Mnemonic-only chains refuse per call, not at build time.
	btc, ok := services["BTC"]
	if !ok {
		t.Fatal("BTC service missing")
	}
	if _, err := btc.GetAddress(context.Background(), 0); !errors.Is(err, wallet.ErrMnemonicRequired) {
		t.Errorf("expected ErrMnemonicRequired, got %v", err)
	}
}

func TestManagerHasPrivacyChain(t *testing.T) {
	mgr := NewManager(testConfig(), testLogger())
	if !mgr.HasPrivacyChain() {
		t.Error("default config enables XMR and ZEC")
	}

	cfg := config.Default()
	for i := range cfg.Networks {
		if cfg.Networks[i].Chain == "XMR" || cfg.Networks[i].Chain == "ZEC" {
			cfg.Networks[i].Enabled = false
		}
	}
	if NewManager(cfg, testLogger()).HasPrivacyChain() {
		t.Error("privacy chains disabled, should report false")
	}
}
