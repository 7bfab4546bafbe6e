package wallet

import (
	"strings"
	"testing"
)

// Standard BIP39 test vector mnemonic.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testKeyring(t *testing.T) *Keyring {
	t.Helper()
	keyring, err := NewKeyring(testMnemonic)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	return keyring
}

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	if words := len(strings.Fields(mnemonic)); words != 24 {
		t.Errorf("expected 24 words, got %d", words)
	}
	if !ValidateMnemonic(mnemonic) {
		t.Error("generated mnemonic should validate")
	}
	if ValidateMnemonic("not a real mnemonic at all") {
		t.Error("garbage should not validate")
	}
}

func TestNewKeyringRejectsInvalidMnemonic(t *testing.T) {
	if _, err := NewKeyring("invalid words here"); err == nil {
		t.Fatal("expected error for invalid mnemonic")
	}
}

func TestEVMAddressVector(t *testing.T) {
	keyring := testKeyring(t)
	rec := NewRecord("test", testMnemonic, "")

	addr, err := rec.EVMAddress(keyring, 0)
	if err != nil {
		t.Fatalf("EVMAddress: %v", err)
	}
	// Known BIP44 vector for the standard test mnemonic.
	want := "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	if addr != want {
		t.Errorf("EVM address = %s, want %s", addr, want)
	}
}

func TestEVMAddressPrefersRawKey(t *testing.T) {
	keyring := testKeyring(t)
	// Key with a known address.
	rec := NewRecord("imported", testMnemonic, "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")

	addr, err := rec.EVMAddress(keyring, 0)
	if err != nil {
		t.Fatalf("EVMAddress: %v", err)
	}
	want := "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	if addr != want {
		t.Errorf("imported key address = %s, want %s", addr, want)
	}
}

func TestBitcoinAddressVector(t *testing.T) {
	keyring := testKeyring(t)
	rec := NewRecord("test", testMnemonic, "")

	addr, err := rec.BitcoinAddress(keyring, 0)
	if err != nil {
		t.Fatalf("BitcoinAddress: %v", err)
	}
	// BIP84 test vector for the standard mnemonic.
	want := "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"
	if addr != want {
		t.Errorf("BTC address = %s, want %s", addr, want)
	}
	if !ValidateBitcoinAddress(addr) {
		t.Error("derived address should validate")
	}
}

func TestSolanaAddressDeterministic(t *testing.T) {
	keyring := testKeyring(t)
	rec := NewRecord("test", testMnemonic, "")

	a, err := rec.SolanaAddress(keyring, 0)
	if err != nil {
		t.Fatalf("SolanaAddress: %v", err)
	}
	b, err := rec.SolanaAddress(keyring, 0)
	if err != nil {
		t.Fatalf("SolanaAddress: %v", err)
	}
	if a != b {
		t.Errorf("derivation not deterministic: %s != %s", a, b)
	}
	if len(a) < 32 || len(a) > 44 {
		t.Errorf("unexpected address length: %s", a)
	}

	other, err := rec.SolanaAddress(keyring, 1)
	if err != nil {
		t.Fatalf("SolanaAddress index 1: %v", err)
	}
	if other == a {
		t.Error("different indices should produce different addresses")
	}
}

func TestMoneroAddressShape(t *testing.T) {
	keyring := testKeyring(t)
	rec := NewRecord("test", testMnemonic, "")

	addr, err := rec.MoneroAddress(keyring)
	if err != nil {
		t.Fatalf("MoneroAddress: %v", err)
	}
	if len(addr) != 95 {
		t.Errorf("address length = %d, want 95", len(addr))
	}
	if addr[0] != '4' {
		t.Errorf("mainnet address should start with 4, got %c", addr[0])
	}

	again, err := rec.MoneroAddress(keyring)
	if err != nil {
		t.Fatalf("MoneroAddress: %v", err)
	}
	if addr != again {
		t.Error("derivation not deterministic")
	}
}

func TestMoneroSubaddressDerivation(t *testing.T) {
	keyring := testKeyring(t)
	rec := NewRecord("test", testMnemonic, "")

	primary, err := rec.MoneroAddress(keyring)
	if err != nil {
		t.Fatalf("MoneroAddress: %v", err)
	}

	// Index 0 is the primary address, not a subaddress.
	zero, err := rec.MoneroSubaddress(keyring, 0)
	if err != nil {
		t.Fatalf("MoneroSubaddress(0): %v", err)
	}
	if zero != primary {
		t.Errorf("index 0 = %q, want the primary %q", zero, primary)
	}

	sub1, err := rec.MoneroSubaddress(keyring, 1)
	if err != nil {
		t.Fatalf("MoneroSubaddress(1): %v", err)
	}
	if len(sub1) != 95 {
		t.Errorf("subaddress length = %d, want 95", len(sub1))
	}
	if sub1[0] != '8' {
		t.Errorf("mainnet subaddress should start with 8, got %c", sub1[0])
	}
	if sub1 == primary {
		t.Error("subaddress must differ from the primary address")
	}

	sub2, err := rec.MoneroSubaddress(keyring, 2)
	if err != nil {
		t.Fatalf("MoneroSubaddress(2): %v", err)
	}
	if sub2 == sub1 {
		t.Error("different indices should produce different subaddresses")
	}

	again, err := rec.MoneroSubaddress(keyring, 1)
	if err != nil {
		t.Fatalf("MoneroSubaddress(1) again: %v", err)
	}
	if again != sub1 {
		t.Error("subaddress derivation not deterministic")
	}
}

func TestZcashAddressShape(t *testing.T) {
	keyring := testKeyring(t)
	rec := NewRecord("test", testMnemonic, "")

	addr, err := rec.ZcashAddress(keyring, 0)
	if err != nil {
		t.Fatalf("ZcashAddress: %v", err)
	}
	if !strings.HasPrefix(addr, "t1") {
		t.Errorf("transparent address should start with t1, got %s", addr)
	}
	if !ValidateZcashTransparentAddress(addr) {
		t.Error("derived address should validate")
	}
	if ValidateZcashTransparentAddress("t1invalid") {
		t.Error("garbage should not validate")
	}
}

func TestCredentialErrors(t *testing.T) {
	keyring := testKeyring(t)

	empty := &Record{ID: "x", Name: "empty"}
	if _, err := empty.EVMAddress(keyring, 0); err != ErrNoCredentials {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}

	keyOnly := NewRecord("key-only", "", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	if _, err := keyOnly.BitcoinAddress(nil, 0); err != ErrMnemonicRequired {
		t.Errorf("expected ErrMnemonicRequired for BTC, got %v", err)
	}
	if _, err := keyOnly.MoneroAddress(nil); err != ErrMnemonicRequired {
		t.Errorf("expected ErrMnemonicRequired for XMR, got %v", err)
	}
	if _, err := keyOnly.RequireMnemonic(); err != ErrMnemonicRequired {
		t.Errorf("expected ErrMnemonicRequired, got %v", err)
	}
	if _, err := keyOnly.EVMAddress(nil, 0); err != nil {
		t.Errorf("raw key should be enough for EVM: %v", err)
	}
}
