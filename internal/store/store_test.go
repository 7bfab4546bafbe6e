package store

import (
	"errors"
	"testing"
	"time"

	"github.com/prism-wallet/prism/internal/wallet"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWalletCRUD(t *testing.T) {
	s := testStore(t)

	rec := wallet.NewRecord("main", "some mnemonic words", "")
	if err := s.SaveWallet(rec); err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}

	got, err := s.GetWallet(rec.ID)
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	if got.Name != "main" || got.Mnemonic != "some mnemonic words" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := s.GetWallet("missing"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}

	wallets, err := s.ListWallets()
	if err != nil {
		t.Fatalf("ListWallets: %v", err)
	}
	if len(wallets) != 1 {
		t.Errorf("wallet count = %d, want 1", len(wallets))
	}
}

func TestDeleteLastWalletRefused(t *testing.T) {
	s := testStore(t)

	only := wallet.NewRecord("only", "words", "")
	if err := s.SaveWallet(only); err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}
	if err := s.DeleteWallet(only.ID); !errors.Is(err, ErrLastWallet) {
		t.Fatalf("expected ErrLastWallet, got %v", err)
	}

	second := wallet.NewRecord("second", "more words", "")
	if err := s.SaveWallet(second); err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}
	if err := s.DeleteWallet(only.ID); err != nil {
		t.Fatalf("DeleteWallet with two wallets: %v", err)
	}
	if _, err := s.GetWallet(only.ID); !errors.Is(err, ErrWalletNotFound) {
		t.Error("deleted wallet should be gone")
	}
}

func TestBalanceCacheRoundTrip(t *testing.T) {
	s := testStore(t)
	now := time.Now().Truncate(time.Second)

	if err := s.SaveBalance("w1", "BTC", "0.5", now); err != nil {
		t.Fatalf("SaveBalance: %v", err)
	}
	if err := s.SaveBalance("w1", "BTC", "0.75", now.Add(time.Minute)); err != nil {
		t.Fatalf("SaveBalance upsert: %v", err)
	}
	if err := s.SaveBalance("w1", "ETH", "1.2", now); err != nil {
		t.Fatalf("SaveBalance: %v", err)
	}

	balances, err := s.LoadBalances("w1")
	if err != nil {
		t.Fatalf("LoadBalances: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("balance count = %d, want 2", len(balances))
	}
	for _, b := range balances {
		if b.Chain == "BTC" && b.Balance != "0.75" {
			t.Errorf("upsert did not overwrite: %s", b.Balance)
		}
	}

	if got, _ := s.LoadBalances("other"); len(got) != 0 {
		t.Error("balances should be scoped per wallet")
	}
}

func TestAddressCacheRoundTrip(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	if err := s.SaveAddress("w1", "BTC", 0, "bc1qfirst", now); err != nil {
		t.Fatalf("SaveAddress: %v", err)
	}
	if err := s.SaveAddress("w1", "BTC", 1, "bc1qsecond", now); err != nil {
		t.Fatalf("SaveAddress: %v", err)
	}

	addrs, err := s.LoadAddresses("w1")
	if err != nil {
		t.Fatalf("LoadAddresses: %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("address count = %d, want 2", len(addrs))
	}
}

func TestActiveWallet(t *testing.T) {
	s := testStore(t)

	first := wallet.NewRecord("first", "words", "")
	first.CreatedAt = time.Now().Add(-time.Hour).UTC()
	second := wallet.NewRecord("second", "words", "")
	if err := s.SaveWallet(first); err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}
	if err := s.SaveWallet(second); err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}

	// With nothing marked, the oldest wallet is active.
	active, err := s.GetActiveWallet()
	if err != nil {
		t.Fatalf("GetActiveWallet: %v", err)
	}
	if active.ID != first.ID {
		t.Errorf("default active = %q, want oldest %q", active.ID, first.ID)
	}

	if err := s.SetActiveWallet(second.ID); err != nil {
		t.Fatalf("SetActiveWallet: %v", err)
	}
	active, err = s.GetActiveWallet()
	if err != nil {
		t.Fatalf("GetActiveWallet: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("active = %q, want %q", active.ID, second.ID)
	}

	if err := s.SetActiveWallet("missing"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}

	// Deleting the active wallet falls back to the remaining one.
	if err := s.DeleteWallet(second.ID); err != nil {
		t.Fatalf("DeleteWallet: %v", err)
	}
	active, err = s.GetActiveWallet()
	if err != nil {
		t.Fatalf("GetActiveWallet: %v", err)
	}
	if active.ID != first.ID {
		t.Errorf("active after delete = %q, want %q", active.ID, first.ID)
	}
}
