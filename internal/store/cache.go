package store

import (
	"fmt"
	"time"
)

// CachedBalance is a persisted balance row.
type CachedBalance struct {
	WalletID  string
	Chain     string
	Balance   string
	UpdatedAt time.Time
}

// CachedAddress is a persisted address row.
type CachedAddress struct {
	WalletID  string
	Chain     string
	Index     uint32
	Address   string
	UpdatedAt time.Time
}

// SaveBalance upserts a cached balance. Called fire-and-forget by the cache
// layer; failures are logged there, never surfaced to callers.
func (s *Store) SaveBalance(walletID, chain, balance string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO balance_cache (wallet_id, chain, balance, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(wallet_id, chain) DO UPDATE SET
			balance = excluded.balance, updated_at = excluded.updated_at
	`, walletID, chain, balance, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

// LoadBalances returns all persisted balances for a wallet.
func (s *Store) LoadBalances(walletID string) ([]CachedBalance, error) {
	rows, err := s.db.Query(`
		SELECT wallet_id, chain, balance, updated_at
		FROM balance_cache WHERE wallet_id = ?
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	defer rows.Close()

	var out []CachedBalance
	for rows.Next() {
		var cb CachedBalance
		var updatedAt int64
		if err := rows.Scan(&cb.WalletID, &cb.Chain, &cb.Balance, &updatedAt); err != nil {
			return nil, err
		}
		cb.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, cb)
	}
	return out, rows.Err()
}

// SaveAddress upserts a cached address.
func (s *Store) SaveAddress(walletID, chain string, index uint32, address string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO address_cache (wallet_id, chain, account_index, address, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(wallet_id, chain, account_index) DO UPDATE SET
			address = excluded.address, updated_at = excluded.updated_at
	`, walletID, chain, index, address, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to save address: %w", err)
	}
	return nil
}

// LoadAddresses returns all persisted addresses for a wallet.
func (s *Store) LoadAddresses(walletID string) ([]CachedAddress, error) {
	rows, err := s.db.Query(`
		SELECT wallet_id, chain, account_index, address, updated_at
		FROM address_cache WHERE wallet_id = ?
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load addresses: %w", err)
	}
	defer rows.Close()

	var out []CachedAddress
	for rows.Next() {
		var ca CachedAddress
		var updatedAt int64
		if err := rows.Scan(&ca.WalletID, &ca.Chain, &ca.Index, &ca.Address, &updatedAt); err != nil {
			return nil, err
		}
		ca.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, ca)
	}
	return out, rows.Err()
}
