package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prism-wallet/prism/internal/wallet"
)

// SaveWallet inserts or updates a wallet record.
func (s *Store) SaveWallet(rec *wallet.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO wallets (id, name, mnemonic, private_key, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, rec.ID, rec.Name, rec.Mnemonic, rec.PrivateKey, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

// GetWallet returns a wallet by id.
func (s *Store) GetWallet(id string) (*wallet.Record, error) {
	row := s.db.QueryRow(`
		SELECT id, name, mnemonic, private_key, created_at
		FROM wallets WHERE id = ?
	`, id)
	return scanWallet(row)
}

// ListWallets returns all wallets ordered by creation time.
func (s *Store) ListWallets() ([]*wallet.Record, error) {
	rows, err := s.db.Query(`
		SELECT id, name, mnemonic, private_key, created_at
		FROM wallets ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*wallet.Record
	for rows.Next() {
		rec, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, rec)
	}
	return wallets, rows.Err()
}

// DeleteWallet removes a wallet and its cached data. Deleting the last
// remaining wallet is refused; the daemon always keeps one wallet around.
func (s *Store) DeleteWallet(id string) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM wallets`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count wallets: %w", err)
	}
	if count <= 1 {
		return ErrLastWallet
	}

	res, err := s.db.Exec(`DELETE FROM wallets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrWalletNotFound
	}

	s.db.Exec(`DELETE FROM balance_cache WHERE wallet_id = ?`, id)
	s.db.Exec(`DELETE FROM address_cache WHERE wallet_id = ?`, id)
	s.db.Exec(`DELETE FROM settings WHERE key = 'active_wallet' AND value = ?`, id)
	return nil
}

// SetActiveWallet marks one wallet as the active one.
func (s *Store) SetActiveWallet(id string) error {
	if _, err := s.GetWallet(id); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES ('active_wallet', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, id)
	if err != nil {
		return fmt.Errorf("failed to set active wallet: %w", err)
	}
	return nil
}

// GetActiveWallet returns the active wallet, falling back to the oldest
// wallet when none was marked.
func (s *Store) GetActiveWallet() (*wallet.Record, error) {
	var id string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = 'active_wallet'`).Scan(&id)
	if err == nil {
		if rec, err := s.GetWallet(id); err == nil {
			return rec, nil
		}
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read active wallet: %w", err)
	}

	wallets, err := s.ListWallets()
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, ErrWalletNotFound
	}
	return wallets[0], nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWallet(row rowScanner) (*wallet.Record, error) {
	var rec wallet.Record
	var createdAt int64
	err := row.Scan(&rec.ID, &rec.Name, &rec.Mnemonic, &rec.PrivateKey, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}
