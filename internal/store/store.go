// Package store provides persistent storage using SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage errors
var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrLastWallet     = errors.New("cannot delete the last wallet")
)

// Store provides persistent storage for wallets and cached balances.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database under dataDir.
func Open(dataDir string) (*Store, error) {
	dataDir = expandPath(dataDir)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "prism.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mnemonic TEXT NOT NULL DEFAULT '',
		private_key TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	-- Cached display balances, persisted fire-and-forget so a restart can
	-- show the last known values immediately.
	CREATE TABLE IF NOT EXISTS balance_cache (
		wallet_id TEXT NOT NULL,
		chain TEXT NOT NULL,
		balance TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (wallet_id, chain)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS address_cache (
		wallet_id TEXT NOT NULL,
		chain TEXT NOT NULL,
		account_index INTEGER NOT NULL,
		address TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (wallet_id, chain, account_index)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
