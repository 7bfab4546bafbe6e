package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// BitcoinAddress derives the native segwit (P2WPKH) address at index.
func (r *Record) BitcoinAddress(keyring *Keyring, index uint32) (string, error) {
	if r == nil || !r.HasCredentials() {
		return "", ErrNoCredentials
	}
	if keyring == nil {
		return "", ErrMnemonicRequired
	}

	priv, err := keyring.DeriveKey(84, 0, 0, 0, index)
	if err != nil {
		return "", err
	}

	pubKeyHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, &chaincfg.MainNetParams)
	if err != nil {
		return "", fmt.Errorf("failed to build p2wpkh address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// ValidateBitcoinAddress checks an address against mainnet params.
func ValidateBitcoinAddress(addr string) bool {
	_, err := btcutil.DecodeAddress(addr, &chaincfg.MainNetParams)
	return err == nil
}
