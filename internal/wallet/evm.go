package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EVMKey resolves the secp256k1 key used on EVM chains. A raw private key
// takes precedence over the mnemonic so imported keys keep the address the
// user imported.
func (r *Record) EVMKey(keyring *Keyring, index uint32) (*ecdsa.PrivateKey, error) {
	if r == nil || !r.HasCredentials() {
		return nil, ErrNoCredentials
	}

	if r.PrivateKey != "" {
		priv, err := crypto.HexToECDSA(strings.TrimPrefix(r.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		return priv, nil
	}

	if keyring == nil {
		return nil, ErrNoCredentials
	}
	key, err := keyring.DeriveKey(44, 60, 0, 0, index)
	if err != nil {
		return nil, err
	}
	return key.ToECDSA(), nil
}

// EVMAddress returns the EIP-55 checksummed address for the key at index.
func (r *Record) EVMAddress(keyring *Keyring, index uint32) (string, error) {
	priv, err := r.EVMKey(keyring, index)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(priv.PublicKey).Hex(), nil
}

// ValidateEVMAddress checks basic shape and hex content of an EVM address.
func ValidateEVMAddress(addr string) bool {
	return common.IsHexAddress(addr)
}
