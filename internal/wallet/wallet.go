// Package wallet provides wallet records and HD key derivation with
// BIP39/BIP44 support. One secret (mnemonic or raw private key) fans out
// into per-chain keys; the chain services never see the secret itself.
package wallet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"

	"github.com/prism-wallet/prism/internal/chain"
)

// Credential errors. Services translate these into their failure states
// instead of retrying - a wallet with no secret will not grow one.
var (
	ErrNoCredentials    = errors.New("wallet has no usable credentials")
	ErrMnemonicRequired = errors.New("operation requires a mnemonic, not a raw private key")
)

// Record is a stored wallet. Exactly one of Mnemonic or PrivateKey may be
// set; PrivateKey is a hex-encoded secp256k1 key usable only on EVM chains.
type Record struct {
	ID         string
	Name       string
	Mnemonic   string
	PrivateKey string
	CreatedAt  time.Time
}

// NewRecord creates a wallet record with a fresh id.
func NewRecord(name, mnemonic, privateKey string) *Record {
	return &Record{
		ID:         uuid.NewString(),
		Name:       name,
		Mnemonic:   mnemonic,
		PrivateKey: privateKey,
		CreatedAt:  time.Now().UTC(),
	}
}

// HasMnemonic reports whether the record carries a BIP39 mnemonic.
func (r *Record) HasMnemonic() bool {
	return r.Mnemonic != ""
}

// HasCredentials reports whether the record carries any secret at all.
func (r *Record) HasCredentials() bool {
	return r.Mnemonic != "" || r.PrivateKey != ""
}

// RequireMnemonic returns the mnemonic or the typed error for services that
// cannot work from a raw key.
func (r *Record) RequireMnemonic() (string, error) {
	if r == nil || !r.HasCredentials() {
		return "", ErrNoCredentials
	}
	if r.Mnemonic == "" {
		return "", ErrMnemonicRequired
	}
	return r.Mnemonic, nil
}

// GenerateMnemonic generates a new 24-word BIP39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks if a mnemonic is valid.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// Keyring derives per-chain keys from a BIP39 seed. Derivation is pure: the
// same mnemonic and path always produce the same key, so any chain can be
// rebuilt from the record alone.
type Keyring struct {
	masterKey *hdkeychain.ExtendedKey
	seed      []byte
	mu        sync.Mutex

	// path string -> derived key
	cache map[string]*hdkeychain.ExtendedKey
}

// NewKeyring creates a keyring from a BIP39 mnemonic.
func NewKeyring(mnemonic string) (*Keyring, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")

	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	return &Keyring{
		masterKey: masterKey,
		seed:      seed,
		cache:     make(map[string]*hdkeychain.ExtendedKey),
	}, nil
}

// Seed returns the raw BIP39 seed for derivation schemes that do not use
// secp256k1 extended keys (SLIP-0010 ed25519, Monero key reduction).
func (k *Keyring) Seed() []byte {
	return k.seed
}

// DeriveKey derives a secp256k1 key at m/purpose'/coin'/account'/change/index.
func (k *Keyring) DeriveKey(purpose, coinType, account, change, index uint32) (*btcec.PrivateKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cacheKey := fmt.Sprintf("%d/%d/%d/%d/%d", purpose, coinType, account, change, index)
	key, ok := k.cache[cacheKey]
	if !ok {
		var err error
		key = k.masterKey
		for _, step := range []uint32{
			hdkeychain.HardenedKeyStart + purpose,
			hdkeychain.HardenedKeyStart + coinType,
			hdkeychain.HardenedKeyStart + account,
			change,
			index,
		} {
			key, err = key.Derive(step)
			if err != nil {
				return nil, fmt.Errorf("failed to derive path %s: %w", cacheKey, err)
			}
		}
		k.cache[cacheKey] = key
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}
	return priv, nil
}

// DeriveForChain derives the external key at index for a chain's default
// BIP44 path.
func (k *Keyring) DeriveForChain(params *chain.Params, account, index uint32) (*btcec.PrivateKey, error) {
	return k.DeriveKey(params.DefaultPurpose, params.CoinType, account, 0, index)
}
