package wallet

import (
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/sha3"
)

// Monero key derivation. The spend scalar comes from reducing a Keccak hash
// of the BIP39 seed mod the ed25519 group order, the view scalar from
// hashing the spend scalar again. Addresses derived here match what the
// remote wallet node produces for the same seed, so the local result can be
// shown before the node finishes syncing.

const (
	moneroMainnetPrefix    = 0x12
	moneroSubaddressPrefix = 0x2A
)

// MoneroKeys holds the two scalar keys of a Monero account.
type MoneroKeys struct {
	SpendSecret *edwards25519.Scalar
	ViewSecret  *edwards25519.Scalar
	SpendPublic *edwards25519.Point
	ViewPublic  *edwards25519.Point
}

// reduce32 interprets b as a little-endian 256-bit integer and reduces it
// mod the group order, matching Monero's sc_reduce32.
func reduce32(b []byte) (*edwards25519.Scalar, error) {
	wide := make([]byte, 64)
	copy(wide, b)
	return new(edwards25519.Scalar).SetUniformBytes(wide)
}

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// MoneroKeys derives the account keys from the wallet seed.
func (r *Record) MoneroKeys(keyring *Keyring) (*MoneroKeys, error) {
	if r == nil || !r.HasCredentials() {
		return nil, ErrNoCredentials
	}
	if keyring == nil {
		return nil, ErrMnemonicRequired
	}

	spendSecret, err := reduce32(keccak256(keyring.Seed()))
	if err != nil {
		return nil, fmt.Errorf("failed to derive spend key: %w", err)
	}
	viewSecret, err := reduce32(keccak256(spendSecret.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to derive view key: %w", err)
	}

	return &MoneroKeys{
		SpendSecret: spendSecret,
		ViewSecret:  viewSecret,
		SpendPublic: new(edwards25519.Point).ScalarBaseMult(spendSecret),
		ViewPublic:  new(edwards25519.Point).ScalarBaseMult(viewSecret),
	}, nil
}

// MoneroAddress returns the mainnet primary address for the wallet seed.
func (r *Record) MoneroAddress(keyring *Keyring) (string, error) {
	keys, err := r.MoneroKeys(keyring)
	if err != nil {
		return "", err
	}

	data := make([]byte, 0, 69)
	data = append(data, moneroMainnetPrefix)
	data = append(data, keys.SpendPublic.Bytes()...)
	data = append(data, keys.ViewPublic.Bytes()...)
	data = append(data, keccak256(data)[:4]...)

	return encodeMoneroBase58(data), nil
}

// MoneroSubaddress returns the account-0 subaddress at index. Index 0 is
// the primary address itself, not a subaddress.
func (r *Record) MoneroSubaddress(keyring *Keyring, index uint32) (string, error) {
	if index == 0 {
		return r.MoneroAddress(keyring)
	}
	keys, err := r.MoneroKeys(keyring)
	if err != nil {
		return "", err
	}

	// m = Hs("SubAddr" || 0x00 || a || major || minor), D = B + m*G,
	// C = a*D, with a the view secret and B the spend public key.
	buf := make([]byte, 0, 48)
	buf = append(buf, []byte("SubAddr\x00")...)
	buf = append(buf, keys.ViewSecret.Bytes()...)
	buf = appendUint32LE(buf, 0) // major (account)
	buf = appendUint32LE(buf, index)
	m, err := reduce32(keccak256(buf))
	if err != nil {
		return "", fmt.Errorf("failed to derive subaddress scalar: %w", err)
	}

	spendPub := new(edwards25519.Point).Add(keys.SpendPublic, new(edwards25519.Point).ScalarBaseMult(m))
	viewPub := new(edwards25519.Point).ScalarMult(keys.ViewSecret, spendPub)

	data := make([]byte, 0, 69)
	data = append(data, moneroSubaddressPrefix)
	data = append(data, spendPub.Bytes()...)
	data = append(data, viewPub.Bytes()...)
	data = append(data, keccak256(data)[:4]...)

	return encodeMoneroBase58(data), nil
}

func appendUint32LE(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

const moneroAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// encodedBlockSizes maps raw block length to encoded length for Monero's
// fixed-width base58 blocks.
var encodedBlockSizes = [9]int{0, 2, 3, 5, 6, 7, 9, 10, 11}

// encodeMoneroBase58 encodes data in 8-byte blocks, each padded to a fixed
// width, unlike Bitcoin's variable-length base58.
func encodeMoneroBase58(data []byte) string {
	var out []byte
	for i := 0; i < len(data); i += 8 {
		end := i + 8
		if end > len(data) {
			end = len(data)
		}
		out = append(out, encodeMoneroBlock(data[i:end])...)
	}
	return string(out)
}

func encodeMoneroBlock(block []byte) []byte {
	var num uint64
	for _, b := range block {
		num = num<<8 | uint64(b)
	}

	size := encodedBlockSizes[len(block)]
	encoded := make([]byte, size)
	for i := range encoded {
		encoded[i] = moneroAlphabet[0]
	}
	for i := size - 1; num > 0; i-- {
		encoded[i] = moneroAlphabet[num%58]
		num /= 58
	}
	return encoded
}
