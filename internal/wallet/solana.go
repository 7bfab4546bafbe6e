package wallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Solana uses SLIP-0010 ed25519 derivation at m/44'/501'/index'/0'. All path
// components are hardened; ed25519 has no non-hardened derivation.

type slip10Node struct {
	key       []byte
	chainCode []byte
}

func slip10Master(seed []byte) slip10Node {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return slip10Node{key: sum[:32], chainCode: sum[32:]}
}

func (n slip10Node) child(index uint32) slip10Node {
	var ser [4]byte
	binary.BigEndian.PutUint32(ser[:], index|0x80000000)

	mac := hmac.New(sha512.New, n.chainCode)
	mac.Write([]byte{0x00})
	mac.Write(n.key)
	mac.Write(ser[:])
	sum := mac.Sum(nil)
	return slip10Node{key: sum[:32], chainCode: sum[32:]}
}

// SolanaKey derives the ed25519 keypair at account index.
func (r *Record) SolanaKey(keyring *Keyring, index uint32) (ed25519.PrivateKey, error) {
	if r == nil || !r.HasCredentials() {
		return nil, ErrNoCredentials
	}
	if keyring == nil {
		return nil, ErrMnemonicRequired
	}

	node := slip10Master(keyring.Seed())
	for _, step := range []uint32{44, 501, index, 0} {
		node = node.child(step)
	}
	return ed25519.NewKeyFromSeed(node.key), nil
}

// SolanaAddress returns the base58 public key at account index.
func (r *Record) SolanaAddress(keyring *Keyring, index uint32) (string, error) {
	priv, err := r.SolanaKey(keyring, index)
	if err != nil {
		return "", err
	}
	pub := priv.Public().(ed25519.PublicKey)
	return base58.Encode(pub), nil
}
