package wallet

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Zcash transparent (t1) addresses are base58check over a two-byte version
// prefix and the hash160 of the compressed pubkey. Shielded pools are not
// derived here; they live behind the shielded swap adapter.
var zcashT1Prefix = []byte{0x1C, 0xB8}

// ZcashAddress derives the transparent t1 address at index using the BIP44
// path m/44'/133'/0'/0/index.
func (r *Record) ZcashAddress(keyring *Keyring, index uint32) (string, error) {
	if r == nil || !r.HasCredentials() {
		return "", ErrNoCredentials
	}
	if keyring == nil {
		return "", ErrMnemonicRequired
	}

	priv, err := keyring.DeriveKey(44, 133, 0, 0, index)
	if err != nil {
		return "", err
	}

	pubKeyHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	return encodeBase58Check(zcashT1Prefix, pubKeyHash), nil
}

func encodeBase58Check(version, payload []byte) string {
	data := make([]byte, 0, len(version)+len(payload)+4)
	data = append(data, version...)
	data = append(data, payload...)
	checksum := chainhash.DoubleHashB(data)[:4]
	data = append(data, checksum...)
	return base58.Encode(data)
}

// ValidateZcashTransparentAddress checks the version bytes and checksum of
// a t1 address.
func ValidateZcashTransparentAddress(addr string) bool {
	decoded := base58.Decode(addr)
	if len(decoded) != 26 {
		return false
	}
	if decoded[0] != zcashT1Prefix[0] || decoded[1] != zcashT1Prefix[1] {
		return false
	}
	body, checksum := decoded[:22], decoded[22:]
	want := chainhash.DoubleHashB(body)[:4]
	for i := range want {
		if checksum[i] != want[i] {
			return false
		}
	}
	return true
}
