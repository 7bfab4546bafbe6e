package chain

import "time"

func init() {
	Register(&Params{
		Symbol:   "ZEC",
		Name:     "Zcash",
		Kind:     KindZcash,
		Decimals: 8,

		CoinType:       133,
		DefaultPurpose: 44,

		// Transparent t1 addresses use a two-byte version prefix.
		PubKeyHashAddrID: []byte{0x1C, 0xB8},

		InitTimeout:       30 * time.Second,
		AddressAttempts:   1,
		AddressRetryDelay: 2 * time.Second,
	})
}
