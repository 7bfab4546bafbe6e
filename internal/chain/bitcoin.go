package chain

func init() {
	Register(&Params{
		Symbol:   "BTC",
		Name:     "Bitcoin",
		Kind:     KindBitcoin,
		Decimals: 8,

		CoinType:       0,
		DefaultPurpose: 84, // native segwit by default

		Bech32HRP:        "bc",
		PubKeyHashAddrID: []byte{0x00},
	})
}
