package chain

func init() {
	Register(&Params{
		Symbol:   "ETH",
		Name:     "Ethereum",
		Kind:     KindEVM,
		Decimals: 18,

		CoinType:       60,
		DefaultPurpose: 44,

		ChainID: 1,
	})
}
