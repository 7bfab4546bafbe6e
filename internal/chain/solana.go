package chain

func init() {
	Register(&Params{
		Symbol:   "SOL",
		Name:     "Solana",
		Kind:     KindSolana,
		Decimals: 9,

		// SLIP-0010 ed25519, all path components hardened
		CoinType:       501,
		DefaultPurpose: 44,
	})
}
