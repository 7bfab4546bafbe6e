package chain

import "time"

func init() {
	Register(&Params{
		Symbol:   "XMR",
		Name:     "Monero",
		Kind:     KindMonero,
		Decimals: 12,

		CoinType:       128,
		DefaultPurpose: 44,

		// The wallet node scans the chain before it can answer anything,
		// so the handshake gets a generous window and address fetches
		// retry while the node reports placeholder values.
		InitTimeout:       90 * time.Second,
		AddressAttempts:   3,
		AddressRetryDelay: 2500 * time.Millisecond,
	})
}
