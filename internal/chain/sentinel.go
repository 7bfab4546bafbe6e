package chain

import "strings"

// Sentinel values carried in place of addresses and balances while a chain
// is still loading or has failed. They are plain strings so the presentation
// layer can render them directly.
const (
	SentinelAddressError   = "Address Error"
	SentinelLoading        = "Loading..."
	SentinelInitializing   = "Initializing..."
	SentinelGettingAddress = "Getting address..."
	SentinelNoWallet       = "No wallet"
	SentinelNoCredentials  = "No credentials"

	// BalanceError marks a failed balance fetch. The privacy chain degrades
	// to ZeroBalance instead so a syncing asset does not block the UI.
	BalanceError = "Error"
	ZeroBalance  = "0.0"
)

var placeholderAddresses = map[string]struct{}{
	SentinelLoading:        {},
	SentinelInitializing:   {},
	SentinelGettingAddress: {},
	SentinelNoWallet:       {},
	SentinelNoCredentials:  {},
}

// UsableAddress reports whether an address string is final and safe to show
// or send to. This is the single source of truth for "is this address ready";
// every caller must apply it before treating an address as final.
func UsableAddress(addr string) bool {
	if addr == "" {
		return false
	}
	if strings.HasPrefix(addr, SentinelAddressError) {
		return false
	}
	_, placeholder := placeholderAddresses[addr]
	return !placeholder
}
