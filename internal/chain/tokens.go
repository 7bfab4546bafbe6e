package chain

import "strings"

// TokenInfo describes an ERC-20 token on an EVM chain.
type TokenInfo struct {
	Symbol   string
	Name     string
	Contract string // 0x-prefixed, stored lowercase
	Decimals uint8
}

// tokenRegistry maps chainID -> lowercase contract -> token info. These are
// the well-known tokens probed during discovery even when no transfer event
// is found in the scanned window.
var tokenRegistry = make(map[uint64]map[string]TokenInfo)

func registerToken(chainID uint64, info TokenInfo) {
	info.Contract = strings.ToLower(info.Contract)
	if tokenRegistry[chainID] == nil {
		tokenRegistry[chainID] = make(map[string]TokenInfo)
	}
	tokenRegistry[chainID][info.Contract] = info
}

// GetToken looks up a token by contract address (case-insensitive).
func GetToken(chainID uint64, contract string) (TokenInfo, bool) {
	info, ok := tokenRegistry[chainID][strings.ToLower(contract)]
	return info, ok
}

// KnownTokens returns the well-known token list for a chain.
func KnownTokens(chainID uint64) []TokenInfo {
	tokens := make([]TokenInfo, 0, len(tokenRegistry[chainID]))
	for _, info := range tokenRegistry[chainID] {
		tokens = append(tokens, info)
	}
	return tokens
}

func init() {
	// Ethereum mainnet
	registerToken(1, TokenInfo{Symbol: "USDT", Name: "Tether USD", Contract: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6})
	registerToken(1, TokenInfo{Symbol: "USDC", Name: "USD Coin", Contract: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6})
	registerToken(1, TokenInfo{Symbol: "DAI", Name: "Dai Stablecoin", Contract: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18})
	registerToken(1, TokenInfo{Symbol: "WBTC", Name: "Wrapped BTC", Contract: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Decimals: 8})
	registerToken(1, TokenInfo{Symbol: "WETH", Name: "Wrapped Ether", Contract: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18})
	registerToken(1, TokenInfo{Symbol: "LINK", Name: "Chainlink", Contract: "0x514910771AF9Ca656af840dff83E8264EcF986CA", Decimals: 18})
	registerToken(1, TokenInfo{Symbol: "UNI", Name: "Uniswap", Contract: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", Decimals: 18})
}
