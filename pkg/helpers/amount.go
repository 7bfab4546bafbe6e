// Package helpers provides common utility functions used across the codebase.
package helpers

import (
	"fmt"
	"math/big"
)

// FormatAmount formats an amount in smallest units as a decimal string.
// For example, FormatAmount(big.NewInt(100000000), 8) returns "1" (1 BTC).
func FormatAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	whole := new(big.Int).Div(amount, divisor)
	frac := new(big.Int).Mod(amount, divisor)

	if frac.Sign() == 0 {
		return whole.String()
	}

	fracStr := fmt.Sprintf("%0*d", int(decimals), frac)
	// Trim trailing zeros
	for len(fracStr) > 0 && fracStr[len(fracStr)-1] == '0' {
		fracStr = fracStr[:len(fracStr)-1]
	}

	return fmt.Sprintf("%s.%s", whole.String(), fracStr)
}

// FormatUint formats a uint64 amount in smallest units as a decimal string.
func FormatUint(amount uint64, decimals uint8) string {
	return FormatAmount(new(big.Int).SetUint64(amount), decimals)
}

// ParseAmount parses a decimal string to smallest units.
// For example, ParseAmount("1.5", 8) returns 150000000.
func ParseAmount(s string, decimals uint8) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty amount string")
	}

	var wholeStr, fracStr string
	for i, c := range s {
		if c == '.' {
			wholeStr = s[:i]
			fracStr = s[i+1:]
			break
		}
	}
	if wholeStr == "" && fracStr == "" {
		wholeStr = s
	}

	for _, c := range wholeStr {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid character in amount: %c", c)
		}
	}
	for _, c := range fracStr {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid character in amount: %c", c)
		}
	}

	// Pad or truncate fractional part to the chain's precision
	for len(fracStr) < int(decimals) {
		fracStr += "0"
	}
	if len(fracStr) > int(decimals) {
		fracStr = fracStr[:decimals]
	}

	combined := wholeStr + fracStr
	amount, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}

	return amount, nil
}

// SatoshisToBTC converts satoshis to a BTC string (8 decimals).
func SatoshisToBTC(satoshis uint64) string {
	return FormatUint(satoshis, 8)
}

// BTCToSatoshis converts a BTC string to satoshis.
func BTCToSatoshis(btc string) (uint64, error) {
	v, err := ParseAmount(btc, 8)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("amount overflow: %s", btc)
	}
	return v.Uint64(), nil
}

// WeiToETH converts wei to an ETH string (18 decimals).
func WeiToETH(wei *big.Int) string {
	return FormatAmount(wei, 18)
}

// ETHToWei converts an ETH string to wei.
func ETHToWei(eth string) (*big.Int, error) {
	return ParseAmount(eth, 18)
}
