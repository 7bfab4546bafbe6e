// Package chain defines chain parameters and derivation paths for supported
// blockchains. All chain-specific values are hardcoded here - no external
// configuration needed.
package chain

import "time"

// Kind represents the blockchain family. Each kind maps to exactly one
// chain service variant.
type Kind string

const (
	KindEVM     Kind = "evm"     // Ethereum and EVM-compatible chains
	KindBitcoin Kind = "bitcoin" // Bitcoin and forks
	KindSolana  Kind = "solana"  // Solana
	KindMonero  Kind = "monero"  // Monero (privacy chain, slow remote init)
	KindZcash   Kind = "zcash"   // Zcash (transparent + shielded pools)
)

// Params contains all parameters for a blockchain.
type Params struct {
	// Identity
	Symbol   string // BTC, ETH, SOL, XMR, ZEC
	Name     string
	Kind     Kind
	Decimals uint8

	// BIP44 derivation
	CoinType       uint32 // BIP44 coin type (0=BTC, 60=ETH, 501=SOL, ...)
	DefaultPurpose uint32 // 44 or 84

	// Bitcoin-family address encoding
	Bech32HRP        string
	PubKeyHashAddrID []byte // base58check version bytes (1 for BTC, 2 for ZEC)

	// EVM params
	ChainID uint64

	// Remote-node handshake. Zero means the service starts Ready and has
	// no init capability.
	InitTimeout time.Duration

	// Address fetch retry policy. The privacy chain's remote node may not
	// have a usable address until it finishes syncing.
	AddressAttempts   int
	AddressRetryDelay time.Duration
}

// RequiresInit reports whether this chain's service must complete a remote
// handshake before other calls are meaningful.
func (p *Params) RequiresInit() bool {
	return p.InitTimeout > 0
}

// DerivationPath returns the BIP44/84 derivation path for this chain.
// Format: m/purpose'/coin'/account'/change/index
func (p *Params) DerivationPath(account, change, index uint32) []uint32 {
	return []uint32{
		p.DefaultPurpose + 0x80000000,
		p.CoinType + 0x80000000,
		account + 0x80000000,
		change,
		index,
	}
}

// Registry holds all chain parameters indexed by symbol.
var registry = make(map[string]*Params)

// Register adds chain params to the registry.
func Register(params *Params) {
	registry[params.Symbol] = params
}

// Get returns chain params for a symbol.
func Get(symbol string) (*Params, bool) {
	params, ok := registry[symbol]
	return params, ok
}

// List returns all registered chain symbols.
func List() []string {
	symbols := make([]string, 0, len(registry))
	for symbol := range registry {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// IsSupported returns true if the chain is registered.
func IsSupported(symbol string) bool {
	_, ok := registry[symbol]
	return ok
}

// ListByKind returns all chains of a specific kind.
func ListByKind(kind Kind) []string {
	var symbols []string
	for symbol, params := range registry {
		if params.Kind == kind {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}
