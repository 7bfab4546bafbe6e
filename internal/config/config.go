// Package config loads daemon configuration from a YAML file with sane
// defaults for every field. A missing config file is not an error; the
// daemon runs on defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prism-wallet/prism/internal/chain"
)

// Config is the root daemon configuration.
type Config struct {
	Listen   string         `yaml:"listen"`    // HTTP API listen address
	DataDir  string         `yaml:"data_dir"`  // wallet store and cache location
	LogLevel string         `yaml:"log_level"` // debug, info, warn, error
	Networks []Network      `yaml:"networks"`
	Swap     SwapConfig     `yaml:"swap"`
	Prices   PriceConfig    `yaml:"prices"`
	Loader   LoaderConfig   `yaml:"loader"`
	Discover DiscoverConfig `yaml:"discovery"`
}

// Network configures one chain. Services receive a snapshot of this struct
// at build time; later edits only take effect on the next build.
type Network struct {
	Chain   string            `yaml:"chain"` // BTC, ETH, SOL, XMR, ZEC
	Enabled bool              `yaml:"enabled"`
	Name    string            `yaml:"name"`
	Symbol  string            `yaml:"symbol"`
	RPCURL  string            `yaml:"rpc_url"`
	ChainID uint64            `yaml:"chain_id"`
	Custom  map[string]string `yaml:"custom"` // chain-specific extras (wallet RPC creds etc.)
}

// SwapConfig configures the swap engine's upstream providers.
type SwapConfig struct {
	DexRouterURL   string        `yaml:"dex_router_url"`
	BridgeURL      string        `yaml:"bridge_url"`
	BridgeAPIKey   string        `yaml:"bridge_api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	BuilderFeeBps  int64         `yaml:"builder_fee_bps"`  // DEX builder fee, basis points
	PlatformFeeBps int64         `yaml:"platform_fee_bps"` // bridge platform fee, basis points
	ShieldFeeBps   int64         `yaml:"shield_fee_bps"`   // shielded swap fee, basis points
}

// PriceConfig configures the market price oracle.
type PriceConfig struct {
	OracleURL string        `yaml:"oracle_url"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// LoaderConfig bounds the wallet data fan-out.
type LoaderConfig struct {
	Timeout        time.Duration `yaml:"timeout"`         // umbrella timeout, no privacy chains
	PrivacyTimeout time.Duration `yaml:"privacy_timeout"` // umbrella timeout with a privacy chain enabled
	BalanceTTL     time.Duration `yaml:"balance_ttl"`
}

// DiscoverConfig bounds token discovery.
type DiscoverConfig struct {
	ScanTimeout  time.Duration `yaml:"scan_timeout"`  // event log scan
	ProbeTimeout time.Duration `yaml:"probe_timeout"` // per known-token balance probe
	ScanBlocks   uint64        `yaml:"scan_blocks"`   // block window for the log scan
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Listen:   "127.0.0.1:8777",
		DataDir:  filepath.Join(home, ".prism"),
		LogLevel: "info",
		Networks: []Network{
			{Chain: "BTC", Enabled: true, Name: "Bitcoin", Symbol: "BTC", RPCURL: "https://mempool.space/api"},
			{Chain: "ETH", Enabled: true, Name: "Ethereum", Symbol: "ETH", RPCURL: "https://eth.llamarpc.com", ChainID: 1},
			{Chain: "SOL", Enabled: true, Name: "Solana", Symbol: "SOL", RPCURL: "https://api.mainnet-beta.solana.com"},
			{Chain: "XMR", Enabled: true, Name: "Monero", Symbol: "XMR", RPCURL: "http://127.0.0.1:18083/json_rpc"},
			{Chain: "ZEC", Enabled: true, Name: "Zcash", Symbol: "ZEC", RPCURL: "http://127.0.0.1:8232"},
		},
		Swap: SwapConfig{
			BridgeURL:      "https://api.swapspace.co/api/v2",
			Timeout:        30 * time.Second,
			BuilderFeeBps:  100, // 1%
			PlatformFeeBps: 100, // 1%
			ShieldFeeBps:   10,  // 0.1%
		},
		Prices: PriceConfig{
			OracleURL: "https://api.coingecko.com/api/v3",
			Timeout:   10 * time.Second,
			CacheTTL:  time.Minute,
		},
		Loader: LoaderConfig{
			Timeout:        60 * time.Second,
			PrivacyTimeout: 120 * time.Second,
			BalanceTTL:     5 * time.Minute,
		},
		Discover: DiscoverConfig{
			ScanTimeout:  30 * time.Second,
			ProbeTimeout: 5 * time.Second,
			ScanBlocks:   10000,
		},
	}
}

// Load reads configuration from path, overlaying defaults. A missing file
// returns defaults without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	seen := make(map[string]bool)
	for i := range c.Networks {
		n := &c.Networks[i]
		if !chain.IsSupported(n.Chain) {
			return fmt.Errorf("unsupported chain %q in networks[%d]", n.Chain, i)
		}
		if seen[n.Chain] {
			return fmt.Errorf("duplicate chain %q in networks", n.Chain)
		}
		seen[n.Chain] = true
		if n.Symbol == "" {
			n.Symbol = n.Chain
		}
	}
	return nil
}

// EnabledNetworks returns the enabled network configs in declaration order.
func (c *Config) EnabledNetworks() []Network {
	var out []Network
	for _, n := range c.Networks {
		if n.Enabled {
			out = append(out, n)
		}
	}
	return out
}

// Network returns the network config for a chain symbol.
func (c *Config) Network(chainSym string) (Network, bool) {
	for _, n := range c.Networks {
		if n.Chain == chainSym {
			return n, true
		}
	}
	return Network{}, false
}
