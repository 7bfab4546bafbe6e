package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8777" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if len(cfg.Networks) != 5 {
		t.Errorf("default networks = %d, want 5", len(cfg.Networks))
	}
	if cfg.Loader.Timeout != 60*time.Second || cfg.Loader.PrivacyTimeout != 120*time.Second {
		t.Errorf("loader timeouts = %v / %v", cfg.Loader.Timeout, cfg.Loader.PrivacyTimeout)
	}
	if cfg.Swap.BuilderFeeBps != 100 || cfg.Swap.ShieldFeeBps != 10 {
		t.Errorf("swap fees = %d / %d bps", cfg.Swap.BuilderFeeBps, cfg.Swap.ShieldFeeBps)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: "0.0.0.0:9000"
log_level: debug
loader:
  balance_ttl: 1m
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Loader.BalanceTTL != time.Minute {
		t.Errorf("BalanceTTL = %v", cfg.Loader.BalanceTTL)
	}
	// Untouched sections keep their defaults.
	if cfg.Swap.PlatformFeeBps != 100 {
		t.Errorf("PlatformFeeBps = %d", cfg.Swap.PlatformFeeBps)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"empty listen", func(c *Config) { c.Listen = "" }, true},
		{"unknown chain", func(c *Config) { c.Networks[0].Chain = "DOGE" }, true},
		{"duplicate chain", func(c *Config) { c.Networks[1].Chain = c.Networks[0].Chain }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFillsSymbol(t *testing.T) {
	cfg := Default()
	cfg.Networks[0].Symbol = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Networks[0].Symbol != cfg.Networks[0].Chain {
		t.Errorf("Symbol not defaulted: %q", cfg.Networks[0].Symbol)
	}
}

func TestEnabledNetworks(t *testing.T) {
	cfg := Default()
	cfg.Networks[2].Enabled = false
	if got := len(cfg.EnabledNetworks()); got != 4 {
		t.Errorf("enabled = %d, want 4", got)
	}
}

func TestNetworkLookup(t *testing.T) {
	cfg := Default()
	if n, ok := cfg.Network("BTC"); !ok || n.Name != "Bitcoin" {
		t.Errorf("Network(BTC) = %+v, %v", n, ok)
	}
	if _, ok := cfg.Network("DOGE"); ok {
		t.Error("unknown chain should not resolve")
	}
}
