package prices

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{Level: "fatal"})
}

func newOracle(url string) *Oracle {
	return NewOracle(config.PriceConfig{
		OracleURL: url,
		Timeout:   time.Second,
		CacheTTL:  time.Minute,
	}, testLogger())
}

func TestUSDFromOracle(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"bitcoin":{"usd":64250.5}}`)
	}))
	defer srv.Close()

	o := newOracle(srv.URL)
	price := o.USD(context.Background(), "BTC")
	if !price.Equal(decimal.NewFromFloat(64250.5)) {
		t.Errorf("price = %s, want 64250.5", price)
	}

	// Second read comes from the cache.
	o.USD(context.Background(), "BTC")
	if calls != 1 {
		t.Errorf("oracle called %d times, want 1", calls)
	}
}

func TestUSDFallbackWhenOracleDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := newOracle(srv.URL)
	price := o.USD(context.Background(), "BTC")
	if !price.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("fallback price = %s, want 60000", price)
	}
}

func TestUSDUnmappedSymbolIsZero(t *testing.T) {
	o := newOracle("http://127.0.0.1:0")
	if price := o.USD(context.Background(), "SHIB"); !price.IsZero() {
		t.Errorf("unmapped symbol price = %s, want 0", price)
	}
}

func TestRatio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := newOracle(srv.URL)

	// Fallback table: BTC 60000, ETH 3000 -> 20 ETH per BTC.
	ratio := o.Ratio(context.Background(), "BTC", "ETH")
	if !ratio.Equal(decimal.NewFromInt(20)) {
		t.Errorf("ratio = %s, want 20", ratio)
	}

	if r := o.Ratio(context.Background(), "BTC", "SHIB"); !r.IsZero() {
		t.Errorf("ratio against unpriced symbol = %s, want 0", r)
	}
}
