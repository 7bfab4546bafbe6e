// Package prices provides USD market prices with a hardcoded fallback for
// the major assets, so fee math and swap quoting keep working when the
// oracle is down.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/pkg/logging"
)

// coingeckoIDs maps our symbols to the oracle's asset ids.
var coingeckoIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"XMR":  "monero",
	"ZEC":  "zcash",
	"USDT": "tether",
	"USDC": "usd-coin",
}

// fallbackPrices are rough reference prices for the majors. They only feed
// ratio math when the oracle is unreachable; an unmapped symbol prices at
// zero rather than guessing.
var fallbackPrices = map[string]decimal.Decimal{
	"BTC":  decimal.NewFromInt(60000),
	"ETH":  decimal.NewFromInt(3000),
	"SOL":  decimal.NewFromInt(150),
	"XMR":  decimal.NewFromInt(160),
	"ZEC":  decimal.NewFromInt(40),
	"USDT": decimal.NewFromInt(1),
	"USDC": decimal.NewFromInt(1),
}

type cachedPrice struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// Oracle fetches and caches USD prices.
type Oracle struct {
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration
	log        *logging.Logger

	mu    sync.Mutex
	cache map[string]cachedPrice
}

// NewOracle creates a price oracle from config.
func NewOracle(cfg config.PriceConfig, log *logging.Logger) *Oracle {
	return &Oracle{
		baseURL:    strings.TrimSuffix(cfg.OracleURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cacheTTL:   cfg.CacheTTL,
		log:        log.Component("prices"),
		cache:      make(map[string]cachedPrice),
	}
}

// USD returns the USD price of a symbol. Falls back to the hardcoded table
// when the oracle fails, and to zero when the symbol is unmapped.
func (o *Oracle) USD(ctx context.Context, symbol string) decimal.Decimal {
	symbol = strings.ToUpper(symbol)

	o.mu.Lock()
	if entry, ok := o.cache[symbol]; ok && time.Since(entry.fetchedAt) < o.cacheTTL {
		o.mu.Unlock()
		return entry.price
	}
	o.mu.Unlock()

	price, err := o.fetch(ctx, symbol)
	if err != nil {
		o.log.Warn("oracle fetch failed, using fallback", "symbol", symbol, "error", err)
		return fallbackPrices[symbol] // zero value for unmapped symbols
	}

	o.mu.Lock()
	o.cache[symbol] = cachedPrice{price: price, fetchedAt: time.Now()}
	o.mu.Unlock()
	return price
}

// Ratio returns how many units of `to` one unit of `from` is worth.
// Returns zero when either side prices at zero.
func (o *Oracle) Ratio(ctx context.Context, from, to string) decimal.Decimal {
	fromUSD := o.USD(ctx, from)
	toUSD := o.USD(ctx, to)
	if fromUSD.IsZero() || toUSD.IsZero() {
		return decimal.Zero
	}
	return fromUSD.Div(toUSD)
}

func (o *Oracle) fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	id, ok := coingeckoIDs[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no oracle id for %s", symbol)
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", o.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("oracle status %d", resp.StatusCode)
	}

	var body map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}

	price, ok := body[id]["usd"]
	if !ok || price.IsZero() {
		return decimal.Zero, fmt.Errorf("oracle returned no usd price for %s", symbol)
	}
	return price, nil
}
