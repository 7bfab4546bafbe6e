package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/prices"
	"github.com/prism-wallet/prism/pkg/logging"
)

// bridgeProvider swaps across chains through an external bridge API. The
// platform fee is deducted from the output, but reported to the caller in
// from-currency terms (1% of the input) since that is what the user pays.
type bridgeProvider struct {
	baseURL    string
	apiKey     string
	feeBps     int64
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	oracle     *prices.Oracle
	log        *logging.Logger
}

func newBridgeProvider(cfg config.SwapConfig, oracle *prices.Oracle, log *logging.Logger) *bridgeProvider {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "bridge-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &bridgeProvider{
		baseURL:    strings.TrimSuffix(cfg.BridgeURL, "/"),
		apiKey:     cfg.BridgeAPIKey,
		feeBps:     cfg.PlatformFeeBps,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		oracle:     oracle,
		log:        log.Component("swap-bridge"),
	}
}

func (b *bridgeProvider) Name() string { return "bridge" }

// GetQuote walks the fallback ladder: the live API first, then a rate
// derived from oracle prices, then 1:1 parity. Fees apply at every rung so
// a degraded quote is never cheaper than a live one.
func (b *bridgeProvider) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	rate, err := b.liveRate(ctx, req)
	source := RateSourceLive
	if err != nil {
		b.log.Warn("live quote failed, falling back to market price", "error", err)
		rate = b.oracle.Ratio(ctx, req.From.Symbol, req.To.Symbol)
		source = RateSourceMarket
	}
	if rate.IsZero() {
		b.log.Warn("no market price for pair, quoting at parity",
			"from", req.From.Symbol, "to", req.To.Symbol)
		rate = decimal.NewFromInt(1)
		source = RateSourceParity
	}

	gross := req.AmountIn.Mul(rate)
	outputFee := bpsFee(gross, b.feeBps)

	return &Quote{
		Provider:    b.Name(),
		From:        req.From,
		To:          req.To,
		AmountIn:    req.AmountIn,
		AmountOut:   gross.Sub(outputFee),
		Fee:         bpsFee(req.AmountIn, b.feeBps),
		FeeCurrency: req.From.Symbol,
		Rate:        rate,
		RateSource:  source,
	}, nil
}

// liveRate asks the bridge API for an estimated output and converts it to
// a per-unit rate.
func (b *bridgeProvider) liveRate(ctx context.Context, req QuoteRequest) (decimal.Decimal, error) {
	payload := map[string]interface{}{
		"fromCurrency": strings.ToLower(req.From.Symbol),
		"toCurrency":   strings.ToLower(req.To.Symbol),
		"fromNetwork":  strings.ToLower(req.From.Chain),
		"toNetwork":    strings.ToLower(req.To.Chain),
		"amount":       req.AmountIn.String(),
	}

	body, err := b.post(ctx, "/quote", payload)
	if err != nil {
		return decimal.Zero, err
	}

	estimated, ok := extractAmount(body)
	if !ok {
		return decimal.Zero, fmt.Errorf("no amount in quote response")
	}
	if estimated.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("non-positive estimate %s", estimated)
	}
	return estimated.Div(req.AmountIn), nil
}

// CreateSwap registers the swap with the bridge and returns the deposit
// order. A response without a deposit address falls back to the destination
// address with a warning instead of failing the swap.
func (b *bridgeProvider) CreateSwap(ctx context.Context, quote *Quote, req QuoteRequest) (*Order, error) {
	payload := map[string]interface{}{
		"fromCurrency": strings.ToLower(req.From.Symbol),
		"toCurrency":   strings.ToLower(req.To.Symbol),
		"fromNetwork":  strings.ToLower(req.From.Chain),
		"toNetwork":    strings.ToLower(req.To.Chain),
		"amount":       quote.AmountIn.String(),
		"address":      req.Destination,
		"refund":       req.Refund,
	}

	body, err := b.post(ctx, "/exchange", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSwapExecution, err)
	}

	order := &Order{
		ID:          newOrderID(),
		Provider:    b.Name(),
		From:        quote.From,
		To:          quote.To,
		AmountIn:    quote.AmountIn,
		AmountOut:   quote.AmountOut,
		Destination: req.Destination,
		CreatedAt:   time.Now().UTC(),
	}

	if id, ok := extractString(body, "id", "orderId", "exchangeId"); ok {
		order.ID = id
	}
	if deposit, ok := extractString(body, "depositAddress", "payinAddress", "addressFrom"); ok && deposit != "" {
		order.DepositAddress = deposit
	} else {
		order.DepositAddress = req.Destination
		order.Warning = "provider returned no deposit address; using destination address"
		b.log.Warn("deposit address missing from provider response", "order", order.ID)
	}

	return order, nil
}

func (b *bridgeProvider) post(ctx context.Context, path string, payload interface{}) (map[string]json.RawMessage, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if b.apiKey != "" {
			req.Header.Set("Authorization", b.apiKey)
		}

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("bridge status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}

		var body map[string]json.RawMessage
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("unparseable bridge response: %w", err)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]json.RawMessage), nil
}

// amountKeys are the field names bridge APIs use for the estimated output,
// tried in order.
var amountKeys = []string{"toAmount", "amountOut", "estimatedAmount", "amount", "value"}

// nestKeys are envelope fields that may wrap the real payload.
var nestKeys = []string{"result", "data", "estimate"}

// extractAmount digs an output amount out of whatever shape the provider
// chose to answer with. Amounts arrive as JSON numbers or strings.
func extractAmount(body map[string]json.RawMessage) (decimal.Decimal, bool) {
	for _, key := range amountKeys {
		if raw, ok := body[key]; ok {
			if amount, ok := parseDecimal(raw); ok {
				return amount, true
			}
		}
	}
	for _, key := range nestKeys {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			if amount, ok := extractAmount(nested); ok {
				return amount, true
			}
		}
		// Some providers put the bare amount directly under the envelope.
		if amount, ok := parseDecimal(raw); ok {
			return amount, true
		}
	}
	return decimal.Zero, false
}

func extractString(body map[string]json.RawMessage, keys ...string) (string, bool) {
	for _, key := range keys {
		if raw, ok := body[key]; ok {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s != "" {
				return s, true
			}
		}
	}
	for _, nest := range nestKeys {
		raw, ok := body[nest]
		if !ok {
			continue
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			if s, ok := extractString(nested, keys...); ok {
				return s, true
			}
		}
	}
	return "", false
}

func parseDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if d, err := decimal.NewFromString(asString); err == nil {
			return d, true
		}
		return decimal.Zero, false
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return decimal.NewFromFloat(asNumber), true
	}
	return decimal.Zero, false
}
