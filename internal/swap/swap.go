// Package swap quotes and executes cross-currency swaps. Same-chain EVM
// token pairs route to the DEX provider, everything else to the bridge
// provider, and shielded-pool currencies to the shield adapter.
package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/prices"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/logging"
)

// Swap errors
var (
	// ErrQuoteProvider means no provider could produce a quote at all,
	// including every fallback rung.
	ErrQuoteProvider = errors.New("quote provider failed")

	// ErrSwapExecution means the quote was fine but execution failed.
	ErrSwapExecution = errors.New("swap execution failed")

	// ErrShieldedExecutionUnsupported means the shielded path can quote
	// but cannot yet execute.
	ErrShieldedExecutionUnsupported = errors.New("shielded swap execution not yet available")
)

// Currency identifies one side of a swap.
type Currency struct {
	Symbol   string `json:"symbol"`
	Chain    string `json:"chain"`
	Contract string `json:"contract,omitempty"` // ERC-20 contract, empty for native
}

// IsToken reports whether the currency is a contract token.
func (c Currency) IsToken() bool { return c.Contract != "" }

// Rate sources, in fallback order.
const (
	RateSourceLive   = "live"   // provider API answered
	RateSourceMarket = "market" // derived from oracle prices
	RateSourceParity = "parity" // 1:1 last resort
)

// QuoteRequest asks for a swap quote.
type QuoteRequest struct {
	From        Currency
	To          Currency
	AmountIn    decimal.Decimal
	Destination string // receive address on the to-chain
	Refund      string // refund address on the from-chain
}

// Quote is a priced swap offer.
type Quote struct {
	Provider    string          `json:"provider"`
	From        Currency        `json:"from"`
	To          Currency        `json:"to"`
	AmountIn    decimal.Decimal `json:"amountIn"`
	AmountOut   decimal.Decimal `json:"amountOut"`
	Fee         decimal.Decimal `json:"fee"`
	BuilderFee  decimal.Decimal `json:"builderFee"` // DEX path only, zero elsewhere
	FeeCurrency string          `json:"feeCurrency"`
	Rate        decimal.Decimal `json:"rate"` // to-units per from-unit, before fees
	RateSource  string          `json:"rateSource"`
}

// Order is a created swap awaiting a deposit.
type Order struct {
	ID             string          `json:"id"`
	Provider       string          `json:"provider"`
	From           Currency        `json:"from"`
	To             Currency        `json:"to"`
	AmountIn       decimal.Decimal `json:"amountIn"`
	AmountOut      decimal.Decimal `json:"amountOut"`
	DepositAddress string          `json:"depositAddress"`
	Destination    string          `json:"destination"`
	Warning        string          `json:"warning,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// provider is the common surface of the dex and bridge providers.
type provider interface {
	Name() string
	GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error)
	CreateSwap(ctx context.Context, quote *Quote, req QuoteRequest) (*Order, error)
}

// Engine routes swap requests to the right provider.
type Engine struct {
	dex    provider
	bridge provider
	shield *ShieldAdapter
	log    *logging.Logger
}

// NewEngine wires the providers from config.
func NewEngine(cfg config.SwapConfig, oracle *prices.Oracle, log *logging.Logger) *Engine {
	return &Engine{
		dex:    newDexProvider(cfg, oracle, log),
		bridge: newBridgeProvider(cfg, oracle, log),
		shield: NewShieldAdapter(cfg, oracle, log),
		log:    log.Component("swap"),
	}
}

// GetQuote prices a swap. The wallet record is needed only for shielded
// pairs, which require a mnemonic.
func (e *Engine) GetQuote(ctx context.Context, rec *wallet.Record, req QuoteRequest) (*Quote, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if e.isShielded(req) {
		return e.shield.GetQuote(ctx, rec, req)
	}
	return e.route(req).GetQuote(ctx, req)
}

// CreateSwap executes a previously obtained quote.
func (e *Engine) CreateSwap(ctx context.Context, rec *wallet.Record, quote *Quote, req QuoteRequest) (*Order, error) {
	if quote == nil {
		return nil, fmt.Errorf("%w: nil quote", ErrSwapExecution)
	}

	if e.isShielded(req) {
		return e.shield.CreateSwap(ctx, rec, quote, req)
	}
	return e.route(req).CreateSwap(ctx, quote, req)
}

// route picks the provider: same-chain EVM pairs with at least one token
// side go through the DEX, everything else bridges.
func (e *Engine) route(req QuoteRequest) provider {
	if req.From.Chain == req.To.Chain && (req.From.IsToken() || req.To.IsToken()) {
		if params, ok := chain.Get(req.From.Chain); ok && params.Kind == chain.KindEVM {
			return e.dex
		}
	}
	return e.bridge
}

func (e *Engine) isShielded(req QuoteRequest) bool {
	return ClassifyZcashAddress(req.Destination) == AddressShielded ||
		ClassifyZcashAddress(req.Refund) == AddressShielded
}

func validateRequest(req QuoteRequest) error {
	if req.AmountIn.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrQuoteProvider)
	}
	if req.From.Symbol == "" || req.To.Symbol == "" {
		return fmt.Errorf("%w: both currencies required", ErrQuoteProvider)
	}
	if req.From.Symbol == req.To.Symbol && req.From.Contract == req.To.Contract && req.From.Chain == req.To.Chain {
		return fmt.Errorf("%w: cannot swap a currency for itself", ErrQuoteProvider)
	}
	return nil
}

func newOrderID() string { return uuid.NewString() }

// bpsFee returns amount * bps/10000.
func bpsFee(amount decimal.Decimal, bps int64) decimal.Decimal {
	return amount.Mul(decimal.New(bps, -4))
}
