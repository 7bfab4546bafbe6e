package swap

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/prices"
	"github.com/prism-wallet/prism/internal/wallet"
	"github.com/prism-wallet/prism/pkg/logging"
)

// AddressClass buckets Zcash addresses by pool.
type AddressClass int

const (
	AddressUnknown AddressClass = iota
	AddressTransparent
	AddressShielded
)

// ClassifyZcashAddress classifies by prefix: t1/t3 are transparent, zs and
// zc are Sapling and Sprout shielded, u is unified (treated as shielded
// since it may contain a shielded receiver).
func ClassifyZcashAddress(addr string) AddressClass {
	switch {
	case strings.HasPrefix(addr, "t1"), strings.HasPrefix(addr, "t3"):
		return AddressTransparent
	case strings.HasPrefix(addr, "zs"), strings.HasPrefix(addr, "zc"):
		return AddressShielded
	case strings.HasPrefix(addr, "u1"):
		return AddressShielded
	default:
		return AddressUnknown
	}
}

// ShieldAdapter quotes swaps in and out of shielded pools. Quoting works so
// users can see pricing; execution is not wired to a shielded-capable
// backend yet and always refuses.
type ShieldAdapter struct {
	feeBps int64
	oracle *prices.Oracle
	log    *logging.Logger
}

// NewShieldAdapter creates the shielded swap adapter.
func NewShieldAdapter(cfg config.SwapConfig, oracle *prices.Oracle, log *logging.Logger) *ShieldAdapter {
	return &ShieldAdapter{
		feeBps: cfg.ShieldFeeBps,
		oracle: oracle,
		log:    log.Component("swap-shield"),
	}
}

// GetQuote prices a shielded swap at the reduced shield fee. A mnemonic is
// required up front: shielded spends cannot be built from a raw key, and
// failing at quote time beats failing after the user commits.
func (s *ShieldAdapter) GetQuote(ctx context.Context, rec *wallet.Record, req QuoteRequest) (*Quote, error) {
	if _, err := rec.RequireMnemonic(); err != nil {
		return nil, err
	}

	rate := s.oracle.Ratio(ctx, req.From.Symbol, req.To.Symbol)
	source := RateSourceMarket
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
		source = RateSourceParity
	}

	gross := req.AmountIn.Mul(rate)
	fee := bpsFee(gross, s.feeBps)

	return &Quote{
		Provider:    "shield",
		From:        req.From,
		To:          req.To,
		AmountIn:    req.AmountIn,
		AmountOut:   gross.Sub(fee),
		Fee:         fee,
		FeeCurrency: req.To.Symbol,
		Rate:        rate,
		RateSource:  source,
	}, nil
}

// CreateSwap always refuses. The mnemonic check still runs first so the
// caller learns about missing credentials before the capability gap.
func (s *ShieldAdapter) CreateSwap(_ context.Context, rec *wallet.Record, _ *Quote, _ QuoteRequest) (*Order, error) {
	if _, err := rec.RequireMnemonic(); err != nil {
		return nil, err
	}
	return nil, ErrShieldedExecutionUnsupported
}
