package swap

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/prices"
	"github.com/prism-wallet/prism/pkg/logging"
)

// defaultRouterAddress is where the swap router will live once deployed.
// Until then quotes are priced off the oracle and execution refuses.
const defaultRouterAddress = "0x0000000000000000000000000000000000000000"

// dexProvider serves same-chain EVM token pairs. The builder fee comes out
// of the output amount.
type dexProvider struct {
	routerURL string
	feeBps    int64
	oracle    *prices.Oracle
	log       *logging.Logger
}

func newDexProvider(cfg config.SwapConfig, oracle *prices.Oracle, log *logging.Logger) *dexProvider {
	return &dexProvider{
		routerURL: cfg.DexRouterURL,
		feeBps:    cfg.BuilderFeeBps,
		oracle:    oracle,
		log:       log.Component("swap-dex"),
	}
}

func (d *dexProvider) Name() string { return "dex" }

// GetQuote prices the pair from the oracle, falling back to parity when
// either side is unpriced. The builder fee is deducted from the output.
func (d *dexProvider) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	rate := d.oracle.Ratio(ctx, req.From.Symbol, req.To.Symbol)
	source := RateSourceMarket
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
		source = RateSourceParity
		d.log.Warn("no market price for pair, quoting at parity",
			"from", req.From.Symbol, "to", req.To.Symbol)
	}

	gross := req.AmountIn.Mul(rate)
	builderFee := bpsFee(gross, d.feeBps)

	// The builder fee is the only charge on this path; the fee field
	// proper stays zero.
	return &Quote{
		Provider:    d.Name(),
		From:        req.From,
		To:          req.To,
		AmountIn:    req.AmountIn,
		AmountOut:   gross.Sub(builderFee),
		Fee:         decimal.Zero,
		BuilderFee:  builderFee,
		FeeCurrency: req.To.Symbol,
		Rate:        rate,
		RateSource:  source,
	}, nil
}

// CreateSwap fails until the router contract is deployed. The quote path
// stays live so the UI can show prices in the meantime.
func (d *dexProvider) CreateSwap(_ context.Context, _ *Quote, _ QuoteRequest) (*Order, error) {
	return nil, fmt.Errorf("%w: swap router not deployed at %s", ErrSwapExecution, defaultRouterAddress)
}
