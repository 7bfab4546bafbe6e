package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/chainsvc"
	"github.com/prism-wallet/prism/internal/swap"
	"github.com/prism-wallet/prism/internal/wallet"
)

// walletInfo is the wire form of a wallet; secrets never leave the daemon.
type walletInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HasMnemonic bool   `json:"hasMnemonic"`
	CreatedAt   int64  `json:"createdAt"`
}

func toWalletInfo(rec *wallet.Record) walletInfo {
	return walletInfo{
		ID:          rec.ID,
		Name:        rec.Name,
		HasMnemonic: rec.HasMnemonic(),
		CreatedAt:   rec.CreatedAt.Unix(),
	}
}

func (s *Server) walletGenerate(_ context.Context, _ json.RawMessage) (interface{}, error) {
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		return nil, err
	}
	return map[string]string{"mnemonic": mnemonic}, nil
}

func (s *Server) walletCreate(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Name       string `json:"name"`
		Mnemonic   string `json:"mnemonic"`
		PrivateKey string `json:"privateKey"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("wallet name required")
	}
	if p.Mnemonic == "" && p.PrivateKey == "" {
		return nil, wallet.ErrNoCredentials
	}
	if p.Mnemonic != "" && !wallet.ValidateMnemonic(p.Mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	rec := wallet.NewRecord(p.Name, p.Mnemonic, p.PrivateKey)
	if err := s.store.SaveWallet(rec); err != nil {
		return nil, err
	}
	s.cache.Warm(rec.ID)
	return toWalletInfo(rec), nil
}

func (s *Server) walletList(_ context.Context, _ json.RawMessage) (interface{}, error) {
	records, err := s.store.ListWallets()
	if err != nil {
		return nil, err
	}
	infos := make([]walletInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, toWalletInfo(rec))
	}
	return infos, nil
}

func (s *Server) walletDelete(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := s.store.DeleteWallet(p.ID); err != nil {
		return nil, err
	}
	s.manager.Drop(p.ID)
	s.cache.DropWallet(p.ID)
	return map[string]bool{"deleted": true}, nil
}

func (s *Server) walletLoad(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	rec, err := s.store.GetWallet(p.ID)
	if err != nil {
		return nil, err
	}
	return s.loader.Load(ctx, rec)
}

func (s *Server) walletGetAddress(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID    string `json:"id"`
		Chain string `json:"chain"`
		Index uint32 `json:"index"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	if addr, ok := s.cache.GetAddress(p.ID, p.Chain, p.Index); ok {
		return map[string]string{"address": addr}, nil
	}

	svc, rec, err := s.serviceFor(p.ID, p.Chain)
	if err != nil {
		return nil, err
	}
	addr, err := svc.GetAddress(ctx, p.Index)
	if err != nil {
		return nil, err
	}
	if chain.UsableAddress(addr) {
		s.cache.SetAddress(rec.ID, p.Chain, p.Index, addr)
	}
	return map[string]string{"address": addr}, nil
}

func (s *Server) walletGetAddresses(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	return s.cache.PrimaryAddresses(p.ID), nil
}

func (s *Server) walletGetBalance(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID      string `json:"id"`
		Chain   string `json:"chain"`
		Refresh bool   `json:"refresh"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	if !p.Refresh {
		if balance, ok := s.cache.GetBalance(p.ID, p.Chain); ok {
			return map[string]interface{}{"balance": balance, "cached": true}, nil
		}
	}

	svc, rec, err := s.serviceFor(p.ID, p.Chain)
	if err != nil {
		return nil, err
	}
	balance, err := svc.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetBalance(rec.ID, p.Chain, balance)
	return map[string]interface{}{"balance": balance, "cached": false}, nil
}

func (s *Server) walletSend(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID     string `json:"id"`
		Chain  string `json:"chain"`
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	svc, _, err := s.serviceFor(p.ID, p.Chain)
	if err != nil {
		return nil, err
	}
	txid, err := svc.SendTransaction(ctx, p.To, p.Amount)
	if err != nil {
		return nil, err
	}
	return map[string]string{"txid": txid}, nil
}

func (s *Server) walletValidateMnemonic(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Mnemonic string `json:"mnemonic"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	return map[string]bool{"valid": wallet.ValidateMnemonic(p.Mnemonic)}, nil
}

func (s *Server) walletSetActive(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := s.store.SetActiveWallet(p.ID); err != nil {
		return nil, err
	}
	// Statuses belong to the previous wallet's services; the next load
	// repopulates them.
	s.agg.ClearAll()
	return map[string]bool{"active": true}, nil
}

func (s *Server) walletGetActive(_ context.Context, _ json.RawMessage) (interface{}, error) {
	rec, err := s.store.GetActiveWallet()
	if err != nil {
		return nil, err
	}
	return toWalletInfo(rec), nil
}

func (s *Server) chainsList(_ context.Context, _ json.RawMessage) (interface{}, error) {
	type chainInfo struct {
		Symbol   string `json:"symbol"`
		Name     string `json:"name"`
		Kind     string `json:"kind"`
		Decimals uint8  `json:"decimals"`
	}
	var out []chainInfo
	for _, sym := range s.manager.Chains() {
		if params, ok := chain.Get(sym); ok {
			out = append(out, chainInfo{
				Symbol:   params.Symbol,
				Name:     params.Name,
				Kind:     string(params.Kind),
				Decimals: params.Decimals,
			})
		}
	}
	return out, nil
}

func (s *Server) statusGet(_ context.Context, _ json.RawMessage) (interface{}, error) {
	snapshot := s.agg.Current()
	return map[string]interface{}{
		"overall": snapshot.Overall,
		"chains":  snapshot.Chains,
	}, nil
}

func (s *Server) tokensDiscover(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID                 string `json:"id"`
		IncludeZeroBalance bool   `json:"includeZeroBalance"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if s.discover == nil {
		return nil, fmt.Errorf("no EVM chain enabled")
	}

	svc, _, err := s.serviceFor(p.ID, "ETH")
	if err != nil {
		return nil, err
	}
	owner, err := svc.GetAddress(ctx, 0)
	if err != nil {
		return nil, err
	}
	return s.discover.Discover(ctx, owner, p.IncludeZeroBalance), nil
}

type swapParams struct {
	WalletID    string        `json:"walletId"`
	From        swap.Currency `json:"from"`
	To          swap.Currency `json:"to"`
	AmountIn    string        `json:"amountIn"`
	Destination string        `json:"destination"`
	Refund      string        `json:"refund"`
}

func (s *Server) swapRequest(p swapParams) (*wallet.Record, swap.QuoteRequest, error) {
	rec, err := s.store.GetWallet(p.WalletID)
	if err != nil {
		return nil, swap.QuoteRequest{}, err
	}
	amount, err := decimal.NewFromString(p.AmountIn)
	if err != nil {
		return nil, swap.QuoteRequest{}, fmt.Errorf("invalid amount: %w", err)
	}
	return rec, swap.QuoteRequest{
		From:        p.From,
		To:          p.To,
		AmountIn:    amount,
		Destination: p.Destination,
		Refund:      p.Refund,
	}, nil
}

func (s *Server) swapQuote(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p swapParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	rec, req, err := s.swapRequest(p)
	if err != nil {
		return nil, err
	}
	return s.engine.GetQuote(ctx, rec, req)
}

func (s *Server) swapCreate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p swapParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	rec, req, err := s.swapRequest(p)
	if err != nil {
		return nil, err
	}

	quote, err := s.engine.GetQuote(ctx, rec, req)
	if err != nil {
		return nil, err
	}
	return s.engine.CreateSwap(ctx, rec, quote, req)
}

// serviceFor resolves the chain service for a stored wallet.
func (s *Server) serviceFor(walletID, chainSym string) (chainsvc.Service, *wallet.Record, error) {
	rec, err := s.store.GetWallet(walletID)
	if err != nil {
		return nil, nil, err
	}
	services, err := s.manager.Build(rec)
	if err != nil {
		return nil, nil, err
	}
	svc, ok := services[chainSym]
	if !ok {
		return nil, nil, fmt.Errorf("chain %s not enabled", chainSym)
	}
	return svc, rec, nil
}
