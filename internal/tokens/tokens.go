// Package tokens discovers ERC-20 holdings for an EVM address. Discovery
// combines a bounded event-log scan with balance probes of well-known
// tokens; the native asset is always reported even when every RPC call
// fails.
package tokens

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/pkg/helpers"
	"github.com/prism-wallet/prism/pkg/logging"
)

// transferTopic is keccak256("Transfer(address,address,uint256)").
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// Asset is one discovered holding.
type Asset struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Contract string `json:"contract,omitempty"` // empty for the native asset
	Balance  string `json:"balance"`
	Decimals uint8  `json:"decimals"`
	Native   bool   `json:"native"`
}

// evmReader is the subset of ethclient used during discovery.
type evmReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Discoverer scans one EVM chain for token holdings.
type Discoverer struct {
	client evmReader
	params *chain.Params
	cfg    config.DiscoverConfig
	log    *logging.Logger
}

// NewDiscoverer creates a discoverer over an EVM client.
func NewDiscoverer(client evmReader, params *chain.Params, cfg config.DiscoverConfig, log *logging.Logger) *Discoverer {
	return &Discoverer{
		client: client,
		params: params,
		cfg:    cfg,
		log:    log.Component("tokens"),
	}
}

// Discover returns the asset list for owner. The native asset leads the
// list and is always present; a failed native balance fetch degrades to
// "0.00" instead of dropping the row. Token contracts are deduplicated
// case-insensitively, log-scan results winning over probe results.
func (d *Discoverer) Discover(ctx context.Context, owner string, includeZeroBalance bool) []Asset {
	ownerAddr := common.HexToAddress(owner)

	assets := []Asset{d.nativeAsset(ctx, ownerAddr)}
	seen := make(map[string]bool)

	for _, contract := range d.scanTransferLogs(ctx, ownerAddr) {
		key := strings.ToLower(contract.Hex())
		if seen[key] {
			continue
		}
		seen[key] = true
		if asset, ok := d.probeToken(ctx, ownerAddr, contract, includeZeroBalance); ok {
			assets = append(assets, asset)
		}
	}

	for _, info := range chain.KnownTokens(d.params.ChainID) {
		key := strings.ToLower(info.Contract)
		if seen[key] {
			continue
		}
		seen[key] = true
		if asset, ok := d.probeToken(ctx, ownerAddr, common.HexToAddress(info.Contract), includeZeroBalance); ok {
			assets = append(assets, asset)
		}
	}

	return assets
}

// nativeAsset fetches the native balance, degrading to "0.00" on failure.
func (d *Discoverer) nativeAsset(ctx context.Context, owner common.Address) Asset {
	asset := Asset{
		Symbol:   d.params.Symbol,
		Name:     d.params.Name,
		Balance:  "0.00",
		Decimals: d.params.Decimals,
		Native:   true,
	}

	wei, err := d.client.BalanceAt(ctx, owner, nil)
	if err != nil {
		d.log.Warn("native balance fetch failed", "error", err)
		return asset
	}
	asset.Balance = helpers.FormatAmount(wei, d.params.Decimals)
	return asset
}

// scanTransferLogs finds token contracts the owner ever transacted with in
// the scan window, as sender or recipient. Topic filters cannot express an
// OR across positions, so the two directions are separate queries.
func (d *Discoverer) scanTransferLogs(ctx context.Context, owner common.Address) []common.Address {
	scanCtx, cancel := context.WithTimeout(ctx, d.cfg.ScanTimeout)
	defer cancel()

	tip, err := d.client.BlockNumber(scanCtx)
	if err != nil {
		d.log.Warn("tip fetch failed, skipping log scan", "error", err)
		return nil
	}

	from := uint64(0)
	if tip > d.cfg.ScanBlocks {
		from = tip - d.cfg.ScanBlocks
	}

	ownerTopic := common.BytesToHash(common.LeftPadBytes(owner.Bytes(), 32))
	queries := [][][]common.Hash{
		{{transferTopic}, nil, {ownerTopic}}, // owner as recipient
		{{transferTopic}, {ownerTopic}},      // owner as sender
	}

	var contracts []common.Address
	unique := make(map[common.Address]bool)
	for _, topics := range queries {
		logs, err := d.client.FilterLogs(scanCtx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   new(big.Int).SetUint64(tip),
			Topics:    topics,
		})
		if err != nil {
			d.log.Warn("log scan failed", "error", err)
			continue
		}
		for _, entry := range logs {
			if !unique[entry.Address] {
				unique[entry.Address] = true
				contracts = append(contracts, entry.Address)
			}
		}
	}
	return contracts
}

// probeToken calls balanceOf with its own short timeout so one dead
// contract cannot eat the whole discovery budget.
func (d *Discoverer) probeToken(ctx context.Context, owner, contract common.Address, includeZeroBalance bool) (Asset, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, d.cfg.ProbeTimeout)
	defer cancel()

	data := balanceOfCalldata(owner)
	raw, err := d.client.CallContract(probeCtx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil || len(raw) < 32 {
		d.log.Debug("token probe failed", "contract", contract.Hex(), "error", err)
		return Asset{}, false
	}

	balance := new(big.Int).SetBytes(raw[:32])
	if balance.Sign() == 0 && !includeZeroBalance {
		return Asset{}, false
	}

	asset := Asset{
		Contract: strings.ToLower(contract.Hex()),
		Decimals: 18,
	}
	if info, ok := chain.GetToken(d.params.ChainID, contract.Hex()); ok {
		asset.Symbol = info.Symbol
		asset.Name = info.Name
		asset.Decimals = info.Decimals
	} else {
		asset.Symbol = shortContract(contract)
		asset.Name = "Unknown Token"
	}
	asset.Balance = helpers.FormatAmount(balance, asset.Decimals)
	return asset, true
}

func balanceOfCalldata(owner common.Address) []byte {
	data := make([]byte, 0, 36)
	data = append(data, 0x70, 0xa0, 0x82, 0x31) // balanceOf(address)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)
	return data
}

func shortContract(contract common.Address) string {
	hex := contract.Hex()
	return strings.ToUpper(hex[2:6])
}
