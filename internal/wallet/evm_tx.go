package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// erc20 function selectors
var (
	selectorTransfer  = []byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	selectorBalanceOf = []byte{0x70, 0xa0, 0x82, 0x31} // balanceOf(address)
)

// EVMTxParams holds everything needed to build a dynamic-fee transaction.
type EVMTxParams struct {
	ChainID   *big.Int
	Nonce     uint64
	To        common.Address
	Value     *big.Int
	Gas       uint64
	GasTipCap *big.Int
	GasFeeCap *big.Int
	Data      []byte
}

// SignEVMTx builds and signs an EIP-1559 transaction.
func SignEVMTx(priv *ecdsa.PrivateKey, p EVMTxParams) (*types.Transaction, error) {
	if p.ChainID == nil {
		return nil, fmt.Errorf("chain id required")
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   p.ChainID,
		Nonce:     p.Nonce,
		To:        &p.To,
		Value:     p.Value,
		Gas:       p.Gas,
		GasTipCap: p.GasTipCap,
		GasFeeCap: p.GasFeeCap,
		Data:      p.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.ChainID), priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign tx: %w", err)
	}
	return signed, nil
}

// EncodeERC20Transfer returns calldata for transfer(to, amount).
func EncodeERC20Transfer(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 68)
	data = append(data, selectorTransfer...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

// EncodeERC20BalanceOf returns calldata for balanceOf(owner).
func EncodeERC20BalanceOf(owner common.Address) []byte {
	data := make([]byte, 0, 36)
	data = append(data, selectorBalanceOf...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)
	return data
}
