package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/prism-wallet/prism/internal/backend"
)

const dustLimit = 546

// BuildAndSignBitcoinTx builds a P2WPKH spend from the given UTXOs to a
// single destination, returning the raw tx hex and its txid. All inputs are
// assumed to belong to the sender address whose key is provided.
func BuildAndSignBitcoinTx(
	privKey *btcec.PrivateKey,
	senderAddr string,
	utxos []backend.UTXO,
	destAddr string,
	amount uint64,
	feeRate uint64,
) (rawHex string, txid string, err error) {
	if amount == 0 {
		return "", "", fmt.Errorf("amount must be positive")
	}
	if feeRate == 0 {
		feeRate = 1
	}

	selected, total, err := selectUTXOs(utxos, amount, feeRate)
	if err != nil {
		return "", "", err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, utxo := range selected {
		txHash, err := chainhash.NewHashFromStr(utxo.TxID)
		if err != nil {
			return "", "", fmt.Errorf("invalid utxo txid %s: %w", utxo.TxID, err)
		}
		txIn := wire.NewTxIn(wire.NewOutPoint(txHash, utxo.Vout), nil, nil)
		txIn.Sequence = wire.MaxTxInSequenceNum - 2 // enable RBF
		tx.AddTxIn(txIn)
	}

	destScript, err := payToAddrScript(destAddr)
	if err != nil {
		return "", "", fmt.Errorf("invalid destination: %w", err)
	}
	tx.AddTxOut(wire.NewTxOut(int64(amount), destScript))

	senderScript, err := payToAddrScript(senderAddr)
	if err != nil {
		return "", "", fmt.Errorf("invalid sender address: %w", err)
	}

	// Estimate fee from the vsize with a change output included, then drop
	// the change output if it would be dust.
	fee := estimateVSize(len(selected), 2) * feeRate
	if total < amount+fee {
		return "", "", fmt.Errorf("insufficient funds: have %d, need %d", total, amount+fee)
	}
	change := total - amount - fee
	if change > dustLimit {
		tx.AddTxOut(wire.NewTxOut(int64(change), senderScript))
	}

	prevOuts := make(map[wire.OutPoint]*wire.TxOut)
	for i, utxo := range selected {
		prevOuts[tx.TxIn[i].PreviousOutPoint] = wire.NewTxOut(int64(utxo.Value), senderScript)
	}
	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	for i, utxo := range selected {
		witness, err := txscript.WitnessSignature(
			tx, sigHashes, i, int64(utxo.Value), senderScript,
			txscript.SigHashAll, privKey, true,
		)
		if err != nil {
			return "", "", fmt.Errorf("failed to sign input %d: %w", i, err)
		}
		tx.TxIn[i].Witness = witness
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", "", fmt.Errorf("failed to serialize tx: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), tx.TxHash().String(), nil
}

// selectUTXOs picks UTXOs largest-first until the target plus an estimated
// fee is covered.
func selectUTXOs(utxos []backend.UTXO, target, feeRate uint64) ([]backend.UTXO, uint64, error) {
	sorted := make([]backend.UTXO, len(utxos))
	copy(sorted, utxos)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	var selected []backend.UTXO
	var total uint64
	for _, utxo := range sorted {
		selected = append(selected, utxo)
		total += utxo.Value
		needed := target + estimateVSize(len(selected), 2)*feeRate
		if total >= needed {
			return selected, total, nil
		}
	}
	return nil, 0, fmt.Errorf("insufficient funds: have %d, need %d", total, target)
}

// estimateVSize approximates the virtual size of a P2WPKH transaction.
func estimateVSize(inputs, outputs int) uint64 {
	// 10.5 vB overhead, 68 vB per P2WPKH input, 31 vB per output
	return uint64(11 + inputs*68 + outputs*31)
}

func payToAddrScript(address string) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(decoded)
}
