package evm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ConfirmFunc waits for a broadcast transaction to be confirmed and returns
// the block number it was mined in. A reverted transaction is an error.
type ConfirmFunc func(ctx context.Context, tx *types.Transaction) (uint64, error)

// NewConfirmFunc returns a ConfirmFunc polling client for the receipt of the
// transaction. from is the sender, used to replay reverted calls for a reason
// string.
func NewConfirmFunc(client OnchainClient, from common.Address, waitMinedTimeout, tickInterval time.Duration) ConfirmFunc {
	return func(ctx context.Context, tx *types.Transaction) (uint64, error) {
		if tx == nil {
			return 0, errors.New("tx was nil, nothing to confirm")
		}

		waitCtx, cancel := context.WithTimeout(ctx, waitMinedTimeout)
		defer cancel()

		receipt, err := WaitMinedWithInterval(waitCtx, client, tx.Hash(), tickInterval)
		if err != nil {
			return 0, fmt.Errorf("tx %s failed to confirm: %w", tx.Hash().Hex(), err)
		}

		blockNum := receipt.BlockNumber.Uint64()
		if receipt.Status == types.ReceiptStatusFailed {
			if reason, rerr := RevertReason(waitCtx, client, from, tx, receipt); rerr == nil && reason != "" {
				return 0, fmt.Errorf("tx %s reverted: %s", tx.Hash().Hex(), reason)
			}

			return 0, fmt.Errorf("tx %s reverted, could not decode reason", tx.Hash().Hex())
		}

		return blockNum, nil
	}
}

// WaitMinedWithInterval polls for the receipt at the given interval until the
// context expires. Tighter than bind.WaitMined's fixed one-second tick on
// fast chains.
func WaitMinedWithInterval(ctx context.Context, b bind.DeployBackend, txHash common.Hash, tick time.Duration) (*types.Receipt, error) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		receipt, err := b.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// RevertReason replays the transaction as an eth_call at its mined block and
// extracts the revert reason from the resulting JSON-RPC error, if any.
func RevertReason(
	ctx context.Context,
	caller bind.ContractCaller,
	from common.Address,
	tx *types.Transaction,
	receipt *types.Receipt,
) (string, error) {
	call := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Data:     tx.Data(),
		Value:    tx.Value(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
	}

	if _, err := caller.CallContract(ctx, call, receipt.BlockNumber); err != nil {
		reason, perr := jsonErrorData(err)
		if perr == nil {
			return reason, nil
		}
		if reason == "" {
			return err.Error(), nil
		}
	}

	return "", fmt.Errorf("tx %s reverted with no reason", tx.Hash().Hex())
}

// jsonErrorData extracts the data field from a JSON-RPC error.
func jsonErrorData(err error) (string, error) {
	if err == nil {
		return "", errors.New("cannot parse nil error")
	}

	type jsonError interface {
		Error() string
		ErrorCode() int
		ErrorData() any
	}

	var jerr jsonError
	if !errors.As(err, &jerr) {
		return "", fmt.Errorf("error is not a json error: %w", err)
	}

	data, ok := jerr.ErrorData().(string)
	if ok {
		return data, nil
	}

	raw, merr := json.Marshal(jerr.ErrorData())
	if merr != nil {
		return "", fmt.Errorf("failed to marshal error data: %w", merr)
	}

	return string(raw), nil
}
