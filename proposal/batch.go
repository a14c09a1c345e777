// Package proposal implements the optimistic governor proposal lifecycle:
// hashing and ancillary-data encoding of a transaction batch, reconciling the
// proposal's status from module and oracle state, projecting that status onto
// a finite state machine, and driving the permitted actions.
package proposal

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/osnap-tools/governor-client/bindings"
)

// Operation kinds for a batched call.
const (
	OperationCall         uint8 = 0
	OperationDelegateCall uint8 = 1
)

// Transaction is one low-level call inside a proposed batch.
type Transaction struct {
	To        common.Address `json:"to"`
	Operation uint8          `json:"operation"`
	Value     *big.Int       `json:"value"`
	Data      hexutil.Bytes  `json:"data"`
}

// TransactionBatch is an ordered set of calls proposed and executed as a unit.
// Once proposed it must not be mutated: the oracle correlation key is derived
// from its exact encoding, so any change produces an unrelated proposal.
type TransactionBatch []Transaction

// Validate fails fast on batches that can never be proposed, before any chain
// call is spent on them.
func (b TransactionBatch) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("%w: batch is empty", ErrMalformedBatch)
	}
	for i, tx := range b {
		if tx.To == (common.Address{}) {
			return fmt.Errorf("%w: transaction %d has no destination", ErrMalformedBatch, i)
		}
		if tx.Operation > OperationDelegateCall {
			return fmt.Errorf("%w: transaction %d has unknown operation %d", ErrMalformedBatch, i, tx.Operation)
		}
		if tx.Value == nil {
			return fmt.Errorf("%w: transaction %d has no value", ErrMalformedBatch, i)
		}
		if tx.Value.Sign() < 0 {
			return fmt.Errorf("%w: transaction %d has negative value", ErrMalformedBatch, i)
		}
	}

	return nil
}

// ModuleTransactions converts the batch to the governor contract's wire shape.
func (b TransactionBatch) ModuleTransactions() []bindings.ModuleTransaction {
	txs := make([]bindings.ModuleTransaction, len(b))
	for i, tx := range b {
		txs[i] = bindings.ModuleTransaction{
			To:        tx.To,
			Operation: tx.Operation,
			Value:     tx.Value,
			Data:      tx.Data,
		}
	}

	return txs
}

// LoadBatch reads a transaction batch manifest from a JSON file.
func LoadBatch(path string) (TransactionBatch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch manifest: %w", err)
	}

	var batch TransactionBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch manifest: %w", err)
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	return batch, nil
}
