package proposal

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ancillaryKey prefixes the proposal hash inside the oracle's ancillary data,
// keeping the correlation key human readable on oracle UIs.
const ancillaryKey = "proposalHash:"

// batchArguments is the canonical ABI encoding of a batch: the tuple list
// (to, operation, value, data)[], exactly as the governor contract hashes it.
var batchArguments = abi.Arguments{{Type: mustBatchType()}}

func mustBatchType() abi.Type {
	t, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "to", Type: "address"},
		{Name: "operation", Type: "uint8"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	})
	if err != nil {
		panic(err)
	}

	return t
}

// HashBatch computes the proposal hash: the keccak256 of the batch's canonical
// ABI encoding. Deterministic, and sensitive to every field of every call.
func HashBatch(batch TransactionBatch) (common.Hash, error) {
	if err := batch.Validate(); err != nil {
		return common.Hash{}, err
	}

	packed, err := batchArguments.Pack(batch.ModuleTransactions())
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrMalformedBatch, err)
	}

	return crypto.Keccak256Hash(packed), nil
}

// PackAncillaryData embeds the proposal hash into the oracle's correlation
// key: "proposalHash:" followed by the lowercase hex digest.
func PackAncillaryData(hash common.Hash) []byte {
	return []byte(ancillaryKey + hex.EncodeToString(hash[:]))
}
