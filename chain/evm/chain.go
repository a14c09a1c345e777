package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// OnchainClient is the read/write surface the rest of the module needs from an
// EVM node. The geth bind interfaces cover contract calls, gas estimation and
// receipt lookups.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

// BatchCaller issues several JSON-RPC requests in a single round trip.
// Configuration reads use this so latency stays O(1) in the field count.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// Chain bundles everything needed to read from and write to one EVM chain.
type Chain struct {
	// Selector is the chain-selectors identifier for the chain.
	Selector uint64
	// Name is the human-readable chain name resolved from the selector.
	Name string
	// ID is the EIP-155 chain ID.
	ID *big.Int

	Client  OnchainClient
	Batch   BatchCaller
	Confirm ConfirmFunc
}
