package evm

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ErrChainSwitchUnsupported is returned by wallets that cannot switch chains
// programmatically. Callers must surface the mismatch instead of transacting.
var ErrChainSwitchUnsupported = errors.New("wallet does not support switching chains")

// Wallet is the provider boundary for the connected account. It is consumed,
// never implemented, by this module: browser wallets, KMS signers and raw
// private keys all fit behind it.
type Wallet interface {
	// Account returns the connected account address.
	Account() common.Address
	// ChainID returns the chain the wallet is currently connected to.
	ChainID(ctx context.Context) (*big.Int, error)
	// SwitchChain asks the wallet to connect to the given chain. Returns
	// ErrChainSwitchUnsupported when the wallet cannot.
	SwitchChain(ctx context.Context, chainID *big.Int) error
	// Transactor returns signing options bound to the given chain.
	Transactor(chainID *big.Int) (*bind.TransactOpts, error)
}
