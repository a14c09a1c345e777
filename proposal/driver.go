package proposal

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/osnap-tools/governor-client/bindings"
	"github.com/osnap-tools/governor-client/chain/evm"
	"github.com/osnap-tools/governor-client/pkg/logger"
)

// Driver submits the three lifecycle actions. Every action follows the same
// two-phase protocol: broadcast, then confirm. A broadcast failure means
// nothing reached the chain and a retry is safe; a confirmation failure means
// a transaction may still land, so callers must reconcile before retrying.
// The two phases are distinguished by ErrTransactionRejected and
// ErrTransactionFailed.
type Driver struct {
	lggr     logger.Logger
	chain    evm.Chain
	wallet   evm.Wallet
	governor *bindings.Governor

	// onConfirmed runs after an action confirms on chain, never after a
	// failure. Intended to kick off a fresh reconciliation.
	onConfirmed func()
}

// NewDriver builds a Driver for the governor module at moduleAddress, signing
// with the given wallet. onConfirmed may be nil.
func NewDriver(
	lggr logger.Logger,
	chain evm.Chain,
	wallet evm.Wallet,
	moduleAddress common.Address,
	onConfirmed func(),
) (*Driver, error) {
	governor, err := bindings.NewGovernor(moduleAddress, chain.Client)
	if err != nil {
		return nil, err
	}

	return &Driver{
		lggr:        logger.Named(lggr, "Driver"),
		chain:       chain,
		wallet:      wallet,
		governor:    governor,
		onConfirmed: onConfirmed,
	}, nil
}

// ApproveBond grants the governor module an allowance of amount on the
// collateral token, covering the proposal bond.
func (d *Driver) ApproveBond(ctx context.Context, token common.Address, amount *big.Int) error {
	collateral, err := bindings.NewERC20(token, d.chain.Client)
	if err != nil {
		return err
	}

	return d.submit(ctx, "ApproveBond", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return collateral.Approve(opts, d.governor.Address(), amount)
	})
}

// ProposeTransactions submits the batch to the governor module, opening the
// oracle's dispute window.
func (d *Driver) ProposeTransactions(ctx context.Context, batch TransactionBatch, explanation string) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	txs := batch.ModuleTransactions()

	return d.submit(ctx, "ProposeTransactions", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return d.governor.ProposeTransactions(opts, txs, []byte(explanation))
	})
}

// ExecuteProposal executes a batch whose dispute window has passed.
func (d *Driver) ExecuteProposal(ctx context.Context, batch TransactionBatch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	txs := batch.ModuleTransactions()

	return d.submit(ctx, "ExecuteProposal", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return d.governor.ExecuteProposal(opts, txs)
	})
}

func (d *Driver) submit(ctx context.Context, name string, send func(*bind.TransactOpts) (*types.Transaction, error)) error {
	if err := d.ensureNetwork(ctx); err != nil {
		return err
	}

	opts, err := d.wallet.Transactor(d.chain.ID)
	if err != nil {
		return errors.Join(ErrTransactionRejected, err)
	}
	opts.Context = ctx

	tx, err := send(opts)
	if err != nil {
		return errors.Join(ErrTransactionRejected, err)
	}

	d.lggr.Infow("Broadcast transaction",
		"action", name, "txHash", tx.Hash().Hex(), "from", d.wallet.Account().Hex())

	blockNum, err := d.chain.Confirm(ctx, tx)
	if err != nil {
		return errors.Join(ErrTransactionFailed, err)
	}

	d.lggr.Infow("Confirmed transaction",
		"action", name, "txHash", tx.Hash().Hex(), "block", blockNum)

	if d.onConfirmed != nil {
		d.onConfirmed()
	}

	return nil
}

// ensureNetwork checks the wallet sits on the driver's chain and asks it to
// switch if not. Wallets that cannot switch yield a WrongNetworkError carrying
// both chain IDs.
func (d *Driver) ensureNetwork(ctx context.Context) error {
	chainID, err := d.wallet.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to read wallet chain: %w", err)
	}
	if chainID != nil && d.chain.ID != nil && chainID.Cmp(d.chain.ID) == 0 {
		return nil
	}

	if err := d.wallet.SwitchChain(ctx, d.chain.ID); err != nil {
		if errors.Is(err, evm.ErrChainSwitchUnsupported) {
			return &WrongNetworkError{Want: d.chain.ID, Got: chainID}
		}

		return fmt.Errorf("failed to switch wallet chain: %w", err)
	}

	return nil
}
