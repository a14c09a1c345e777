package proposal

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/osnap-tools/governor-client/chain/evm"
	"github.com/osnap-tools/governor-client/pkg/logger"
)

type fakeWallet struct {
	key       *ecdsa.PrivateKey
	chainID   *big.Int
	switchErr error
	switched  []*big.Int
}

func newFakeWallet(t *testing.T, chainID int64) *fakeWallet {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return &fakeWallet{key: key, chainID: big.NewInt(chainID)}
}

func (w *fakeWallet) Account() common.Address {
	return crypto.PubkeyToAddress(w.key.PublicKey)
}

func (w *fakeWallet) ChainID(context.Context) (*big.Int, error) {
	return w.chainID, nil
}

func (w *fakeWallet) SwitchChain(_ context.Context, chainID *big.Int) error {
	if w.switchErr != nil {
		return w.switchErr
	}
	w.switched = append(w.switched, chainID)
	w.chainID = chainID

	return nil
}

func (w *fakeWallet) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(w.key, chainID)
}

type driverHarness struct {
	driver    *Driver
	backend   *fakeBackend
	wallet    *fakeWallet
	confirmed int
}

func newDriverHarness(t *testing.T, walletChain int64, confirm evm.ConfirmFunc) *driverHarness {
	t.Helper()

	h := &driverHarness{
		backend: newFakeBackend(),
		wallet:  newFakeWallet(t, walletChain),
	}
	if confirm == nil {
		confirm = func(context.Context, *types.Transaction) (uint64, error) { return 42, nil }
	}

	chain := evm.Chain{
		Selector: 5009297550715157269,
		Name:     "ethereum-mainnet",
		ID:       big.NewInt(1),
		Client:   h.backend,
		Batch:    h.backend,
		Confirm:  confirm,
	}

	driver, err := NewDriver(logger.Test(t), chain, h.wallet, moduleAddr, func() { h.confirmed++ })
	require.NoError(t, err)
	h.driver = driver

	return h
}

func TestDriver_ProposeTransactions(t *testing.T) {
	t.Parallel()

	h := newDriverHarness(t, 1, nil)

	err := h.driver.ProposeTransactions(t.Context(), testBatch(), "upgrade treasury")
	require.NoError(t, err)
	require.Equal(t, 1, h.backend.sentCount())
	require.Equal(t, 1, h.confirmed)
	require.Empty(t, h.wallet.switched, "no switch needed on the right chain")
}

func TestDriver_ExecuteProposal(t *testing.T) {
	t.Parallel()

	h := newDriverHarness(t, 1, nil)

	require.NoError(t, h.driver.ExecuteProposal(t.Context(), testBatch()))
	require.Equal(t, 1, h.backend.sentCount())
	require.Equal(t, 1, h.confirmed)
}

func TestDriver_ApproveBond(t *testing.T) {
	t.Parallel()

	h := newDriverHarness(t, 1, nil)

	err := h.driver.ApproveBond(t.Context(), collateralAddr, big.NewInt(500))
	require.NoError(t, err)
	require.Equal(t, 1, h.backend.sentCount())
	require.Equal(t, 1, h.confirmed)
}

func TestDriver_RejectsMalformedBatch(t *testing.T) {
	t.Parallel()

	h := newDriverHarness(t, 1, nil)

	err := h.driver.ProposeTransactions(t.Context(), nil, "")
	require.ErrorIs(t, err, ErrMalformedBatch)
	require.Zero(t, h.backend.sentCount())
}

func TestDriver_SwitchesChain(t *testing.T) {
	t.Parallel()

	h := newDriverHarness(t, 5, nil)

	err := h.driver.ProposeTransactions(t.Context(), testBatch(), "upgrade treasury")
	require.NoError(t, err)
	require.Len(t, h.wallet.switched, 1)
	require.Zero(t, h.wallet.switched[0].Cmp(big.NewInt(1)))
}

func TestDriver_WrongNetwork(t *testing.T) {
	t.Parallel()

	h := newDriverHarness(t, 5, nil)
	h.wallet.switchErr = evm.ErrChainSwitchUnsupported

	err := h.driver.ProposeTransactions(t.Context(), testBatch(), "upgrade treasury")

	var wrongNet *WrongNetworkError
	require.ErrorAs(t, err, &wrongNet)
	require.Zero(t, wrongNet.Want.Cmp(big.NewInt(1)))
	require.Zero(t, wrongNet.Got.Cmp(big.NewInt(5)))
	require.Zero(t, h.backend.sentCount(), "no transaction may be attempted on the wrong chain")
	require.Zero(t, h.confirmed)
}

func TestDriver_BroadcastFailureIsRejected(t *testing.T) {
	t.Parallel()

	h := newDriverHarness(t, 1, nil)
	h.backend.sendErr = errors.New("nonce too low")

	err := h.driver.ProposeTransactions(t.Context(), testBatch(), "upgrade treasury")
	require.ErrorIs(t, err, ErrTransactionRejected)
	require.NotErrorIs(t, err, ErrTransactionFailed)
	require.Zero(t, h.confirmed, "nothing confirmed after a rejected broadcast")
}

func TestDriver_ConfirmFailureIsDistinct(t *testing.T) {
	t.Parallel()

	confirm := func(context.Context, *types.Transaction) (uint64, error) {
		return 0, errors.New("reverted")
	}
	h := newDriverHarness(t, 1, confirm)

	err := h.driver.ProposeTransactions(t.Context(), testBatch(), "upgrade treasury")
	require.ErrorIs(t, err, ErrTransactionFailed)
	require.NotErrorIs(t, err, ErrTransactionRejected)
	require.Equal(t, 1, h.backend.sentCount(), "the transaction was broadcast")
	require.Zero(t, h.confirmed, "reconciliation must not trigger before confirmation")
}
