package evm

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

type receiptBackend struct {
	calls   atomic.Int32
	after   int32
	receipt *types.Receipt
}

func (b *receiptBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if b.calls.Add(1) <= b.after {
		return nil, ethereum.NotFound
	}

	return b.receipt, nil
}

func (b *receiptBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, nil
}

func TestWaitMinedWithInterval(t *testing.T) {
	t.Parallel()

	backend := &receiptBackend{
		after:   3,
		receipt: &types.Receipt{BlockNumber: big.NewInt(7), Status: types.ReceiptStatusSuccessful},
	}

	receipt, err := WaitMinedWithInterval(t.Context(), backend, common.Hash{}, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, uint64(7), receipt.BlockNumber.Uint64())
	require.GreaterOrEqual(t, backend.calls.Load(), int32(4))
}

func TestWaitMinedWithInterval_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	backend := &receiptBackend{after: 1 << 30}

	_, err := WaitMinedWithInterval(ctx, backend, common.Hash{}, time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeJSONError struct {
	msg  string
	data any
}

func (e *fakeJSONError) Error() string  { return e.msg }
func (e *fakeJSONError) ErrorCode() int { return 3 }
func (e *fakeJSONError) ErrorData() any { return e.data }

func TestJSONErrorData(t *testing.T) {
	t.Parallel()

	t.Run("string payload", func(t *testing.T) {
		t.Parallel()

		data, err := jsonErrorData(&fakeJSONError{msg: "execution reverted", data: "0x08c379a0"})
		require.NoError(t, err)
		require.Equal(t, "0x08c379a0", data)
	})

	t.Run("structured payload", func(t *testing.T) {
		t.Parallel()

		data, err := jsonErrorData(&fakeJSONError{msg: "execution reverted", data: map[string]string{"reason": "bond too low"}})
		require.NoError(t, err)
		require.Contains(t, data, "bond too low")
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()

		_, err := jsonErrorData(context.Canceled)
		require.Error(t, err)
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()

		_, err := jsonErrorData(nil)
		require.Error(t, err)
	})
}
