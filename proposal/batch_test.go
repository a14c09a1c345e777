package proposal

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestTransactionBatch_Validate(t *testing.T) {
	t.Parallel()

	valid := Transaction{
		To:    common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Value: big.NewInt(0),
	}

	tests := []struct {
		name    string
		batch   TransactionBatch
		wantErr string
	}{
		{
			name:  "valid single call",
			batch: TransactionBatch{valid},
		},
		{
			name: "valid delegatecall",
			batch: TransactionBatch{{
				To:        valid.To,
				Operation: OperationDelegateCall,
				Value:     big.NewInt(1),
			}},
		},
		{
			name:    "empty",
			batch:   TransactionBatch{},
			wantErr: "batch is empty",
		},
		{
			name:    "zero destination",
			batch:   TransactionBatch{{Value: big.NewInt(0)}},
			wantErr: "has no destination",
		},
		{
			name: "unknown operation",
			batch: TransactionBatch{{
				To:        valid.To,
				Operation: 2,
				Value:     big.NewInt(0),
			}},
			wantErr: "unknown operation",
		},
		{
			name:    "nil value",
			batch:   TransactionBatch{{To: valid.To}},
			wantErr: "has no value",
		},
		{
			name: "negative value",
			batch: TransactionBatch{{
				To:    valid.To,
				Value: big.NewInt(-1),
			}},
			wantErr: "negative value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.batch.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrMalformedBatch)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadBatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "batch.json")
	manifest := `[
		{
			"to": "0x0000000000000000000000000000000000000001",
			"operation": 0,
			"value": 1000,
			"data": "0xdead"
		}
	]`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))

	batch, err := LoadBatch(path)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.Equal(t, common.HexToAddress("0x1"), batch[0].To)
	require.Equal(t, big.NewInt(1000), batch[0].Value)
	require.Equal(t, []byte{0xde, 0xad}, []byte(batch[0].Data))
}

func TestLoadBatch_RejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	_, err := LoadBatch(path)
	require.ErrorIs(t, err, ErrMalformedBatch)
}

func TestLoadBatch_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadBatch(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
