package proposal

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrMalformedBatch means the caller handed over a batch that can never
	// be proposed. Raised before any chain call is attempted.
	ErrMalformedBatch = errors.New("malformed transaction batch")

	// ErrConfigRead means the module configuration or bond state could not
	// be read. A status cannot be assembled without it.
	ErrConfigRead = errors.New("governor configuration read failed")

	// ErrIndeterminate means the event streams could not be correlated into
	// a definite proposal status. Callers must treat the status as unknown,
	// not as "no submission".
	ErrIndeterminate = errors.New("proposal status indeterminate")

	// ErrTransactionRejected means an action transaction never made it into
	// the pending pool. Safe to retry.
	ErrTransactionRejected = errors.New("transaction rejected before broadcast")

	// ErrTransactionFailed means an action transaction was broadcast but did
	// not confirm successfully. A duplicate may still be pending; callers
	// should reconcile before retrying.
	ErrTransactionFailed = errors.New("transaction failed to confirm")
)

// WrongNetworkError is returned when the wallet sits on a different chain and
// cannot be switched programmatically.
type WrongNetworkError struct {
	Want *big.Int
	Got  *big.Int
}

func (e *WrongNetworkError) Error() string {
	return fmt.Sprintf("wallet connected to chain %s, want %s", e.Got, e.Want)
}
