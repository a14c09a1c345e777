package proposal

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WalletSnapshot captures the connected account and network at the start of an
// operation. The wallet can switch account or chain at any moment, so every
// operation works from one snapshot instead of re-reading ambient state.
type WalletSnapshot struct {
	Connected bool
	Account   common.Address
	ChainID   *big.Int
}

// BondInfo describes the collateral the connected account can post.
type BondInfo struct {
	Token     common.Address
	Symbol    string
	Decimals  uint8
	Allowance *big.Int
	Balance   *big.Int
}

// ProposalEvent is the oracle's view of the pending proposal, derived from the
// matching ProposePrice event and request record.
type ProposalEvent struct {
	ProposalTime   *big.Int
	ExpirationTime *big.Int
	Expired        bool
	Disputed       bool
	Settled        bool
	// ResolvedPrice is nil until the request settles. A zero resolved price
	// rejects the proposal.
	ResolvedPrice *big.Int
}

// ProposalStatus is the reconciled view of one proposal, recomputed from chain
// state on every reconciliation and replaced wholesale. Never mutated in
// place.
type ProposalStatus struct {
	GoverningAccount common.Address
	OracleAddress    common.Address
	Rules            string
	MinimumBond      *big.Int
	DisputeWindow    uint64
	Bond             BondInfo

	// NeedsBondApproval is set when the module requires a bond larger than
	// the connected account's current allowance.
	NeedsBondApproval bool

	// HasSubmission is set once this exact batch has been proposed on chain.
	HasSubmission bool
	// ActiveDispute is set while a dispute is open but unresolved.
	ActiveDispute bool
	// Event is nil until a submission is found and correlated.
	Event *ProposalEvent
	// Executed is set once the module reports the batch executed.
	Executed bool
}
