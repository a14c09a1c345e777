package proposal

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/osnap-tools/governor-client/bindings"
)

// The module and the oracle emit into two independent event streams with no
// shared ordering and no foreign key. Correlation happens purely on explicit
// keys: ancillary data + timestamp against the oracle stream, explanation
// bytes against the module stream, and proposal time between the module's own
// proposed and executed streams. The join policies live here so their
// tie-break and no-match behavior can be tested in isolation.

// matchOracleProposal returns the oracle ProposePrice event for this proposal.
// Both keys must match: ancillary data alone is ambiguous when an identical
// batch is re-proposed at a different time. When several events carry the same
// keys the latest by (block number, log index) wins.
func matchOracleProposal(events []bindings.ProposePriceEvent, ancillaryData []byte, timestamp *big.Int) (bindings.ProposePriceEvent, bool) {
	var (
		match bindings.ProposePriceEvent
		found bool
	)
	for _, ev := range events {
		if !bytes.Equal(ev.AncillaryData, ancillaryData) {
			continue
		}
		if ev.Timestamp == nil || timestamp == nil || ev.Timestamp.Cmp(timestamp) != 0 {
			continue
		}
		if !found || laterLog(ev.Raw, match.Raw) {
			match = ev
			found = true
		}
	}

	return match, found
}

// matchByExplanation returns the module's TransactionsProposed event whose
// explanation equals the caller-supplied one. The explanation is the
// caller-chosen free text that disambiguates resubmissions of the same batch.
// Latest event wins on duplicates.
func matchByExplanation(events []bindings.TransactionsProposedEvent, explanation []byte) (bindings.TransactionsProposedEvent, bool) {
	var (
		match bindings.TransactionsProposedEvent
		found bool
	)
	for _, ev := range events {
		if !bytes.Equal(ev.Explanation, explanation) {
			continue
		}
		if !found || laterLog(ev.Raw, match.Raw) {
			match = ev
			found = true
		}
	}

	return match, found
}

// executedAt reports whether any ProposalExecuted event shares the given
// proposal time. The module exposes no per-hash executed flag, so execution is
// derived from the intersection of the two module event streams. Two distinct
// proposals sharing a proposal time would alias here; the module contract's
// one-proposal-per-hash-per-timestamp rule is what keeps the key unique.
func executedAt(events []bindings.ProposalExecutedEvent, proposalTime *big.Int) bool {
	if proposalTime == nil {
		return false
	}
	for _, ev := range events {
		if ev.ProposalTime != nil && ev.ProposalTime.Cmp(proposalTime) == 0 {
			return true
		}
	}

	return false
}

func laterLog(a, b types.Log) bool {
	if a.BlockNumber != b.BlockNumber {
		return a.BlockNumber > b.BlockNumber
	}

	return a.Index > b.Index
}
