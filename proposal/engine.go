package proposal

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/osnap-tools/governor-client/bindings"
	"github.com/osnap-tools/governor-client/chain/evm"
	"github.com/osnap-tools/governor-client/pkg/logger"
)

// Reconciler computes a proposal's full status by joining the governor
// module's contract state and event log with the optimistic oracle's. It owns
// no mutable state: every call re-reads the chain and returns a fresh
// snapshot.
type Reconciler struct {
	lggr     logger.Logger
	client   evm.OnchainClient
	batcher  evm.BatchCaller
	governor *bindings.Governor
	now      func() time.Time
}

// NewReconciler builds a Reconciler for the governor module at moduleAddress.
func NewReconciler(
	lggr logger.Logger,
	client evm.OnchainClient,
	batcher evm.BatchCaller,
	moduleAddress common.Address,
) (*Reconciler, error) {
	governor, err := bindings.NewGovernor(moduleAddress, client)
	if err != nil {
		return nil, err
	}

	return &Reconciler{
		lggr:     logger.Named(lggr, "Reconciler"),
		client:   client,
		batcher:  batcher,
		governor: governor,
		now:      time.Now,
	}, nil
}

type bondResult struct {
	bond BondInfo
	err  error
}

type eventsResult struct {
	oracleEvents   []bindings.ProposePriceEvent
	proposedEvents []bindings.TransactionsProposedEvent
	executedEvents []bindings.ProposalExecutedEvent
}

// ProposalStatus reconciles the status of the batch identified by
// (batch bytes, explanation). A nil or empty batch yields the steady
// "nothing proposed yet" status without touching either event log.
//
// Errors wrap ErrConfigRead when the configuration or bond state is
// unreadable, ErrIndeterminate when a submission exists but cannot be
// correlated across the event streams, and ErrMalformedBatch for input that
// could never be proposed.
func (r *Reconciler) ProposalStatus(
	ctx context.Context,
	snap WalletSnapshot,
	batch TransactionBatch,
	explanation string,
) (*ProposalStatus, error) {
	traceID := uuid.New()
	r.lggr.Debugw("Reconciling proposal status",
		"traceID", traceID.String(), "module", r.governor.Address().Hex(),
		"transactions", len(batch), "connected", snap.Connected)

	if len(batch) > 0 {
		if err := batch.Validate(); err != nil {
			return nil, err
		}
	}

	cfg, err := r.governor.Config(ctx, r.batcher)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigRead, err)
	}

	// The bond read depends only on the configuration, not on the batch, so
	// it runs while the hash and submission lookups proceed.
	bondCh := make(chan bondResult, 1)
	go func() {
		bond, berr := r.readBond(ctx, cfg, snap)
		bondCh <- bondResult{bond: bond, err: berr}
	}()

	status := &ProposalStatus{
		GoverningAccount: cfg.Avatar,
		OracleAddress:    cfg.Oracle,
		Rules:            cfg.Rules,
		MinimumBond:      cfg.BondAmount,
		DisputeWindow:    cfg.Liveness,
	}

	if len(batch) == 0 {
		bres := <-bondCh
		if bres.err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigRead, bres.err)
		}

		return r.finish(status, bres.bond), nil
	}

	hash, err := HashBatch(batch)
	if err != nil {
		return nil, err
	}
	ancillaryData := PackAncillaryData(hash)

	proposalTimestamp, err := r.governor.ProposalTimestamp(ctx, hash)
	if err != nil {
		<-bondCh

		return nil, fmt.Errorf("%w: %s", ErrConfigRead, err)
	}

	if proposalTimestamp.Sign() == 0 {
		// This exact batch was never proposed. No event log holds anything
		// attributable to it.
		bres := <-bondCh
		if bres.err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigRead, bres.err)
		}

		return r.finish(status, bres.bond), nil
	}

	oracle, err := bindings.NewOracle(cfg.Oracle, r.client)
	if err != nil {
		<-bondCh

		return nil, fmt.Errorf("%w: %s", ErrConfigRead, err)
	}

	events, err := r.queryEvents(ctx, oracle, hash)
	if err != nil {
		<-bondCh

		return nil, err
	}

	oracleEvent, ok := matchOracleProposal(events.oracleEvents, ancillaryData, proposalTimestamp)
	if !ok {
		<-bondCh

		return nil, fmt.Errorf("%w: no oracle price proposal matches ancillary data at timestamp %s",
			ErrIndeterminate, proposalTimestamp)
	}

	request, err := oracle.GetRequest(ctx, r.governor.Address(), bindings.ZodiacIdentifier, proposalTimestamp, ancillaryData)
	if err != nil {
		<-bondCh

		return nil, fmt.Errorf("%w: %s", ErrIndeterminate, err)
	}

	proposedEvent, ok := matchByExplanation(events.proposedEvents, []byte(explanation))
	if !ok {
		<-bondCh

		return nil, fmt.Errorf("%w: no TransactionsProposed event matches explanation %q",
			ErrIndeterminate, explanation)
	}

	status.HasSubmission = true
	status.Executed = executedAt(events.executedEvents, proposedEvent.ProposalTime)

	disputed := request.Disputer != (common.Address{})
	expired := oracleEvent.ExpirationTimestamp != nil &&
		big.NewInt(r.now().Unix()).Cmp(oracleEvent.ExpirationTimestamp) >= 0

	var resolvedPrice *big.Int
	if request.Settled {
		resolvedPrice = request.ResolvedPrice
	}

	status.ActiveDispute = disputed && !request.Settled
	status.Event = &ProposalEvent{
		ProposalTime:   proposedEvent.ProposalTime,
		ExpirationTime: oracleEvent.ExpirationTimestamp,
		Expired:        expired,
		Disputed:       disputed,
		Settled:        request.Settled,
		ResolvedPrice:  resolvedPrice,
	}

	bres := <-bondCh
	if bres.err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigRead, bres.err)
	}

	r.lggr.Debugw("Reconciled proposal status",
		"traceID", traceID.String(), "hasSubmission", status.HasSubmission,
		"disputed", disputed, "settled", request.Settled, "executed", status.Executed)

	return r.finish(status, bres.bond), nil
}

// queryEvents issues the three independent log queries concurrently. Any
// failure makes the correlation impossible, so the whole step reports
// indeterminate rather than a partial view.
func (r *Reconciler) queryEvents(ctx context.Context, oracle *bindings.Oracle, hash common.Hash) (eventsResult, error) {
	var (
		res  eventsResult
		errs = make(chan error, 3)
	)

	go func() {
		var err error
		res.oracleEvents, err = oracle.FilterProposePrice(ctx, r.governor.Address())
		errs <- err
	}()
	go func() {
		var err error
		res.proposedEvents, err = r.governor.FilterTransactionsProposed(ctx)
		errs <- err
	}()
	go func() {
		var err error
		res.executedEvents, err = r.governor.FilterProposalExecuted(ctx, hash)
		errs <- err
	}()

	for range 3 {
		if err := <-errs; err != nil {
			return eventsResult{}, fmt.Errorf("%w: %s", ErrIndeterminate, err)
		}
	}

	return res, nil
}

// readBond reads the collateral token metadata plus the connected account's
// allowance and balance. Without a connected account both are zero, which is
// a valid read, not an error.
func (r *Reconciler) readBond(ctx context.Context, cfg bindings.GovernorConfig, snap WalletSnapshot) (BondInfo, error) {
	token, err := bindings.NewERC20(cfg.Collateral, r.client)
	if err != nil {
		return BondInfo{}, err
	}

	bond := BondInfo{
		Token:     cfg.Collateral,
		Allowance: new(big.Int),
		Balance:   new(big.Int),
	}

	if bond.Symbol, err = token.Symbol(ctx); err != nil {
		return BondInfo{}, err
	}
	if bond.Decimals, err = token.Decimals(ctx); err != nil {
		return BondInfo{}, err
	}

	if !snap.Connected {
		return bond, nil
	}

	if bond.Allowance, err = token.Allowance(ctx, snap.Account, r.governor.Address()); err != nil {
		return BondInfo{}, err
	}
	if bond.Balance, err = token.BalanceOf(ctx, snap.Account); err != nil {
		return BondInfo{}, err
	}

	return bond, nil
}

func (r *Reconciler) finish(status *ProposalStatus, bond BondInfo) *ProposalStatus {
	status.Bond = bond
	status.NeedsBondApproval = status.MinimumBond != nil &&
		status.MinimumBond.Sign() > 0 &&
		status.MinimumBond.Cmp(bond.Allowance) > 0

	return status
}
