package proposal

// State is the user-facing summary of a proposal's lifecycle position.
type State string

const (
	// StateNoWallet means no account is connected; nothing can be derived or
	// driven without one.
	StateNoWallet State = "no_wallet"
	// StateLoading means reconciliation has not produced a status yet.
	StateLoading State = "loading"
	// StateError means the latest reconciliation failed, or the reconciled
	// facts contradict every known lifecycle position.
	StateError State = "error"
	// StateAwaitingProposal means the batch can be (re)proposed: either it was
	// never submitted, or its submission was disputed and the dispute is still
	// open.
	StateAwaitingProposal State = "awaiting_proposal"
	// StateApproved means the dispute window passed without a standing
	// dispute; the batch is executable.
	StateApproved State = "approved"
	// StateExecuted means the module has executed the batch.
	StateExecuted State = "executed"
	// StateRejected means a dispute resolved against the proposal.
	StateRejected State = "rejected"
)

// Action is the single on-chain step permitted from a given state.
type Action string

const (
	ActionNone        Action = ""
	ActionApproveBond Action = "approve_bond"
	ActionPropose     Action = "propose"
	ActionExecute     Action = "execute"
)

// DeriveState projects a reconciled status onto the lifecycle state machine.
// The clauses are ordered by precedence; the first that holds wins. Facts no
// clause accounts for fall through to StateError rather than guessing.
func DeriveState(snap WalletSnapshot, status *ProposalStatus, reconcileErr error) State {
	if !snap.Connected {
		return StateNoWallet
	}
	if status == nil && reconcileErr == nil {
		return StateLoading
	}
	if status == nil {
		return StateError
	}
	if !status.HasSubmission {
		return StateAwaitingProposal
	}

	ev := status.Event
	if ev == nil {
		return StateError
	}

	switch {
	case ev.Expired && !ev.Disputed && !ev.Settled:
		return StateApproved
	case ev.Settled && !ev.Disputed && !status.Executed:
		return StateApproved
	case ev.Settled && status.Executed:
		return StateExecuted
	case ev.Disputed && !ev.Settled:
		return StateAwaitingProposal
	case ev.Disputed && ev.Settled && ev.ResolvedPrice != nil && ev.ResolvedPrice.Sign() == 0:
		return StateRejected
	}

	return StateError
}

// PermittedAction returns the one action the state machine allows, given the
// derived state and the reconciled status. Approving the bond takes precedence
// over proposing when the allowance falls short.
func PermittedAction(state State, status *ProposalStatus) Action {
	switch state {
	case StateAwaitingProposal:
		if status != nil && status.NeedsBondApproval {
			return ActionApproveBond
		}

		return ActionPropose
	case StateApproved:
		return ActionExecute
	default:
		return ActionNone
	}
}
