package escrow

import (
	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
)

// processInitiateDispute marks an escrow disputed on the legacy
// single-authority path and starts the refund timelock.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] initiator (signer)
func (p *Program) processInitiateDispute(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 2)
	if err != nil {
		return err
	}
	escrowAcc, initiatorAcc := accs[0], accs[1]

	if err := requireSigner(initiatorAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}

	if e.Status != StatusActive && e.Status != StatusPendingReview {
		return ErrInvalidStatus
	}
	if !e.HasWorker() {
		return ErrNoWorkerAssigned
	}
	if initiatorAcc.Key != e.Poster && initiatorAcc.Key != p.PlatformWallet {
		return ErrUnauthorized
	}

	now, _ := ctx.Clock()
	e.Status = StatusDisputed
	e.DisputeInitiatedAt = now
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("DisputeRaised")
	return nil
}

// processRefundToPoster refunds a disputed escrow in full once the
// refund timelock has run. Platform authority only; no fee is taken.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] platform authority (signer)
//   [2] poster (writable)
func (p *Program) processRefundToPoster(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 3)
	if err != nil {
		return err
	}
	escrowAcc, authorityAcc, posterAcc := accs[0], accs[1], accs[2]

	if err := requireSigner(authorityAcc); err != nil {
		return err
	}
	if authorityAcc.Key != p.PlatformWallet {
		return ErrUnauthorized
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}

	if e.Status != StatusDisputed {
		return ErrInvalidStatus
	}
	if posterAcc.Key != e.Poster {
		return ErrInvalidAccount
	}
	if e.DisputeInitiatedAt == 0 {
		return ErrInvalidStatus
	}

	now, _ := ctx.Clock()
	if now < e.DisputeInitiatedAt+RefundTimelockSeconds {
		return ErrDeadlineNotReached
	}

	if err := ctx.TransferLamports(escrowAcc, posterAcc, e.Amount); err != nil {
		return err
	}
	e.Status = StatusRefunded
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("Refunded")
	return nil
}

// processClaimExpired returns the full amount to the poster once the
// escrow has expired without resolution.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] poster (signer, writable)
func (p *Program) processClaimExpired(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 2)
	if err != nil {
		return err
	}
	escrowAcc, posterAcc := accs[0], accs[1]

	if err := requireSigner(posterAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}

	if e.Status != StatusActive {
		return ErrInvalidStatus
	}
	if posterAcc.Key != e.Poster {
		return ErrUnauthorized
	}

	now, _ := ctx.Clock()
	if now < e.ExpiresAt {
		return ErrDeadlineNotReached
	}

	if err := ctx.TransferLamports(escrowAcc, posterAcc, e.Amount); err != nil {
		return err
	}
	e.Status = StatusExpired
	return e.Store(escrowAcc.Data)
}

// processCancelEscrow returns the full amount to the poster before any
// worker has been assigned.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] poster (signer, writable)
func (p *Program) processCancelEscrow(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 2)
	if err != nil {
		return err
	}
	escrowAcc, posterAcc := accs[0], accs[1]

	if err := requireSigner(posterAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}

	if e.Status != StatusActive {
		return ErrInvalidStatus
	}
	if posterAcc.Key != e.Poster {
		return ErrUnauthorized
	}
	if e.HasWorker() {
		return ErrWorkerAlreadyAssigned
	}

	if err := ctx.TransferLamports(escrowAcc, posterAcc, e.Amount); err != nil {
		return err
	}
	e.Status = StatusCancelled
	return e.Store(escrowAcc.Data)
}

// processClaimExpiredArbitration is the emergency exit from a stalled
// arbitration: once the voting deadline plus the grace period has passed
// with no resolution, the poster recovers the full amount.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] poster (signer, writable)
//   [2] dispute case PDA
func (p *Program) processClaimExpiredArbitration(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 3)
	if err != nil {
		return err
	}
	escrowAcc, posterAcc, disputeAcc := accs[0], accs[1], accs[2]

	if err := requireSigner(posterAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}

	if e.Status != StatusInArbitration {
		return ErrNotInArbitration
	}
	if posterAcc.Key != e.Poster {
		return ErrUnauthorized
	}
	if !e.HasDisputeCase || e.DisputeCase != disputeAcc.Key {
		return ErrEscrowMismatch
	}

	d, err := p.loadDisputeChecked(disputeAcc)
	if err != nil {
		return err
	}
	if d.Escrow != escrowAcc.Key {
		return ErrEscrowMismatch
	}
	if d.Resolution != ResolutionPending {
		return ErrDisputeAlreadyResolved
	}

	now, _ := ctx.Clock()
	if now < d.VotingDeadline+ArbitrationGraceSeconds {
		return ErrArbitrationGracePeriodNotPassed
	}

	if err := ctx.TransferLamports(escrowAcc, posterAcc, e.Amount); err != nil {
		return err
	}
	e.Status = StatusRefunded
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("Refunded")
	return nil
}
