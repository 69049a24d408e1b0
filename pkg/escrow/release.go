package escrow

import (
	"math"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
)

// platformFee computes the fee taken on worker-bound payouts.
func platformFee(amount uint64) (uint64, error) {
	if amount > math.MaxUint64/PlatformFeeBps {
		return 0, ErrArithmeticError
	}
	return amount * PlatformFeeBps / 10_000, nil
}

// payoutToWorker pays amount minus the platform fee to the worker and the
// fee to the platform, straight out of the escrow account's lamports.
// Returns the worker's share.
func (p *Program) payoutToWorker(ctx *runtime.ExecutionContext, escrowAcc, workerAcc, platformAcc *runtime.AccountInfo, amount uint64) (uint64, error) {
	fee, err := platformFee(amount)
	if err != nil {
		return 0, err
	}
	if fee > amount {
		return 0, ErrArithmeticError
	}
	workerPayment := amount - fee

	if err := ctx.TransferLamports(escrowAcc, workerAcc, workerPayment); err != nil {
		return 0, err
	}
	if err := ctx.TransferLamports(escrowAcc, platformAcc, fee); err != nil {
		return 0, err
	}
	return workerPayment, nil
}

// requirePlatform checks that the fee destination account is the platform
// wallet.
func (p *Program) requirePlatform(acc *runtime.AccountInfo) error {
	if acc.Key != p.PlatformWallet {
		return ErrInvalidAccount
	}
	return nil
}

// processReleaseToWorker pays the worker at the platform authority's
// direction, from Active or PendingReview.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] platform authority (signer)
//   [2] worker (writable)
//   [3] platform fee wallet (writable)
func (p *Program) processReleaseToWorker(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 4)
	if err != nil {
		return err
	}
	escrowAcc, authorityAcc, workerAcc, platformAcc := accs[0], accs[1], accs[2], accs[3]

	if err := requireSigner(authorityAcc); err != nil {
		return err
	}
	if authorityAcc.Key != p.PlatformWallet {
		return ErrUnauthorized
	}
	if err := p.requirePlatform(platformAcc); err != nil {
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
	if workerAcc.Key != e.Worker {
		return ErrInvalidAccount
	}

	if _, err := p.payoutToWorker(ctx, escrowAcc, workerAcc, platformAcc, e.Amount); err != nil {
		return err
	}
	e.Status = StatusReleased
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("Released")
	return nil
}

// processApproveWork pays the worker on the poster's approval of
// submitted work.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] poster (signer)
//   [2] worker (writable)
//   [3] platform fee wallet (writable)
func (p *Program) processApproveWork(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 4)
	if err != nil {
		return err
	}
	escrowAcc, posterAcc, workerAcc, platformAcc := accs[0], accs[1], accs[2], accs[3]

	if err := requireSigner(posterAcc); err != nil {
		return err
	}
	if err := p.requirePlatform(platformAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}

	if e.Status != StatusPendingReview {
		return ErrInvalidStatus
	}
	if posterAcc.Key != e.Poster {
		return ErrUnauthorized
	}
	if workerAcc.Key != e.Worker {
		return ErrInvalidAccount
	}

	if _, err := p.payoutToWorker(ctx, escrowAcc, workerAcc, platformAcc, e.Amount); err != nil {
		return err
	}
	e.Status = StatusReleased
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("Released")
	return nil
}

// processAutoRelease pays the worker once the review window lapses with
// no poster action. Any signer may crank it.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] cranker (signer)
//   [2] worker (writable)
//   [3] platform fee wallet (writable)
func (p *Program) processAutoRelease(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 4)
	if err != nil {
		return err
	}
	escrowAcc, crankerAcc, workerAcc, platformAcc := accs[0], accs[1], accs[2], accs[3]

	if err := requireSigner(crankerAcc); err != nil {
		return err
	}
	if err := p.requirePlatform(platformAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}

	if e.Status != StatusPendingReview {
		return ErrInvalidStatus
	}
	if workerAcc.Key != e.Worker {
		return ErrInvalidAccount
	}
	if e.SubmittedAt == 0 {
		return ErrInvalidStatus
	}

	now, _ := ctx.Clock()
	if now < e.SubmittedAt+ReviewWindowSeconds {
		return ErrDeadlineNotReached
	}

	if _, err := p.payoutToWorker(ctx, escrowAcc, workerAcc, platformAcc, e.Amount); err != nil {
		return err
	}
	e.Status = StatusReleased
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("Released")
	return nil
}

// processReleaseWithReputation pays the worker and credits both sides'
// reputation accounts in the same instruction. The reputation PDAs are
// re-derived from the worker and poster recorded in the escrow, never
// from caller-supplied keys.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] platform authority (signer)
//   [2] worker (writable)
//   [3] platform fee wallet (writable)
//   [4] worker reputation PDA (writable)
//   [5] poster reputation PDA (writable)
func (p *Program) processReleaseWithReputation(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 6)
	if err != nil {
		return err
	}
	escrowAcc, authorityAcc, workerAcc, platformAcc := accs[0], accs[1], accs[2], accs[3]
	workerRepAcc, posterRepAcc := accs[4], accs[5]

	if err := requireSigner(authorityAcc); err != nil {
		return err
	}
	if authorityAcc.Key != p.PlatformWallet {
		return ErrUnauthorized
	}
	if err := p.requirePlatform(platformAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}
	if err := requireWritable(workerRepAcc); err != nil {
		return err
	}
	if err := requireWritable(posterRepAcc); err != nil {
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
	if workerAcc.Key != e.Worker {
		return ErrInvalidAccount
	}

	workerRep, err := p.loadReputationChecked(workerRepAcc, e.Worker)
	if err != nil {
		return err
	}
	posterRep, err := p.loadReputationChecked(posterRepAcc, e.Poster)
	if err != nil {
		return err
	}

	workerPayment, err := p.payoutToWorker(ctx, escrowAcc, workerAcc, platformAcc, e.Amount)
	if err != nil {
		return err
	}

	workerRep.JobsCompleted++
	workerRep.TotalEarned += workerPayment
	workerRep.UpdateScore()

	posterRep.JobsPosted++
	posterRep.TotalSpent += e.Amount
	posterRep.UpdateScore()

	e.Status = StatusReleased
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}
	if err := workerRep.Store(workerRepAcc.Data); err != nil {
		return err
	}
	if err := posterRep.Store(posterRepAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("Released")
	return nil
}
