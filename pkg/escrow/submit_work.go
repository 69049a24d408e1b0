package escrow

import (
	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
)

// submitWorkArgs is the SubmitWork payload:
// has_proof_u8, then proof_hash[32] when has_proof is nonzero.
type submitWorkArgs struct {
	ProofHash    [32]byte
	HasProofHash bool
}

func parseSubmitWorkArgs(data []byte) (*submitWorkArgs, error) {
	args := &submitWorkArgs{}
	if len(data) == 0 || data[0] == 0 {
		return args, nil
	}
	if len(data) < 33 {
		return nil, ErrInvalidInstructionData
	}
	args.HasProofHash = true
	copy(args.ProofHash[:], data[1:33])
	return args, nil
}

// processSubmitWork moves an active escrow into review. The worker must
// leave at least the review buffer before expiry, so a submission cannot
// land moments before the poster's claim window opens.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] worker (signer)
func (p *Program) processSubmitWork(ctx *runtime.ExecutionContext, data []byte) error {
	accs, err := accountSlice(ctx, 2)
	if err != nil {
		return err
	}
	escrowAcc, workerAcc := accs[0], accs[1]

	args, err := parseSubmitWorkArgs(data)
	if err != nil {
		return err
	}
	if err := requireSigner(workerAcc); err != nil {
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
	if !e.HasWorker() {
		return ErrNoWorkerAssigned
	}
	if workerAcc.Key != e.Worker {
		return ErrUnauthorized
	}

	now, _ := ctx.Clock()
	if now+MinReviewBufferSeconds > e.ExpiresAt {
		return ErrInsufficientReviewTime
	}

	e.Status = StatusPendingReview
	e.SubmittedAt = now
	if args.HasProofHash {
		e.ProofHash = args.ProofHash
		e.HasProofHash = true
	}
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("WorkSubmitted")
	return nil
}
