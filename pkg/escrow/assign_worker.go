package escrow

import (
	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// processAssignWorker records the worker on an active, unassigned escrow.
// The poster or the platform authority may assign.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] initiator (signer)
func (p *Program) processAssignWorker(ctx *runtime.ExecutionContext, data []byte) error {
	accs, err := accountSlice(ctx, 2)
	if err != nil {
		return err
	}
	escrowAcc, initiatorAcc := accs[0], accs[1]

	if len(data) < 32 {
		return ErrInvalidInstructionData
	}
	worker, err := types.PubkeyFromBytes(data[0:32])
	if err != nil {
		return ErrInvalidInstructionData
	}

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

	if e.Status != StatusActive {
		return ErrInvalidStatus
	}
	if e.HasWorker() {
		return ErrWorkerAlreadyAssigned
	}
	if worker.IsZero() || worker == e.Poster {
		return ErrInvalidWorker
	}
	if initiatorAcc.Key != e.Poster && initiatorAcc.Key != p.PlatformWallet {
		return ErrUnauthorized
	}

	e.Worker = worker
	return e.Store(escrowAcc.Data)
}
