package escrow

import (
	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
)

// processCloseEscrow zeroes a terminal escrow account and returns its
// remaining lamports (the rent deposit) to the poster. When the escrow
// went through arbitration, the dispute case must already be closed.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] poster (signer, writable)
//   [2] dispute case PDA (only when the escrow has one)
func (p *Program) processCloseEscrow(ctx *runtime.ExecutionContext) error {
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

	if !e.Status.IsTerminal() {
		return ErrCannotClose
	}
	if posterAcc.Key != e.Poster {
		return ErrUnauthorized
	}

	if e.HasDisputeCase {
		caseAcc, err := ctx.Account(2)
		if err != nil {
			return ErrNotEnoughAccounts
		}
		if caseAcc.Key != e.DisputeCase {
			return ErrEscrowMismatch
		}
		if !isZeroed(caseAcc.Data) {
			return ErrCannotClose
		}
	}

	return ctx.CloseAccount(escrowAcc, posterAcc)
}

// processCloseDisputeCase zeroes an executed dispute case and returns its
// rent to whoever raised it. Only the raiser may close: the rent deposit
// is theirs.
//
// Accounts:
//   [0] dispute case PDA (writable)
//   [1] escrow PDA
//   [2] raiser (signer, writable)
func (p *Program) processCloseDisputeCase(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 3)
	if err != nil {
		return err
	}
	disputeAcc, escrowAcc, raiserAcc := accs[0], accs[1], accs[2]

	if err := requireSigner(raiserAcc); err != nil {
		return err
	}
	if err := requireWritable(disputeAcc); err != nil {
		return err
	}

	d, err := p.loadDisputeChecked(disputeAcc)
	if err != nil {
		return err
	}

	if !d.IsResolved() {
		return ErrDisputeNotResolved
	}
	if raiserAcc.Key != d.RaisedBy {
		return ErrUnauthorized
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}
	if d.Escrow != escrowAcc.Key {
		return ErrEscrowMismatch
	}
	if e.Status != StatusReleased && e.Status != StatusRefunded {
		return ErrCannotClose
	}

	return ctx.CloseAccount(disputeAcc, raiserAcc)
}
