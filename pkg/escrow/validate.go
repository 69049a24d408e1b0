package escrow

import (
	"fmt"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// Canonical account checks. Every handler runs these before acting on an
// account: program ownership, PDA match against the seeds recorded in the
// loaded state, signer flags, and writability for mutation targets.

func (p *Program) requireOwned(acc *runtime.AccountInfo) error {
	if acc.Owner != p.ID {
		return fmt.Errorf("%w: %s", ErrIncorrectProgramId, acc.Key.String())
	}
	return nil
}

func requireSigner(acc *runtime.AccountInfo) error {
	if !acc.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, acc.Key.String())
	}
	return nil
}

func requireWritable(acc *runtime.AccountInfo) error {
	if !acc.IsWritable {
		return fmt.Errorf("%w: %s not writable", ErrInvalidAccount, acc.Key.String())
	}
	return nil
}

// verifyPda checks that key is the canonical PDA for the seed tuple and
// that the recorded bump matches the canonical one.
func (p *Program) verifyPda(key types.Pubkey, bump uint8, seeds ...[]byte) error {
	expected, expectedBump, err := runtime.FindProgramAddress(seeds, p.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPda, err)
	}
	if key != expected || bump != expectedBump {
		return fmt.Errorf("%w: %s", ErrInvalidPda, key.String())
	}
	return nil
}

// loadEscrowChecked loads an escrow account after the full owner + PDA
// validation. The PDA seeds come from the loaded state itself, so the
// account is re-derived and compared against its own claimed identity.
func (p *Program) loadEscrowChecked(acc *runtime.AccountInfo) (*JobEscrow, error) {
	if err := p.requireOwned(acc); err != nil {
		return nil, err
	}
	e, err := LoadJobEscrow(acc.Data)
	if err != nil {
		return nil, err
	}
	if err := p.verifyPda(acc.Key, e.Bump, SeedEscrow, e.JobIDHash[:], e.Poster[:]); err != nil {
		return nil, err
	}
	return e, nil
}

// loadPoolChecked loads the arbitrator pool after owner + PDA validation.
func (p *Program) loadPoolChecked(acc *runtime.AccountInfo) (*ArbitratorPool, error) {
	if err := p.requireOwned(acc); err != nil {
		return nil, err
	}
	pool, err := LoadArbitratorPool(acc.Data)
	if err != nil {
		return nil, err
	}
	if err := p.verifyPda(acc.Key, pool.Bump, SeedPool); err != nil {
		return nil, err
	}
	return pool, nil
}

// loadEntryChecked loads an arbitrator entry after owner + PDA validation.
func (p *Program) loadEntryChecked(acc *runtime.AccountInfo) (*ArbitratorEntry, error) {
	if err := p.requireOwned(acc); err != nil {
		return nil, err
	}
	e, err := LoadArbitratorEntry(acc.Data)
	if err != nil {
		return nil, err
	}
	if err := p.verifyPda(acc.Key, e.Bump, SeedArbitrator, e.Agent[:]); err != nil {
		return nil, err
	}
	return e, nil
}

// loadDisputeChecked loads a dispute case after owner + PDA validation.
func (p *Program) loadDisputeChecked(acc *runtime.AccountInfo) (*DisputeCase, error) {
	if err := p.requireOwned(acc); err != nil {
		return nil, err
	}
	d, err := LoadDisputeCase(acc.Data)
	if err != nil {
		return nil, err
	}
	if err := p.verifyPda(acc.Key, d.Bump, SeedDispute, d.Escrow[:]); err != nil {
		return nil, err
	}
	return d, nil
}

// loadReputationChecked loads a reputation account after owner + PDA
// validation against the agent it must belong to.
func (p *Program) loadReputationChecked(acc *runtime.AccountInfo, agent types.Pubkey) (*AgentReputation, error) {
	if err := p.requireOwned(acc); err != nil {
		return nil, err
	}
	r, err := LoadAgentReputation(acc.Data)
	if err != nil {
		return nil, err
	}
	if r.Agent != agent {
		return nil, fmt.Errorf("%w: reputation agent mismatch", ErrInvalidAccount)
	}
	if err := p.verifyPda(acc.Key, r.Bump, SeedReputation, agent[:]); err != nil {
		return nil, err
	}
	return r, nil
}

// accountSlice binds the first n positional accounts of the instruction.
func accountSlice(ctx *runtime.ExecutionContext, n int) ([]*runtime.AccountInfo, error) {
	if ctx.AccountCount() < n {
		return nil, ErrNotEnoughAccounts
	}
	return ctx.Accounts[:n], nil
}
