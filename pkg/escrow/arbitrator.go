package escrow

import (
	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// processInitArbitratorPool allocates the singleton pool. Platform
// authority only.
//
// Accounts:
//   [0] pool PDA (writable)
//   [1] platform authority (signer, writable)
//   [2] system program
func (p *Program) processInitArbitratorPool(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 3)
	if err != nil {
		return err
	}
	poolAcc, authorityAcc := accs[0], accs[1]

	if err := requireSigner(authorityAcc); err != nil {
		return err
	}
	if authorityAcc.Key != p.PlatformWallet {
		return ErrUnauthorized
	}
	if err := requireWritable(poolAcc); err != nil {
		return err
	}

	seeds := [][]byte{SeedPool}
	expected, bump, err := runtime.FindProgramAddress(seeds, p.ID)
	if err != nil {
		return ErrInvalidPda
	}
	if poolAcc.Key != expected {
		return ErrInvalidPda
	}

	rentLamports := uint64(types.RentExemptMinimum(ArbitratorPoolSpace))
	if err := ctx.CreateProgramAccount(authorityAcc, poolAcc, seeds, bump, ArbitratorPoolSpace, rentLamports); err != nil {
		return err
	}
	if err := InitArbitratorPoolData(poolAcc.Data); err != nil {
		return err
	}

	pool := &ArbitratorPool{
		Authority: authorityAcc.Key,
		MinStake:  MinArbitratorStake,
		Bump:      bump,
	}
	return pool.Store(poolAcc.Data)
}

// processRegisterArbitrator stakes the agent into a fresh entry account
// and appends it to the pool.
//
// Accounts:
//   [0] pool PDA (writable)
//   [1] arbitrator entry PDA (writable)
//   [2] agent (signer, writable)
//   [3] system program
func (p *Program) processRegisterArbitrator(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 4)
	if err != nil {
		return err
	}
	poolAcc, entryAcc, agentAcc := accs[0], accs[1], accs[2]

	if err := requireSigner(agentAcc); err != nil {
		return err
	}
	if err := requireWritable(poolAcc); err != nil {
		return err
	}
	if err := requireWritable(entryAcc); err != nil {
		return err
	}

	pool, err := p.loadPoolChecked(poolAcc)
	if err != nil {
		return err
	}

	seeds := [][]byte{SeedArbitrator, agentAcc.Key[:]}
	expected, bump, err := runtime.FindProgramAddress(seeds, p.ID)
	if err != nil {
		return ErrInvalidPda
	}
	if entryAcc.Key != expected {
		return ErrInvalidPda
	}

	if err := pool.Add(agentAcc.Key); err != nil {
		return err
	}

	rentLamports := uint64(types.RentExemptMinimum(ArbitratorEntrySpace))
	total := rentLamports + pool.MinStake
	if total < pool.MinStake {
		return ErrArithmeticError
	}
	if err := ctx.CreateProgramAccount(agentAcc, entryAcc, seeds, bump, ArbitratorEntrySpace, total); err != nil {
		return err
	}
	if err := InitArbitratorEntry(entryAcc.Data); err != nil {
		return err
	}

	now, _ := ctx.Clock()
	entry := &ArbitratorEntry{
		Agent:        agentAcc.Key,
		Stake:        pool.MinStake,
		IsActive:     true,
		RegisteredAt: now,
		Bump:         bump,
	}
	if err := entry.Store(entryAcc.Data); err != nil {
		return err
	}
	return pool.Store(poolAcc.Data)
}

// processUnregisterArbitrator deactivates the caller's entry, returns the
// stake, and compacts the pool. The entry keeps its rent until closed.
//
// Accounts:
//   [0] pool PDA (writable)
//   [1] arbitrator entry PDA (writable)
//   [2] agent (signer, writable)
func (p *Program) processUnregisterArbitrator(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 3)
	if err != nil {
		return err
	}
	poolAcc, entryAcc, agentAcc := accs[0], accs[1], accs[2]

	if err := requireSigner(agentAcc); err != nil {
		return err
	}
	return p.deactivateArbitrator(ctx, poolAcc, entryAcc, agentAcc, agentAcc.Key)
}

// processRemoveArbitrator is the authority-gated variant of unregister.
//
// Accounts:
//   [0] pool PDA (writable)
//   [1] arbitrator entry PDA (writable)
//   [2] arbitrator agent (writable)
//   [3] platform authority (signer)
func (p *Program) processRemoveArbitrator(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 4)
	if err != nil {
		return err
	}
	poolAcc, entryAcc, agentAcc, authorityAcc := accs[0], accs[1], accs[2], accs[3]

	if err := requireSigner(authorityAcc); err != nil {
		return err
	}
	if authorityAcc.Key != p.PlatformWallet {
		return ErrUnauthorized
	}
	return p.deactivateArbitrator(ctx, poolAcc, entryAcc, agentAcc, agentAcc.Key)
}

// deactivateArbitrator is the shared removal path: flips the entry
// inactive, returns the stake to the agent, and drops the agent from the
// pool.
func (p *Program) deactivateArbitrator(ctx *runtime.ExecutionContext, poolAcc, entryAcc, agentAcc *runtime.AccountInfo, agent types.Pubkey) error {
	if err := requireWritable(poolAcc); err != nil {
		return err
	}
	if err := requireWritable(entryAcc); err != nil {
		return err
	}
	if err := requireWritable(agentAcc); err != nil {
		return err
	}

	pool, err := p.loadPoolChecked(poolAcc)
	if err != nil {
		return err
	}
	entry, err := p.loadEntryChecked(entryAcc)
	if err != nil {
		return err
	}

	if !entry.IsActive {
		return ErrArbitratorNotActive
	}
	if entry.Agent != agent {
		return ErrUnauthorized
	}
	if err := pool.Remove(agent); err != nil {
		return err
	}

	entry.IsActive = false
	stake := entry.Stake
	entry.Stake = 0

	if err := ctx.TransferLamports(entryAcc, agentAcc, stake); err != nil {
		return err
	}
	if err := entry.Store(entryAcc.Data); err != nil {
		return err
	}
	return pool.Store(poolAcc.Data)
}

// processCloseArbitratorAccount reclaims the entry's rent once the
// arbitrator is inactive and out of the pool.
//
// Accounts:
//   [0] pool PDA
//   [1] arbitrator entry PDA (writable)
//   [2] agent (signer, writable)
func (p *Program) processCloseArbitratorAccount(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 3)
	if err != nil {
		return err
	}
	poolAcc, entryAcc, agentAcc := accs[0], accs[1], accs[2]

	if err := requireSigner(agentAcc); err != nil {
		return err
	}
	if err := requireWritable(entryAcc); err != nil {
		return err
	}

	pool, err := p.loadPoolChecked(poolAcc)
	if err != nil {
		return err
	}
	entry, err := p.loadEntryChecked(entryAcc)
	if err != nil {
		return err
	}

	if entry.IsActive {
		return ErrArbitratorStillActive
	}
	if entry.Agent != agentAcc.Key {
		return ErrUnauthorized
	}
	if pool.Contains(agentAcc.Key) {
		return ErrArbitratorStillInPool
	}

	return ctx.CloseAccount(entryAcc, agentAcc)
}
