package escrow

import (
	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// processInitReputation creates an agent's reputation account with all
// counters at zero. Anyone may pay to bootstrap a reputation for anyone;
// the agent account carries no signer requirement.
//
// Accounts:
//   [0] reputation PDA (writable)
//   [1] agent
//   [2] payer (signer, writable)
//   [3] system program
func (p *Program) processInitReputation(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 4)
	if err != nil {
		return err
	}
	reputationAcc, agentAcc, payerAcc := accs[0], accs[1], accs[2]

	if err := requireSigner(payerAcc); err != nil {
		return err
	}
	if err := requireWritable(reputationAcc); err != nil {
		return err
	}

	seeds := [][]byte{SeedReputation, agentAcc.Key[:]}
	expected, bump, err := runtime.FindProgramAddress(seeds, p.ID)
	if err != nil {
		return ErrInvalidPda
	}
	if reputationAcc.Key != expected {
		return ErrInvalidPda
	}

	rentLamports := uint64(types.RentExemptMinimum(AgentReputationSpace))
	if err := ctx.CreateProgramAccount(payerAcc, reputationAcc, seeds, bump, AgentReputationSpace, rentLamports); err != nil {
		return err
	}
	if err := InitAgentReputation(reputationAcc.Data); err != nil {
		return err
	}

	now, _ := ctx.Clock()
	rep := &AgentReputation{
		Agent:     agentAcc.Key,
		CreatedAt: now,
		Bump:      bump,
	}
	return rep.Store(reputationAcc.Data)
}
