// Package escrow implements the job-payment escrow program.
//
// A poster locks lamports into an escrow account derived from the job id;
// a worker performs the job off-chain; the poster, the platform authority,
// a permissionless crank, or a five-member arbitrator panel drives the
// funds to a terminal distribution. All state lives in program-owned
// accounts with fixed binary layouts; every instruction either commits all
// of its effects or fails with a program error and changes nothing.
package escrow

import (
	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// ProgramID identifies the deployed escrow program.
var ProgramID = types.MustPubkeyFromBase58("27YquD9ZJvjLfELseqgawEMZq1mD1betBQZz5RgehNZr")

// PlatformWallet is the platform authority and fee destination.
var PlatformWallet = types.MustPubkeyFromBase58("BpH7T5tijFRSyPhMn62WcgGFjHEUMJ8WXQfJ2GAfB893")

// PDA seed prefixes.
var (
	SeedEscrow        = []byte("escrow")
	SeedReputation    = []byte("reputation")
	SeedPool          = []byte("arbitrator_pool_v2")
	SeedArbitrator    = []byte("arbitrator")
	SeedDispute       = []byte("dispute")
	SeedAccuracyClaim = []byte("accuracy_claim")
)

// Opcode is the single-byte instruction discriminator.
type Opcode uint8

// Instruction opcodes.
const (
	OpCreateEscrow             Opcode = 0
	OpAssignWorker             Opcode = 1
	OpSubmitWork               Opcode = 2
	OpReleaseToWorker          Opcode = 3
	OpApproveWork              Opcode = 4
	OpAutoRelease              Opcode = 5
	OpInitiateDispute          Opcode = 6
	OpRefundToPoster           Opcode = 7
	OpClaimExpired             Opcode = 8
	OpCancelEscrow             Opcode = 9
	OpCloseEscrow              Opcode = 10
	OpInitReputation           Opcode = 11
	OpReleaseWithReputation    Opcode = 12
	OpInitArbitratorPool       Opcode = 13
	OpRegisterArbitrator       Opcode = 14
	OpUnregisterArbitrator     Opcode = 15
	OpRaiseDisputeCase         Opcode = 16
	OpCastArbitrationVote      Opcode = 17
	OpFinalizeDisputeCase      Opcode = 18
	OpExecuteDisputeResolution Opcode = 19
	OpUpdateArbitratorAccuracy Opcode = 20
	OpClaimExpiredArbitration  Opcode = 21
	OpRemoveArbitrator         Opcode = 22
	OpCloseDisputeCase         Opcode = 23
	OpCloseArbitratorAccount   Opcode = 24
)

// Program is the escrow program bound to its identity and platform key.
type Program struct {
	ID             types.Pubkey
	PlatformWallet types.Pubkey
}

// New creates the program with its deployed identity.
func New() *Program {
	return &Program{
		ID:             ProgramID,
		PlatformWallet: PlatformWallet,
	}
}

// Execute routes one instruction to its handler. The first byte of the
// instruction data selects the opcode; the remainder is the opcode's
// fixed payload.
func (p *Program) Execute(ctx *runtime.ExecutionContext) error {
	if len(ctx.InstructionData) == 0 {
		return ErrInvalidInstructionData
	}
	op := Opcode(ctx.InstructionData[0])
	data := ctx.InstructionData[1:]

	switch op {
	case OpCreateEscrow:
		return p.processCreateEscrow(ctx, data)
	case OpAssignWorker:
		return p.processAssignWorker(ctx, data)
	case OpSubmitWork:
		return p.processSubmitWork(ctx, data)
	case OpReleaseToWorker:
		return p.processReleaseToWorker(ctx)
	case OpApproveWork:
		return p.processApproveWork(ctx)
	case OpAutoRelease:
		return p.processAutoRelease(ctx)
	case OpInitiateDispute:
		return p.processInitiateDispute(ctx)
	case OpRefundToPoster:
		return p.processRefundToPoster(ctx)
	case OpClaimExpired:
		return p.processClaimExpired(ctx)
	case OpCancelEscrow:
		return p.processCancelEscrow(ctx)
	case OpCloseEscrow:
		return p.processCloseEscrow(ctx)
	case OpInitReputation:
		return p.processInitReputation(ctx)
	case OpReleaseWithReputation:
		return p.processReleaseWithReputation(ctx)
	case OpInitArbitratorPool:
		return p.processInitArbitratorPool(ctx)
	case OpRegisterArbitrator:
		return p.processRegisterArbitrator(ctx)
	case OpUnregisterArbitrator:
		return p.processUnregisterArbitrator(ctx)
	case OpRaiseDisputeCase:
		return p.processRaiseDisputeCase(ctx, data)
	case OpCastArbitrationVote:
		return p.processCastArbitrationVote(ctx, data)
	case OpFinalizeDisputeCase:
		return p.processFinalizeDisputeCase(ctx)
	case OpExecuteDisputeResolution:
		return p.processExecuteDisputeResolution(ctx)
	case OpUpdateArbitratorAccuracy:
		return p.processUpdateArbitratorAccuracy(ctx)
	case OpClaimExpiredArbitration:
		return p.processClaimExpiredArbitration(ctx)
	case OpRemoveArbitrator:
		return p.processRemoveArbitrator(ctx)
	case OpCloseDisputeCase:
		return p.processCloseDisputeCase(ctx)
	case OpCloseArbitratorAccount:
		return p.processCloseArbitratorAccount(ctx)
	default:
		return ErrInvalidInstructionData
	}
}

// EscrowAddress derives the escrow PDA for a job hash and poster.
func (p *Program) EscrowAddress(jobIDHash [32]byte, poster types.Pubkey) (types.Pubkey, uint8, error) {
	return runtime.FindProgramAddress([][]byte{SeedEscrow, jobIDHash[:], poster[:]}, p.ID)
}

// ReputationAddress derives the reputation PDA for an agent.
func (p *Program) ReputationAddress(agent types.Pubkey) (types.Pubkey, uint8, error) {
	return runtime.FindProgramAddress([][]byte{SeedReputation, agent[:]}, p.ID)
}

// PoolAddress derives the singleton arbitrator pool PDA.
func (p *Program) PoolAddress() (types.Pubkey, uint8, error) {
	return runtime.FindProgramAddress([][]byte{SeedPool}, p.ID)
}

// ArbitratorAddress derives the arbitrator entry PDA for an agent.
func (p *Program) ArbitratorAddress(agent types.Pubkey) (types.Pubkey, uint8, error) {
	return runtime.FindProgramAddress([][]byte{SeedArbitrator, agent[:]}, p.ID)
}

// DisputeAddress derives the dispute case PDA for an escrow.
func (p *Program) DisputeAddress(escrow types.Pubkey) (types.Pubkey, uint8, error) {
	return runtime.FindProgramAddress([][]byte{SeedDispute, escrow[:]}, p.ID)
}

// AccuracyClaimAddress derives the accuracy claim PDA for a case and
// arbitrator.
func (p *Program) AccuracyClaimAddress(disputeCase, arbitrator types.Pubkey) (types.Pubkey, uint8, error) {
	return runtime.FindProgramAddress([][]byte{SeedAccuracyClaim, disputeCase[:], arbitrator[:]}, p.ID)
}
