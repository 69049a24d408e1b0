package escrow

import (
	"encoding/binary"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// createEscrowArgs is the CreateEscrow payload:
// job_id_hash[32] amount_u64 expiry_i64 (0 = default expiry).
type createEscrowArgs struct {
	JobIDHash     [32]byte
	Amount        uint64
	ExpirySeconds int64
}

func parseCreateEscrowArgs(data []byte) (*createEscrowArgs, error) {
	if len(data) < 48 {
		return nil, ErrInvalidInstructionData
	}
	args := &createEscrowArgs{}
	copy(args.JobIDHash[:], data[0:32])
	args.Amount = binary.LittleEndian.Uint64(data[32:40])
	args.ExpirySeconds = int64(binary.LittleEndian.Uint64(data[40:48]))
	return args, nil
}

// processCreateEscrow allocates the escrow PDA and locks the job payment
// inside it.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] poster (signer, writable)
//   [2] system program
func (p *Program) processCreateEscrow(ctx *runtime.ExecutionContext, data []byte) error {
	accs, err := accountSlice(ctx, 3)
	if err != nil {
		return err
	}
	escrowAcc, posterAcc := accs[0], accs[1]

	args, err := parseCreateEscrowArgs(data)
	if err != nil {
		return err
	}
	if err := requireSigner(posterAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}

	if args.Amount < MinEscrowAmount {
		return ErrInvalidAmount
	}

	expiry := args.ExpirySeconds
	if expiry == 0 {
		expiry = DefaultExpirySeconds
	}
	if expiry < MinExpirySeconds || expiry > MaxExpirySeconds {
		return ErrInvalidExpiry
	}

	now, _ := ctx.Clock()

	seeds := [][]byte{SeedEscrow, args.JobIDHash[:], posterAcc.Key[:]}
	expected, bump, err := runtime.FindProgramAddress(seeds, p.ID)
	if err != nil {
		return ErrInvalidPda
	}
	if escrowAcc.Key != expected {
		return ErrInvalidPda
	}

	rentLamports := uint64(types.RentExemptMinimum(JobEscrowSpace))
	total := rentLamports + args.Amount
	if total < args.Amount {
		return ErrArithmeticError
	}

	if err := ctx.CreateProgramAccount(posterAcc, escrowAcc, seeds, bump, JobEscrowSpace, total); err != nil {
		return err
	}
	if err := InitJobEscrow(escrowAcc.Data); err != nil {
		return err
	}

	e := &JobEscrow{
		JobIDHash: args.JobIDHash,
		Poster:    posterAcc.Key,
		Worker:    types.ZeroPubkey,
		Amount:    args.Amount,
		Status:    StatusActive,
		CreatedAt: now,
		ExpiresAt: now + expiry,
		Bump:      bump,
	}
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("EscrowCreated")
	return nil
}
