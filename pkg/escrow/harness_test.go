package escrow

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

const testNow = int64(1_700_000_000)

// testKey derives a deterministic wallet pubkey from a seed string.
func testKey(seed string) types.Pubkey {
	h := sha256.Sum256([]byte(seed))
	return types.Pubkey(h)
}

// env drives the program directly against in-memory account infos.
type env struct {
	t       *testing.T
	program *Program
	now     int64
	slot    uint64
}

func newEnv(t *testing.T) *env {
	return &env{
		t:       t,
		program: &Program{ID: ProgramID, PlatformWallet: testKey("platform-wallet")},
		now:     testNow,
		slot:    42,
	}
}

func (e *env) execute(data []byte, accs ...*runtime.AccountInfo) error {
	ctx := runtime.NewExecutionContext(e.program.ID, accs, data)
	ctx.UnixTimestamp = e.now
	ctx.Slot = e.slot
	ctx.SlotHashes = []runtime.SlotHash{
		{Slot: e.slot - 1, Hash: types.SHA256([]byte("recent-slot-hash"))},
	}
	return e.program.Execute(ctx)
}

// wallet builds a funded system-owned signer account.
func wallet(key types.Pubkey, lamports uint64) *runtime.AccountInfo {
	return runtime.NewAccountInfo(key, lamports, nil, types.SystemProgramID, true, true)
}

// recipient builds a writable non-signer account.
func recipient(key types.Pubkey, lamports uint64) *runtime.AccountInfo {
	return runtime.NewAccountInfo(key, lamports, nil, types.SystemProgramID, false, true)
}

// emptyPDA builds the unallocated target for a create instruction.
func emptyPDA(key types.Pubkey) *runtime.AccountInfo {
	return runtime.NewAccountInfo(key, 0, nil, types.SystemProgramID, false, true)
}

// systemAccount is the system program slot handlers expect.
func systemAccount() *runtime.AccountInfo {
	return runtime.NewAccountInfo(types.SystemProgramID, 0, nil, types.SystemProgramID, false, false)
}

func (e *env) platformAccount() *runtime.AccountInfo {
	return recipient(e.program.PlatformWallet, 0)
}

func (e *env) platformSigner() *runtime.AccountInfo {
	return wallet(e.program.PlatformWallet, 1_000_000_000)
}

// Instruction payload builders.

func createEscrowData(hash [32]byte, amount uint64, expiry int64) []byte {
	data := make([]byte, 49)
	data[0] = byte(OpCreateEscrow)
	copy(data[1:33], hash[:])
	binary.LittleEndian.PutUint64(data[33:41], amount)
	binary.LittleEndian.PutUint64(data[41:49], uint64(expiry))
	return data
}

func assignWorkerData(worker types.Pubkey) []byte {
	data := make([]byte, 33)
	data[0] = byte(OpAssignWorker)
	copy(data[1:33], worker[:])
	return data
}

func submitWorkData(proof *[32]byte) []byte {
	if proof == nil {
		return []byte{byte(OpSubmitWork), 0}
	}
	data := make([]byte, 34)
	data[0] = byte(OpSubmitWork)
	data[1] = 1
	copy(data[2:34], proof[:])
	return data
}

func opOnly(op Opcode) []byte {
	return []byte{byte(op)}
}

func raiseDisputeData(reason string) []byte {
	data := make([]byte, 3+len(reason))
	data[0] = byte(OpRaiseDisputeCase)
	binary.LittleEndian.PutUint16(data[1:3], uint16(len(reason)))
	copy(data[3:], reason)
	return data
}

func castVoteData(v Vote) []byte {
	return []byte{byte(OpCastArbitrationVote), byte(v)}
}

// Rent fixtures.

func escrowRent() uint64 {
	return uint64(types.RentExemptMinimum(JobEscrowSpace))
}

func entryRent() uint64 {
	return uint64(types.RentExemptMinimum(ArbitratorEntrySpace))
}

func disputeRent() uint64 {
	return uint64(types.RentExemptMinimum(DisputeCaseSpace))
}

// createEscrow creates an escrow with default expiry and returns its
// account and the poster account.
func (e *env) createEscrow(jobID string, amount uint64) (*runtime.AccountInfo, *runtime.AccountInfo) {
	e.t.Helper()
	poster := wallet(testKey("poster-"+jobID), amount+escrowRent()+1_000_000_000)
	hash := sha256.Sum256([]byte(jobID))
	pda, _, err := e.program.EscrowAddress(hash, poster.Key)
	if err != nil {
		e.t.Fatalf("derive escrow pda: %v", err)
	}
	escrowAcc := emptyPDA(pda)
	if err := e.execute(createEscrowData(hash, amount, 0), escrowAcc, poster, systemAccount()); err != nil {
		e.t.Fatalf("create escrow: %v", err)
	}
	return escrowAcc, poster
}

// assignWorker assigns a fresh worker wallet and returns it.
func (e *env) assignWorker(escrowAcc, poster *runtime.AccountInfo, name string) *runtime.AccountInfo {
	e.t.Helper()
	worker := wallet(testKey(name), 1_000_000_000)
	if err := e.execute(assignWorkerData(worker.Key), escrowAcc, poster); err != nil {
		e.t.Fatalf("assign worker: %v", err)
	}
	return worker
}

// loadEscrowState decodes the escrow account for assertions.
func (e *env) loadEscrowState(acc *runtime.AccountInfo) *JobEscrow {
	e.t.Helper()
	state, err := LoadJobEscrow(acc.Data)
	if err != nil {
		e.t.Fatalf("load escrow state: %v", err)
	}
	return state
}

// initPool creates the arbitrator pool and returns its account.
func (e *env) initPool() *runtime.AccountInfo {
	e.t.Helper()
	pda, _, err := e.program.PoolAddress()
	if err != nil {
		e.t.Fatalf("derive pool pda: %v", err)
	}
	poolAcc := emptyPDA(pda)
	if err := e.execute(opOnly(OpInitArbitratorPool), poolAcc, e.platformSigner(), systemAccount()); err != nil {
		e.t.Fatalf("init pool: %v", err)
	}
	return poolAcc
}

// registerArbitrator stakes a fresh agent and returns (agent, entry).
func (e *env) registerArbitrator(poolAcc *runtime.AccountInfo, name string) (*runtime.AccountInfo, *runtime.AccountInfo) {
	e.t.Helper()
	agent := wallet(testKey(name), MinArbitratorStake+entryRent()+1_000_000)
	pda, _, err := e.program.ArbitratorAddress(agent.Key)
	if err != nil {
		e.t.Fatalf("derive entry pda: %v", err)
	}
	entryAcc := emptyPDA(pda)
	if err := e.execute(opOnly(OpRegisterArbitrator), poolAcc, entryAcc, agent, systemAccount()); err != nil {
		e.t.Fatalf("register arbitrator %s: %v", name, err)
	}
	return agent, entryAcc
}

// raiseDispute opens a dispute case raised by the given initiator.
func (e *env) raiseDispute(escrowAcc, poolAcc, initiator *runtime.AccountInfo, reason string) *runtime.AccountInfo {
	e.t.Helper()
	pda, _, err := e.program.DisputeAddress(escrowAcc.Key)
	if err != nil {
		e.t.Fatalf("derive dispute pda: %v", err)
	}
	disputeAcc := emptyPDA(pda)
	if err := e.execute(raiseDisputeData(reason), escrowAcc, disputeAcc, poolAcc, initiator, systemAccount()); err != nil {
		e.t.Fatalf("raise dispute: %v", err)
	}
	return disputeAcc
}

// initReputation bootstraps a reputation account for an agent key.
func (e *env) initReputation(agent types.Pubkey) *runtime.AccountInfo {
	e.t.Helper()
	pda, _, err := e.program.ReputationAddress(agent)
	if err != nil {
		e.t.Fatalf("derive reputation pda: %v", err)
	}
	repAcc := emptyPDA(pda)
	payer := wallet(testKey("rep-payer"), 1_000_000_000)
	agentAcc := runtime.NewAccountInfo(agent, 0, nil, types.SystemProgramID, false, false)
	if err := e.execute(opOnly(OpInitReputation), repAcc, agentAcc, payer, systemAccount()); err != nil {
		e.t.Fatalf("init reputation: %v", err)
	}
	return repAcc
}
