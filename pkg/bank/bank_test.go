package bank

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/accounts"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/escrow"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

const testNow = int64(1_700_000_000)

func testPubkey(seed string) types.Pubkey {
	return types.Pubkey(sha256.Sum256([]byte(seed)))
}

// fixture builds a bank over a fresh in-memory store with a funded poster.
type fixture struct {
	t        *testing.T
	db       *accounts.MemoryDB
	bank     *Bank
	program  *escrow.Program
	poster   types.Pubkey
	worker   types.Pubkey
	platform types.Pubkey
}

func newFixture(t *testing.T) *fixture {
	db := accounts.NewMemoryDB()
	program := &escrow.Program{ID: escrow.ProgramID, PlatformWallet: testPubkey("bank-platform")}
	b := New(db, program)
	b.SetClock(testNow, 7)
	b.PushSlotHash(6, types.SHA256([]byte("hash-6")))

	f := &fixture{
		t:        t,
		db:       db,
		bank:     b,
		program:  program,
		poster:   testPubkey("bank-poster"),
		worker:   testPubkey("bank-worker"),
		platform: program.PlatformWallet,
	}
	f.airdrop(f.poster, 10_000_000_000)
	f.airdrop(f.worker, 1_000_000_000)
	return f
}

func (f *fixture) airdrop(pk types.Pubkey, lamports uint64) {
	f.t.Helper()
	acc, err := f.db.GetAccount(pk)
	if err != nil {
		f.t.Fatalf("get: %v", err)
	}
	if acc == nil {
		acc = types.NewAccount(0, types.SystemProgramID)
	}
	acc.Lamports += types.Lamports(lamports)
	if err := f.db.SetAccount(pk, acc); err != nil {
		f.t.Fatalf("set: %v", err)
	}
}

func (f *fixture) balance(pk types.Pubkey) uint64 {
	f.t.Helper()
	acc, err := f.db.GetAccount(pk)
	if err != nil {
		f.t.Fatalf("get: %v", err)
	}
	if acc == nil {
		return 0
	}
	return uint64(acc.Lamports)
}

func (f *fixture) escrowPDA(jobID string) (types.Pubkey, [32]byte) {
	f.t.Helper()
	hash := sha256.Sum256([]byte(jobID))
	pda, _, err := f.program.EscrowAddress(hash, f.poster)
	if err != nil {
		f.t.Fatalf("derive: %v", err)
	}
	return pda, hash
}

func createEscrowTx(pda types.Pubkey, poster types.Pubkey, hash [32]byte, amount uint64) *Transaction {
	data := make([]byte, 49)
	data[0] = byte(escrow.OpCreateEscrow)
	copy(data[1:33], hash[:])
	binary.LittleEndian.PutUint64(data[33:41], amount)
	return &Transaction{
		Accounts: []AccountMeta{
			{Pubkey: pda, IsWritable: true},
			{Pubkey: poster, IsSigner: true, IsWritable: true},
			{Pubkey: types.SystemProgramID},
		},
		Data: data,
	}
}

func TestBankHappyPath(t *testing.T) {
	f := newFixture(t)
	amount := uint64(100_000_000)
	pda, hash := f.escrowPDA("bank-job-1")
	posterStart := f.balance(f.poster)

	logs, err := f.bank.Execute(createEscrowTx(pda, f.poster, hash, amount))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(logs) != 1 || logs[0] != "EscrowCreated" {
		t.Errorf("logs = %v", logs)
	}

	assign := &Transaction{
		Accounts: []AccountMeta{
			{Pubkey: pda, IsWritable: true},
			{Pubkey: f.poster, IsSigner: true, IsWritable: true},
		},
		Data: append([]byte{byte(escrow.OpAssignWorker)}, f.worker[:]...),
	}
	if _, err := f.bank.Execute(assign); err != nil {
		t.Fatalf("assign: %v", err)
	}

	submit := &Transaction{
		Accounts: []AccountMeta{
			{Pubkey: pda, IsWritable: true},
			{Pubkey: f.worker, IsSigner: true, IsWritable: true},
		},
		Data: []byte{byte(escrow.OpSubmitWork), 0},
	}
	if _, err := f.bank.Execute(submit); err != nil {
		t.Fatalf("submit: %v", err)
	}

	workerStart := f.balance(f.worker)
	approve := &Transaction{
		Accounts: []AccountMeta{
			{Pubkey: pda, IsWritable: true},
			{Pubkey: f.poster, IsSigner: true, IsWritable: true},
			{Pubkey: f.worker, IsWritable: true},
			{Pubkey: f.platform, IsWritable: true},
		},
		Data: []byte{byte(escrow.OpApproveWork)},
	}
	if _, err := f.bank.Execute(approve); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if got := f.balance(f.worker) - workerStart; got != 99_000_000 {
		t.Errorf("worker gained %d, want 99000000", got)
	}
	if got := f.balance(f.platform); got != 1_000_000 {
		t.Errorf("platform gained %d, want 1000000", got)
	}

	// Closing the escrow returns the rent; the poster ends down exactly
	// the escrowed amount.
	closeTx := &Transaction{
		Accounts: []AccountMeta{
			{Pubkey: pda, IsWritable: true},
			{Pubkey: f.poster, IsSigner: true, IsWritable: true},
		},
		Data: []byte{byte(escrow.OpCloseEscrow)},
	}
	if _, err := f.bank.Execute(closeTx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := posterStart - f.balance(f.poster); got != amount {
		t.Errorf("poster net spend %d, want %d", got, amount)
	}
	if f.db.HasAccount(pda) {
		t.Error("closed escrow account not reaped")
	}
}

func TestBankRollbackOnFailure(t *testing.T) {
	f := newFixture(t)
	pda, hash := f.escrowPDA("bank-job-2")

	if _, err := f.bank.Execute(createEscrowTx(pda, f.poster, hash, 50_000_000)); err != nil {
		t.Fatalf("create: %v", err)
	}
	digestBefore, err := f.bank.StateDigest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	posterBefore := f.balance(f.poster)

	// Cancel signed by the wrong key fails and must leave no trace.
	bad := &Transaction{
		Accounts: []AccountMeta{
			{Pubkey: pda, IsWritable: true},
			{Pubkey: f.worker, IsSigner: true, IsWritable: true},
		},
		Data: []byte{byte(escrow.OpCancelEscrow)},
	}
	if _, err := f.bank.Execute(bad); err == nil {
		t.Fatal("expected unauthorized cancel to fail")
	}

	digestAfter, err := f.bank.StateDigest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if digestBefore != digestAfter {
		t.Error("failed transaction changed program state")
	}
	if f.balance(f.poster) != posterBefore {
		t.Error("failed transaction moved lamports")
	}
}

func TestBankCreateCancelRoundTrip(t *testing.T) {
	f := newFixture(t)
	amount := uint64(30_000_000)
	pda, hash := f.escrowPDA("bank-job-3")
	posterStart := f.balance(f.poster)

	if _, err := f.bank.Execute(createEscrowTx(pda, f.poster, hash, amount)); err != nil {
		t.Fatalf("create: %v", err)
	}

	cancel := &Transaction{
		Accounts: []AccountMeta{
			{Pubkey: pda, IsWritable: true},
			{Pubkey: f.poster, IsSigner: true, IsWritable: true},
		},
		Data: []byte{byte(escrow.OpCancelEscrow)},
	}
	if _, err := f.bank.Execute(cancel); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	closeTx := &Transaction{
		Accounts: []AccountMeta{
			{Pubkey: pda, IsWritable: true},
			{Pubkey: f.poster, IsSigner: true, IsWritable: true},
		},
		Data: []byte{byte(escrow.OpCloseEscrow)},
	}
	if _, err := f.bank.Execute(closeTx); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := f.balance(f.poster); got != posterStart {
		t.Errorf("poster balance %d, want %d back to start", got, posterStart)
	}
}

func TestBankDuplicateAccountRejected(t *testing.T) {
	f := newFixture(t)
	tx := &Transaction{
		Accounts: []AccountMeta{
			{Pubkey: f.poster, IsSigner: true, IsWritable: true},
			{Pubkey: f.poster, IsWritable: true},
		},
		Data: []byte{byte(escrow.OpCancelEscrow)},
	}
	if _, err := f.bank.Execute(tx); err == nil {
		t.Error("duplicate account keys must be rejected")
	}
}

func TestBankDigestStability(t *testing.T) {
	f := newFixture(t)
	pda, hash := f.escrowPDA("bank-job-4")
	if _, err := f.bank.Execute(createEscrowTx(pda, f.poster, hash, 40_000_000)); err != nil {
		t.Fatalf("create: %v", err)
	}

	d1, err := f.bank.StateDigest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	d2, err := f.bank.StateDigest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if d1 != d2 {
		t.Error("digest not stable across reads")
	}
	if d1.IsZero() {
		t.Error("digest of non-empty state is zero")
	}
}
