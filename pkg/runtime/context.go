// Package runtime provides the execution environment the escrow program
// runs against: account handles, the instruction context with its clock
// and slot-hashes sysvars, lamport movement, and PDA account creation.
//
// A context is built per instruction. The host ledger serializes
// instructions touching the same accounts, so a context is single-threaded
// by construction.
package runtime

import (
	"errors"
	"fmt"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// Context errors
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountNotWritable   = errors.New("account is not writable")
	ErrAccountNotSigner     = errors.New("account is not a signer")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAccountIndex  = errors.New("invalid account index")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrLamportOverflow      = errors.New("lamport balance overflow")
	ErrInvalidAccountOwner  = errors.New("invalid account owner")
	ErrSeedMismatch         = errors.New("account does not match signing seeds")
)

// Limits for execution
const (
	MaxLogMessages     = 64
	MaxInstructionData = 1232
	MaxAccountDataSize = 10 * 1024 * 1024 // 10MB
)

// AccountInfo represents account information available to a program.
type AccountInfo struct {
	Key        types.Pubkey
	Lamports   *uint64 // Pointer allows modification detection
	Data       []byte
	Owner      types.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Clone creates a deep copy of AccountInfo.
func (a *AccountInfo) Clone() *AccountInfo {
	if a == nil {
		return nil
	}
	lamports := *a.Lamports
	clone := &AccountInfo{
		Key:        a.Key,
		Lamports:   &lamports,
		Owner:      a.Owner,
		IsSigner:   a.IsSigner,
		IsWritable: a.IsWritable,
	}
	if a.Data != nil {
		clone.Data = make([]byte, len(a.Data))
		copy(clone.Data, a.Data)
	}
	return clone
}

// NewAccountInfo builds an AccountInfo over a fresh lamport cell.
func NewAccountInfo(key types.Pubkey, lamports uint64, data []byte, owner types.Pubkey, signer, writable bool) *AccountInfo {
	l := lamports
	return &AccountInfo{
		Key:        key,
		Lamports:   &l,
		Data:       data,
		Owner:      owner,
		IsSigner:   signer,
		IsWritable: writable,
	}
}

// SlotHash is one entry of the slot-hashes sysvar, newest first.
type SlotHash struct {
	Slot uint64
	Hash types.Hash
}

// ExecutionContext holds the per-instruction execution state.
type ExecutionContext struct {
	// Program being executed
	ProgramID types.Pubkey

	// Accounts available to the instruction, in instruction order
	Accounts []*AccountInfo

	// Instruction data
	InstructionData []byte

	// Clock sysvar values, read once per instruction
	UnixTimestamp int64
	Slot          uint64

	// Recent slot hashes, newest first
	SlotHashes []SlotHash

	logs []string
}

// NewExecutionContext creates a new execution context.
func NewExecutionContext(programID types.Pubkey, accounts []*AccountInfo, instructionData []byte) *ExecutionContext {
	return &ExecutionContext{
		ProgramID:       programID,
		Accounts:        accounts,
		InstructionData: instructionData,
		logs:            make([]string, 0, MaxLogMessages),
	}
}

// Clock returns the clock sysvar values captured for this instruction.
func (ctx *ExecutionContext) Clock() (unixSeconds int64, slot uint64) {
	return ctx.UnixTimestamp, ctx.Slot
}

// RecentSlotHashes returns the slot-hashes sysvar entries, newest first.
func (ctx *ExecutionContext) RecentSlotHashes() []SlotHash {
	return ctx.SlotHashes
}

// AddLog adds a log message. Messages beyond the cap are dropped.
func (ctx *ExecutionContext) AddLog(message string) {
	if len(ctx.logs) >= MaxLogMessages {
		return
	}
	ctx.logs = append(ctx.logs, message)
}

// Logs returns all log messages.
func (ctx *ExecutionContext) Logs() []string {
	logs := make([]string, len(ctx.logs))
	copy(logs, ctx.logs)
	return logs
}

// Account returns an account by positional index.
func (ctx *ExecutionContext) Account(index int) (*AccountInfo, error) {
	if index < 0 || index >= len(ctx.Accounts) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAccountIndex, index)
	}
	return ctx.Accounts[index], nil
}

// AccountCount returns the number of accounts.
func (ctx *ExecutionContext) AccountCount() int {
	return len(ctx.Accounts)
}

// TransferLamports moves lamports between two writable accounts with
// checked arithmetic. The source must be owned by the executing program
// or be a signer; the caller is responsible for the owner check when the
// source is program-owned.
func (ctx *ExecutionContext) TransferLamports(from, to *AccountInfo, amount uint64) error {
	if !from.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, from.Key.String())
	}
	if !to.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, to.Key.String())
	}
	if *from.Lamports < amount {
		return ErrInsufficientFunds
	}
	if *to.Lamports > ^uint64(0)-amount {
		return ErrLamportOverflow
	}
	*from.Lamports -= amount
	*to.Lamports += amount
	return nil
}

// SystemTransfer moves lamports out of a system-owned signer account,
// the in-process equivalent of a system-program transfer CPI.
func (ctx *ExecutionContext) SystemTransfer(from, to *AccountInfo, amount uint64) error {
	if !from.IsSigner {
		return fmt.Errorf("%w: %s", ErrAccountNotSigner, from.Key.String())
	}
	if from.Owner != types.SystemProgramID {
		return fmt.Errorf("%w: %s", ErrInvalidAccountOwner, from.Key.String())
	}
	return ctx.TransferLamports(from, to, amount)
}

// CreateProgramAccount allocates a new account at a PDA, funds it from the
// funder, and assigns ownership to the executing program. The in-process
// equivalent of a CreateAccount CPI signed with PDA seeds.
func (ctx *ExecutionContext) CreateProgramAccount(funder, newAccount *AccountInfo, seeds [][]byte, bump uint8, space uint64, lamports uint64) error {
	if !funder.IsSigner {
		return fmt.Errorf("%w: funding account", ErrAccountNotSigner)
	}
	if !funder.IsWritable {
		return fmt.Errorf("%w: funding account", ErrAccountNotWritable)
	}
	if !newAccount.IsWritable {
		return fmt.Errorf("%w: new account", ErrAccountNotWritable)
	}
	if *newAccount.Lamports > 0 || len(newAccount.Data) > 0 {
		return ErrAccountAlreadyExists
	}
	if space > MaxAccountDataSize {
		return fmt.Errorf("account data size %d exceeds maximum", space)
	}

	// The new account address must match the seeds the program signs with.
	expected, ok := CreateProgramAddress(appendBump(seeds, bump), ctx.ProgramID)
	if !ok || expected != newAccount.Key {
		return fmt.Errorf("%w: %s", ErrSeedMismatch, newAccount.Key.String())
	}

	if *funder.Lamports < lamports {
		return fmt.Errorf("%w: need %d lamports, have %d", ErrInsufficientFunds, lamports, *funder.Lamports)
	}

	*funder.Lamports -= lamports
	*newAccount.Lamports += lamports
	newAccount.Data = make([]byte, space)
	newAccount.Owner = ctx.ProgramID
	return nil
}

// CloseAccount drains every lamport from a program-owned account into the
// recipient and zeroes its data. The host ledger reclaims the allocation.
func (ctx *ExecutionContext) CloseAccount(account, recipient *AccountInfo) error {
	if account.Owner != ctx.ProgramID {
		return fmt.Errorf("%w: %s", ErrInvalidAccountOwner, account.Key.String())
	}
	if !account.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, account.Key.String())
	}
	if !recipient.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, recipient.Key.String())
	}
	lamports := *account.Lamports
	if *recipient.Lamports > ^uint64(0)-lamports {
		return ErrLamportOverflow
	}
	*account.Lamports = 0
	*recipient.Lamports += lamports
	for i := range account.Data {
		account.Data[i] = 0
	}
	return nil
}

func appendBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, len(seeds)+1)
	copy(out, seeds)
	out[len(seeds)] = []byte{bump}
	return out
}
