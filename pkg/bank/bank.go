// Package bank executes escrow program transactions against an account
// store with all-or-nothing semantics: a transaction either commits every
// lamport and data change, or leaves the store untouched.
package bank

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/accounts"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/escrow"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// Bank errors
var (
	ErrNoAccounts      = errors.New("transaction names no accounts")
	ErrDuplicateKey    = errors.New("duplicate account key in transaction")
	ErrInstructionData = errors.New("instruction data too large")
)

// AccountMeta names one account a transaction touches.
type AccountMeta struct {
	Pubkey     types.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Transaction is a single escrow program instruction plus its account set.
type Transaction struct {
	Accounts []AccountMeta
	Data     []byte
}

// Bank binds the program to an account store and a clock source.
type Bank struct {
	db      accounts.AccountsDB
	program *escrow.Program

	// Clock state advanced by the host between transactions.
	UnixTimestamp int64
	Slot          uint64
	SlotHashes    []runtime.SlotHash
}

// New creates a bank over the given store.
func New(db accounts.AccountsDB, program *escrow.Program) *Bank {
	return &Bank{
		db:      db,
		program: program,
	}
}

// SetClock advances the bank's clock sysvar.
func (b *Bank) SetClock(unixTimestamp int64, slot uint64) {
	b.UnixTimestamp = unixTimestamp
	b.Slot = slot
}

// PushSlotHash prepends a slot hash, keeping the newest-first order the
// slot-hashes sysvar guarantees.
func (b *Bank) PushSlotHash(slot uint64, hash types.Hash) {
	b.SlotHashes = append([]runtime.SlotHash{{Slot: slot, Hash: hash}}, b.SlotHashes...)
}

// Execute runs one transaction. On success every account mutation is
// committed to the store and the instruction logs are returned; on error
// the store is untouched.
func (b *Bank) Execute(tx *Transaction) ([]string, error) {
	if len(tx.Accounts) == 0 {
		return nil, ErrNoAccounts
	}
	if len(tx.Data) > runtime.MaxInstructionData {
		return nil, ErrInstructionData
	}

	seen := make(map[types.Pubkey]bool, len(tx.Accounts))
	infos := make([]*runtime.AccountInfo, len(tx.Accounts))
	for i, meta := range tx.Accounts {
		if seen[meta.Pubkey] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, meta.Pubkey.String())
		}
		seen[meta.Pubkey] = true

		stored, err := b.db.GetAccount(meta.Pubkey)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			// Unknown accounts materialize empty and system-owned, as the
			// host ledger presents them.
			stored = types.NewAccount(0, types.SystemProgramID)
		}
		infos[i] = runtime.NewAccountInfo(
			meta.Pubkey,
			uint64(stored.Lamports),
			stored.Data,
			stored.Owner,
			meta.IsSigner,
			meta.IsWritable,
		)
	}

	ctx := runtime.NewExecutionContext(b.program.ID, infos, tx.Data)
	ctx.UnixTimestamp = b.UnixTimestamp
	ctx.Slot = b.Slot
	ctx.SlotHashes = b.SlotHashes

	if err := b.program.Execute(ctx); err != nil {
		return nil, err
	}

	for _, info := range infos {
		// Accounts drained to zero lamports are reaped, as the host
		// ledger does after rent collection.
		if *info.Lamports == 0 {
			if err := b.db.DeleteAccount(info.Key); err != nil {
				return nil, err
			}
			continue
		}
		acc := &types.Account{
			Lamports: types.Lamports(*info.Lamports),
			Data:     info.Data,
			Owner:    info.Owner,
		}
		if err := b.db.SetAccount(info.Key, acc); err != nil {
			return nil, err
		}
	}
	return ctx.Logs(), nil
}

// StateDigest computes a blake2b digest over every account owned by the
// program, in store iteration order. Two banks holding the same program
// state produce the same digest.
func (b *Bank) StateDigest() (types.Hash, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return types.ZeroHash, err
	}
	err = b.db.ForEachAccount(func(pubkey types.Pubkey, account *types.Account) error {
		if account.Owner != b.program.ID {
			return nil
		}
		h.Write(pubkey[:])
		var lamports [8]byte
		binary.LittleEndian.PutUint64(lamports[:], uint64(account.Lamports))
		h.Write(lamports[:])
		h.Write(account.Data)
		return nil
	})
	if err != nil {
		return types.ZeroHash, err
	}
	var digest types.Hash
	copy(digest[:], h.Sum(nil))
	return digest, nil
}
