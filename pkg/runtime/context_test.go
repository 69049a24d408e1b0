package runtime

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

func key(seed string) types.Pubkey {
	return types.Pubkey(sha256.Sum256([]byte(seed)))
}

func TestTransferLamports(t *testing.T) {
	programID := key("program")
	from := NewAccountInfo(key("from"), 1000, nil, programID, false, true)
	to := NewAccountInfo(key("to"), 0, nil, types.SystemProgramID, false, true)
	ctx := NewExecutionContext(programID, []*AccountInfo{from, to}, nil)

	if err := ctx.TransferLamports(from, to, 400); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if *from.Lamports != 600 || *to.Lamports != 400 {
		t.Errorf("balances (%d,%d), want (600,400)", *from.Lamports, *to.Lamports)
	}

	if err := ctx.TransferLamports(from, to, 601); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	readonly := NewAccountInfo(key("ro"), 100, nil, programID, false, false)
	if err := ctx.TransferLamports(readonly, to, 1); !errors.Is(err, ErrAccountNotWritable) {
		t.Errorf("expected ErrAccountNotWritable, got %v", err)
	}
}

func TestSystemTransferRequiresSigner(t *testing.T) {
	programID := key("program")
	from := NewAccountInfo(key("payer"), 1000, nil, types.SystemProgramID, false, true)
	to := NewAccountInfo(key("dest"), 0, nil, types.SystemProgramID, false, true)
	ctx := NewExecutionContext(programID, []*AccountInfo{from, to}, nil)

	if err := ctx.SystemTransfer(from, to, 100); !errors.Is(err, ErrAccountNotSigner) {
		t.Errorf("expected ErrAccountNotSigner, got %v", err)
	}
	from.IsSigner = true
	if err := ctx.SystemTransfer(from, to, 100); err != nil {
		t.Errorf("transfer: %v", err)
	}
}

func TestCreateProgramAccount(t *testing.T) {
	programID := key("program")
	seeds := [][]byte{[]byte("record"), []byte("one")}
	pda, bump, err := FindProgramAddress(seeds, programID)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	funder := NewAccountInfo(key("funder"), 10_000, nil, types.SystemProgramID, true, true)
	newAcc := NewAccountInfo(pda, 0, nil, types.SystemProgramID, false, true)
	ctx := NewExecutionContext(programID, []*AccountInfo{funder, newAcc}, nil)

	if err := ctx.CreateProgramAccount(funder, newAcc, seeds, bump, 64, 5_000); err != nil {
		t.Fatalf("create: %v", err)
	}
	if *funder.Lamports != 5_000 || *newAcc.Lamports != 5_000 {
		t.Error("lamports not moved")
	}
	if len(newAcc.Data) != 64 {
		t.Errorf("data len %d, want 64", len(newAcc.Data))
	}
	if newAcc.Owner != programID {
		t.Error("ownership not assigned")
	}

	// Creating over an existing account fails.
	if err := ctx.CreateProgramAccount(funder, newAcc, seeds, bump, 64, 1_000); !errors.Is(err, ErrAccountAlreadyExists) {
		t.Errorf("expected ErrAccountAlreadyExists, got %v", err)
	}
}

func TestCreateProgramAccountWrongAddress(t *testing.T) {
	programID := key("program")
	seeds := [][]byte{[]byte("record"), []byte("two")}
	_, bump, err := FindProgramAddress(seeds, programID)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	funder := NewAccountInfo(key("funder"), 10_000, nil, types.SystemProgramID, true, true)
	wrong := NewAccountInfo(key("not-the-pda"), 0, nil, types.SystemProgramID, false, true)
	ctx := NewExecutionContext(programID, []*AccountInfo{funder, wrong}, nil)

	if err := ctx.CreateProgramAccount(funder, wrong, seeds, bump, 64, 5_000); err == nil {
		t.Error("expected seed mismatch error")
	}
}

func TestCloseAccount(t *testing.T) {
	programID := key("program")
	acc := NewAccountInfo(key("record"), 2_000, make([]byte, 16), programID, false, true)
	for i := range acc.Data {
		acc.Data[i] = 0xFF
	}
	dest := NewAccountInfo(key("dest"), 100, nil, types.SystemProgramID, false, true)
	ctx := NewExecutionContext(programID, []*AccountInfo{acc, dest}, nil)

	if err := ctx.CloseAccount(acc, dest); err != nil {
		t.Fatalf("close: %v", err)
	}
	if *acc.Lamports != 0 || *dest.Lamports != 2_100 {
		t.Error("lamports not drained")
	}
	for _, b := range acc.Data {
		if b != 0 {
			t.Fatal("data not zeroed")
		}
	}

	// Foreign-owned accounts cannot be closed.
	foreign := NewAccountInfo(key("foreign"), 10, nil, types.SystemProgramID, false, true)
	if err := ctx.CloseAccount(foreign, dest); !errors.Is(err, ErrInvalidAccountOwner) {
		t.Errorf("expected ErrInvalidAccountOwner, got %v", err)
	}
}

func TestContextClockAndLogs(t *testing.T) {
	ctx := NewExecutionContext(key("program"), nil, nil)
	ctx.UnixTimestamp = 12345
	ctx.Slot = 99

	now, slot := ctx.Clock()
	if now != 12345 || slot != 99 {
		t.Errorf("clock (%d,%d)", now, slot)
	}

	ctx.AddLog("one")
	ctx.AddLog("two")
	logs := ctx.Logs()
	if len(logs) != 2 || logs[0] != "one" || logs[1] != "two" {
		t.Errorf("logs = %v", logs)
	}
}
