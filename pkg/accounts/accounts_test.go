package accounts

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	hash := sha256.Sum256([]byte(seed))
	return types.Pubkey(hash)
}

func testAccount(lamports uint64, data []byte) *types.Account {
	return types.NewAccountWithData(types.Lamports(lamports), data, testPubkey("owner"))
}

func TestSerializationRoundTrip(t *testing.T) {
	account := testAccount(123_456, []byte{1, 2, 3, 4, 5})

	buf, err := SerializeAccount(account)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out, err := DeserializeAccount(buf)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if out.Lamports != account.Lamports {
		t.Errorf("lamports %d, want %d", out.Lamports, account.Lamports)
	}
	if !bytes.Equal(out.Data, account.Data) {
		t.Error("data mismatch")
	}
	if out.Owner != account.Owner {
		t.Error("owner mismatch")
	}
}

func TestSerializationEmptyData(t *testing.T) {
	account := testAccount(1, nil)
	buf, err := SerializeAccount(account)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out, err := DeserializeAccount(buf)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if out.DataLen() != 0 {
		t.Errorf("expected empty data, got %d bytes", out.DataLen())
	}
}

func TestDeserializeRejectsMalformed(t *testing.T) {
	if _, err := DeserializeAccount([]byte{1, 2, 3}); err == nil {
		t.Error("short buffer must fail")
	}

	account := testAccount(5, []byte{9, 9})
	buf, _ := SerializeAccount(account)
	if _, err := DeserializeAccount(buf[:len(buf)-1]); err == nil {
		t.Error("truncated buffer must fail")
	}
}

func TestMemoryDB(t *testing.T) {
	db := NewMemoryDB()
	defer db.Close()
	runAccountsDBTests(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadgerDB(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	runAccountsDBTests(t, db)
}

func runAccountsDBTests(t *testing.T, db AccountsDB) {
	t.Helper()
	pk := testPubkey("account-1")

	// Missing account reads as nil, nil.
	got, err := db.GetAccount(pk)
	if err != nil || got != nil {
		t.Fatalf("expected nil,nil for missing account, got %v,%v", got, err)
	}

	account := testAccount(42, []byte{7, 7, 7})
	if err := db.SetAccount(pk, account); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !db.HasAccount(pk) {
		t.Error("HasAccount false after set")
	}
	if got := db.GetAccountsCount(); got != 1 {
		t.Errorf("count %d, want 1", got)
	}

	got, err = db.GetAccount(pk)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Lamports != 42 || !bytes.Equal(got.Data, []byte{7, 7, 7}) {
		t.Errorf("stored account mismatch: %+v", got)
	}

	// Mutating the returned copy must not affect the store.
	got.Lamports = 0
	again, _ := db.GetAccount(pk)
	if again.Lamports != 42 {
		t.Error("store leaked a mutable reference")
	}

	if err := db.DeleteAccount(pk); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if db.HasAccount(pk) {
		t.Error("HasAccount true after delete")
	}
	if got := db.GetAccountsCount(); got != 0 {
		t.Errorf("count %d, want 0", got)
	}
}

func TestBadgerPersistence(t *testing.T) {
	dir := t.TempDir()
	pk := testPubkey("persistent")

	db, err := NewBadgerDB(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.SetAccount(pk, testAccount(99, []byte{1})); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = NewBadgerDB(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	if got := db.GetAccountsCount(); got != 1 {
		t.Errorf("count after reopen %d, want 1", got)
	}
	acc, err := db.GetAccount(pk)
	if err != nil || acc == nil {
		t.Fatalf("get after reopen: %v, %v", acc, err)
	}
	if acc.Lamports != 99 {
		t.Errorf("lamports %d, want 99", acc.Lamports)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := NewMemoryDB()
	for i := 0; i < 10; i++ {
		pk := testPubkey("snap-" + string(rune('a'+i)))
		if err := src.SetAccount(pk, testAccount(uint64(i)*1000+1, []byte{byte(i)})); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(src, &buf); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	dst := NewMemoryDB()
	if err := ReadSnapshot(dst, &buf); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	if src.GetAccountsCount() != dst.GetAccountsCount() {
		t.Fatalf("count mismatch: %d vs %d", src.GetAccountsCount(), dst.GetAccountsCount())
	}
	err := src.ForEachAccount(func(pk types.Pubkey, want *types.Account) error {
		got, err := dst.GetAccount(pk)
		if err != nil {
			return err
		}
		if got == nil || got.Lamports != want.Lamports || !bytes.Equal(got.Data, want.Data) || got.Owner != want.Owner {
			t.Errorf("account %s mismatch after restore", pk.String())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	dst := NewMemoryDB()
	if err := ReadSnapshot(dst, bytes.NewReader([]byte("not a snapshot at all"))); err == nil {
		t.Error("garbage must not restore")
	}
}
