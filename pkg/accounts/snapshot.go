package accounts

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// Snapshot format (zstd-compressed stream):
// - magic:   8 bytes ("ESCRSNAP")
// - version: 4 bytes (little-endian uint32)
// - count:   8 bytes (little-endian uint64)
// - count records of:
//     pubkey    32 bytes
//     rec_len    4 bytes (little-endian uint32)
//     record    rec_len bytes (SerializeAccount format)

var snapshotMagic = [8]byte{'E', 'S', 'C', 'R', 'S', 'N', 'A', 'P'}

const snapshotVersion = 1

// ErrInvalidSnapshot is returned for malformed snapshot streams.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// WriteSnapshot streams every account in the database into a compressed
// snapshot.
func WriteSnapshot(db AccountsDB, w io.Writer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	var header [20]byte
	copy(header[:8], snapshotMagic[:])
	binary.LittleEndian.PutUint32(header[8:12], snapshotVersion)
	binary.LittleEndian.PutUint64(header[12:20], db.GetAccountsCount())
	if _, err := enc.Write(header[:]); err != nil {
		enc.Close()
		return err
	}

	err = db.ForEachAccount(func(pubkey types.Pubkey, account *types.Account) error {
		rec, err := SerializeAccount(account)
		if err != nil {
			return err
		}
		var pre [36]byte
		copy(pre[:32], pubkey[:])
		binary.LittleEndian.PutUint32(pre[32:36], uint32(len(rec)))
		if _, err := enc.Write(pre[:]); err != nil {
			return err
		}
		_, err = enc.Write(rec)
		return err
	})
	if err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSnapshot loads a compressed snapshot into the database.
func ReadSnapshot(db AccountsDB, r io.Reader) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	var header [20]byte
	if _, err := io.ReadFull(dec, header[:]); err != nil {
		return fmt.Errorf("%w: short header", ErrInvalidSnapshot)
	}
	if [8]byte(header[:8]) != snapshotMagic {
		return fmt.Errorf("%w: bad magic", ErrInvalidSnapshot)
	}
	if v := binary.LittleEndian.Uint32(header[8:12]); v != snapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, v)
	}
	count := binary.LittleEndian.Uint64(header[12:20])

	for i := uint64(0); i < count; i++ {
		var pre [36]byte
		if _, err := io.ReadFull(dec, pre[:]); err != nil {
			return fmt.Errorf("%w: truncated record header", ErrInvalidSnapshot)
		}
		pubkey, err := types.PubkeyFromBytes(pre[:32])
		if err != nil {
			return err
		}
		recLen := binary.LittleEndian.Uint32(pre[32:36])

		rec := make([]byte, recLen)
		if _, err := io.ReadFull(dec, rec); err != nil {
			return fmt.Errorf("%w: truncated record", ErrInvalidSnapshot)
		}
		account, err := DeserializeAccount(rec)
		if err != nil {
			return err
		}
		if err := db.SetAccount(pubkey, account); err != nil {
			return err
		}
	}
	return nil
}
