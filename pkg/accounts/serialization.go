package accounts

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// Serialization format:
// - lamports:   8 bytes (little-endian uint64)
// - data_len:   4 bytes (little-endian uint32)
// - data:       data_len bytes
// - owner:      32 bytes
//
// Total fixed size: 8 + 4 + 32 = 44 bytes + variable data

const (
	serializationHeaderSize = 8 + 4 // lamports + data_len
	serializationFooterSize = 32    // owner
	serializationMinSize    = serializationHeaderSize + serializationFooterSize
)

var (
	// ErrInvalidAccountData is returned when stored account bytes are malformed.
	ErrInvalidAccountData = errors.New("invalid account data")
)

// SerializeAccount serializes an account to binary format.
func SerializeAccount(account *types.Account) ([]byte, error) {
	if account == nil {
		return nil, errors.New("cannot serialize nil account")
	}

	dataLen := len(account.Data)
	buf := make([]byte, serializationMinSize+dataLen)

	offset := 0
	binary.LittleEndian.PutUint64(buf[offset:], uint64(account.Lamports))
	offset += 8
	binary.LittleEndian.PutUint32(buf[offset:], uint32(dataLen))
	offset += 4
	copy(buf[offset:], account.Data)
	offset += dataLen
	copy(buf[offset:], account.Owner[:])

	return buf, nil
}

// DeserializeAccount deserializes an account from binary format.
func DeserializeAccount(buf []byte) (*types.Account, error) {
	if len(buf) < serializationMinSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidAccountData, len(buf))
	}

	offset := 0
	lamports := binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	dataLen := int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4

	if len(buf) != serializationMinSize+dataLen {
		return nil, fmt.Errorf("%w: length mismatch", ErrInvalidAccountData)
	}

	var data []byte
	if dataLen > 0 {
		data = make([]byte, dataLen)
		copy(data, buf[offset:offset+dataLen])
	}
	offset += dataLen

	owner, err := types.PubkeyFromBytes(buf[offset : offset+32])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}

	return &types.Account{
		Lamports: types.Lamports(lamports),
		Data:     data,
		Owner:    owner,
	}, nil
}
