package runtime

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// PDA constants
const (
	// MaxSeeds is the maximum number of seeds for PDA derivation
	MaxSeeds = 16
	// MaxSeedLen is the maximum length of a single seed
	MaxSeedLen = 32
	// PDAMarker is the string appended during PDA derivation
	PDAMarker = "ProgramDerivedAddress"
)

// PDA errors
var (
	ErrTooManySeeds = errors.New("too many PDA seeds")
	ErrSeedTooLong  = errors.New("PDA seed too long")
	ErrNoViableBump = errors.New("no viable bump seed found")
)

// CreateProgramAddress creates a PDA from seeds and program ID.
// Returns the PDA and a boolean indicating whether it is valid, which
// requires the hash to fall off the ed25519 curve.
//
// PDA formula: SHA256(seeds... || program_id || "ProgramDerivedAddress")
func CreateProgramAddress(seeds [][]byte, programID types.Pubkey) (types.Pubkey, bool) {
	if len(seeds) > MaxSeeds {
		return types.ZeroPubkey, false
	}
	hasher := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return types.ZeroPubkey, false
		}
		hasher.Write(seed)
	}
	hasher.Write(programID[:])
	hasher.Write([]byte(PDAMarker))

	hash := hasher.Sum(nil)
	if isOnCurve(hash) {
		return types.ZeroPubkey, false
	}

	var pda types.Pubkey
	copy(pda[:], hash)
	return pda, true
}

// FindProgramAddress finds a valid PDA by trying bump seeds from 255 to 0.
// Returns the PDA and the bump seed.
func FindProgramAddress(seeds [][]byte, programID types.Pubkey) (types.Pubkey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return types.ZeroPubkey, 0, ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return types.ZeroPubkey, 0, ErrSeedTooLong
		}
	}

	seedsWithBump := make([][]byte, len(seeds)+1)
	copy(seedsWithBump, seeds)
	bumpSeed := []byte{0}
	seedsWithBump[len(seeds)] = bumpSeed

	for bump := 255; bump >= 0; bump-- {
		bumpSeed[0] = uint8(bump)
		pda, valid := CreateProgramAddress(seedsWithBump, programID)
		if valid {
			return pda, uint8(bump), nil
		}
	}
	return types.ZeroPubkey, 0, ErrNoViableBump
}

// isOnCurve reports whether a 32-byte value decompresses to a valid
// ed25519 curve point. PDAs must not be on the curve, so no private key
// can ever sign for them.
func isOnCurve(data []byte) bool {
	if len(data) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(data)
	return err == nil
}
