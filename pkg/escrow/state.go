package escrow

import "crypto/subtle"

// Every program account starts with an 8-byte type discriminator followed
// by a fixed-size little-endian field layout. Loads verify length and
// discriminator before any field is read; stores refuse buffers that were
// never initialized. Field offsets below mirror the packed C layouts the
// account schemas are specified with, alignment padding included, so the
// byte images are stable across implementations.

// checkInitialized verifies the buffer holds an account of the given type.
func checkInitialized(data []byte, disc [8]byte, space int) error {
	if len(data) < space {
		return ErrInvalidAccountData
	}
	if subtle.ConstantTimeCompare(data[:8], disc[:]) != 1 {
		return ErrAccountNotInitialized
	}
	return nil
}

// initDiscriminator stamps a fresh account buffer with its type tag.
// Fails if the buffer already carries the tag.
func initDiscriminator(data []byte, disc [8]byte, space int) error {
	if len(data) < space {
		return ErrInvalidAccountData
	}
	if subtle.ConstantTimeCompare(data[:8], disc[:]) == 1 {
		return ErrAccountAlreadyInitialized
	}
	copy(data[:8], disc[:])
	for i := 8; i < space; i++ {
		data[i] = 0
	}
	return nil
}

// isZeroed reports whether an account buffer has been closed (all zeros).
func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
