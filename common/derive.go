package common

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
)

// derivedAddressMarker is appended to every derivation preimage so that
// derived addresses live in a domain separated from transaction and account
// hashes.
const derivedAddressMarker = "ProgramDerivedAddress"

const (
	// MaxSeeds bounds the number of identifying byte-strings in one
	// derivation.
	MaxSeeds = 16
	// MaxSeedLen bounds the length of a single identifying byte-string.
	MaxSeedLen = 32
)

// DeriveAddress computes the canonical program-derived address for the given
// seeds under the given program, together with the bump salt that pushed the
// address off the ed25519 curve. The result is a pure function of its inputs.
//
// The search runs the bump from 255 downward and accepts the first candidate
// that is not a valid curve point, so no private key can ever correspond to
// the returned address. Exhausting all 256 bumps is cryptographically
// negligible; when it happens anyway the caller must treat it as fatal.
func DeriveAddress(program Address, seeds ...[]byte) (Address, uint8, error) {
	if err := checkSeeds(seeds); err != nil {
		return Address{}, 0, err
	}
	for bump := 255; bump >= 0; bump-- {
		addr := deriveOnce(program, seeds, uint8(bump))
		if !isOnCurve(addr) {
			return addr, uint8(bump), nil
		}
	}
	return Address{}, 0, fmt.Errorf("%w: no viable bump for %d seed(s) under %s",
		ErrDerivation, len(seeds), program)
}

// DeriveAddressWithBump recomputes the address for an already-known bump.
// It fails if the resulting address lies on the curve, i.e. if the bump is
// not a valid proof of derivation.
func DeriveAddressWithBump(program Address, bump uint8, seeds ...[]byte) (Address, error) {
	if err := checkSeeds(seeds); err != nil {
		return Address{}, err
	}
	addr := deriveOnce(program, seeds, bump)
	if isOnCurve(addr) {
		return Address{}, fmt.Errorf("%w: bump %d yields an on-curve address under %s",
			ErrDerivation, bump, program)
	}
	return addr, nil
}

func checkSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return fmt.Errorf("%w: %d seeds exceeds limit of %d", ErrDerivation, len(seeds), MaxSeeds)
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLen {
			return fmt.Errorf("%w: seed %d is %d bytes, limit is %d", ErrDerivation, i, len(s), MaxSeedLen)
		}
	}
	return nil
}

func deriveOnce(program Address, seeds [][]byte, bump uint8) Address {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write([]byte{bump})
	h.Write(program[:])
	h.Write([]byte(derivedAddressMarker))
	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// isOnCurve reports whether b decompresses to a valid edwards25519 point,
// i.e. whether some private key could sign for it.
func isOnCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}
