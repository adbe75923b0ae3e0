package common

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLen is the length of a ledger address in bytes.
const AddressLen = 32

// Address is a 32-byte account identifier. For normal identities it is an
// ed25519 public key; for custody accounts it is a program-derived address
// with no corresponding private key.
type Address [AddressLen]byte

// ErrInvalidAddress is returned when parsing malformed address input.
var ErrInvalidAddress = errors.New("invalid address")

// AddressFromBytes converts a raw byte slice to an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLen {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressLen, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddress decodes the base58 text form of an address.
func ParseAddress(s string) (Address, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return AddressFromBytes(b)
}

// NamedAddress produces the well-known address reserved for a built-in
// program. It is the hash of the program's registered name, so it can never
// collide with an ed25519 keypair held by anyone.
func NamedAddress(name string) Address {
	return Address(sha256.Sum256([]byte("program:" + name)))
}

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Equal reports whether two addresses hold the same bytes.
func (a Address) Equal(b Address) bool {
	return bytes.Equal(a[:], b[:])
}

// String returns the base58 text form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// MarshalText implements encoding.TextMarshaler using the base58 form.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
