package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	addr := kp.Address()
	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	require.Equal(t, addr, parsed)
}

func TestAddressFromBytesLength(t *testing.T) {
	_, err := AddressFromBytes(make([]byte, 31))
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, err = AddressFromBytes(make([]byte, 33))
	require.ErrorIs(t, err, ErrInvalidAddress)

	a, err := AddressFromBytes(make([]byte, 32))
	require.NoError(t, err)
	require.True(t, a.IsZero())
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	_, err := ParseAddress("not!base58")
	require.ErrorIs(t, err, ErrInvalidAddress)

	// Valid base58 but wrong length.
	_, err = ParseAddress("abc")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestNamedAddressStable(t *testing.T) {
	a := NamedAddress("token-ledger")
	b := NamedAddress("token-ledger")
	require.Equal(t, a, b)
	require.NotEqual(t, a, NamedAddress("token-ledger2"))
}

func TestAddressTextMarshaling(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	text, err := kp.Address().MarshalText()
	require.NoError(t, err)

	var back Address
	require.NoError(t, back.UnmarshalText(text))
	require.Equal(t, kp.Address(), back)
}
