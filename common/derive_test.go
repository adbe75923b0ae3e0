package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveAddressDeterministic(t *testing.T) {
	program := NamedAddress("vault-escrow")
	mint := NamedAddress("some-mint")
	authority := NamedAddress("some-authority")

	a1, bump1, err := DeriveAddress(program, []byte("vault"), mint.Bytes(), authority.Bytes())
	require.NoError(t, err)
	a2, bump2, err := DeriveAddress(program, []byte("vault"), mint.Bytes(), authority.Bytes())
	require.NoError(t, err)

	require.Equal(t, a1, a2)
	require.Equal(t, bump1, bump2)
}

func TestDeriveAddressOffCurve(t *testing.T) {
	program := NamedAddress("vault-escrow")
	for i := 0; i < 64; i++ {
		kp, err := GenerateKeypair()
		require.NoError(t, err)
		addr, _, err := DeriveAddress(program, []byte("vault"), kp.Address().Bytes())
		require.NoError(t, err)
		require.False(t, isOnCurve(addr))
	}
}

func TestDeriveAddressDependsOnAllSeeds(t *testing.T) {
	program := NamedAddress("vault-escrow")
	vault := NamedAddress("vault-a")
	buyer := NamedAddress("buyer-a")
	seller := NamedAddress("seller-a")

	base, _, err := DeriveAddress(program, []byte("escrow"), vault.Bytes(), buyer.Bytes(), seller.Bytes())
	require.NoError(t, err)

	variants := [][][]byte{
		{[]byte("escrow"), NamedAddress("vault-b").Bytes(), buyer.Bytes(), seller.Bytes()},
		{[]byte("escrow"), vault.Bytes(), NamedAddress("buyer-b").Bytes(), seller.Bytes()},
		{[]byte("escrow"), vault.Bytes(), buyer.Bytes(), NamedAddress("seller-b").Bytes()},
		{[]byte("vault"), vault.Bytes(), buyer.Bytes(), seller.Bytes()},
	}
	for _, seeds := range variants {
		addr, _, err := DeriveAddress(program, seeds...)
		require.NoError(t, err)
		require.NotEqual(t, base, addr)
	}
}

func TestDeriveAddressDependsOnProgram(t *testing.T) {
	seed := []byte("vault")
	a, _, err := DeriveAddress(NamedAddress("program-a"), seed)
	require.NoError(t, err)
	b, _, err := DeriveAddress(NamedAddress("program-b"), seed)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDeriveAddressWithBump(t *testing.T) {
	program := NamedAddress("vault-escrow")
	seed := NamedAddress("mint").Bytes()

	addr, bump, err := DeriveAddress(program, []byte("vault"), seed)
	require.NoError(t, err)

	again, err := DeriveAddressWithBump(program, bump, []byte("vault"), seed)
	require.NoError(t, err)
	require.Equal(t, addr, again)
}

func TestDeriveAddressSeedLimits(t *testing.T) {
	program := NamedAddress("vault-escrow")

	_, _, err := DeriveAddress(program, make([]byte, MaxSeedLen+1))
	require.ErrorIs(t, err, ErrDerivation)

	many := make([][]byte, MaxSeeds+1)
	for i := range many {
		many[i] = []byte{byte(i)}
	}
	_, _, err = DeriveAddress(program, many...)
	require.ErrorIs(t, err, ErrDerivation)
}
