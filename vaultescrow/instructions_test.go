package vaultescrow_test

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/executor"
	"github.com/custodia-net/vault-escrow-contract/token"
	"github.com/custodia-net/vault-escrow-contract/vaultescrow"
)

func TestSelectorDefinition(t *testing.T) {
	sum := sha256.Sum256([]byte("global:init_vault"))
	sel := vaultescrow.Selector(vaultescrow.NameInitVault)
	require.Equal(t, sum[:8], sel[:])
}

func TestSelectorStability(t *testing.T) {
	for _, name := range []string{
		vaultescrow.NameInitVault,
		vaultescrow.NameLockTokens,
		vaultescrow.NameInitEscrow,
		vaultescrow.NameReleaseToSeller,
		vaultescrow.NameRefundBuyer,
	} {
		require.Equal(t, vaultescrow.Selector(name), vaultescrow.Selector(name))
	}
	require.NotEqual(t,
		vaultescrow.Selector(vaultescrow.NameInitVault),
		vaultescrow.Selector(vaultescrow.NameInitEscrow))
}

func TestOperationNameRoundTrip(t *testing.T) {
	buyer := common.NamedAddress("buyer")
	seller := common.NamedAddress("seller")
	mint := common.NamedAddress("mint")

	ops := []vaultescrow.Operation{
		vaultescrow.InitVault{Authority: buyer, Mint: mint},
		vaultescrow.LockTokens{User: buyer, Mint: mint, Amount: 7},
		vaultescrow.InitEscrow{Buyer: buyer, Seller: seller, Mint: mint, Amount: 7, DeadlineUnix: 99},
		vaultescrow.ReleaseToSeller{Buyer: buyer, Seller: seller, Mint: mint},
		vaultescrow.RefundBuyer{Buyer: buyer, Seller: seller, Mint: mint},
	}
	for _, op := range ops {
		ix, err := op.Build()
		require.NoError(t, err)
		name, err := vaultescrow.OperationName(ix.Data)
		require.NoError(t, err)
		require.Equal(t, op.Name(), name)
		require.Equal(t, vaultescrow.ProgramID, ix.Program)
	}
}

func TestOperationNameRejectsUnknown(t *testing.T) {
	_, err := vaultescrow.OperationName([]byte{1, 2, 3})
	require.ErrorIs(t, err, common.ErrPrecondition)
	_, err = vaultescrow.OperationName(make([]byte, 8))
	require.ErrorIs(t, err, common.ErrPrecondition)
}

func TestLockTokensEncoding(t *testing.T) {
	buyer := common.NamedAddress("buyer")
	mint := common.NamedAddress("mint")

	ix, err := vaultescrow.LockTokens{User: buyer, Mint: mint, Amount: 0x0102030405060708}.Build()
	require.NoError(t, err)
	require.Len(t, ix.Data, 16)
	// Little-endian amount after the selector.
	require.EqualValues(t, 0x0102030405060708, binary.LittleEndian.Uint64(ix.Data[8:]))
}

func TestInitEscrowEncoding(t *testing.T) {
	buyer := common.NamedAddress("buyer")
	seller := common.NamedAddress("seller")
	mint := common.NamedAddress("mint")

	ix, err := vaultescrow.InitEscrow{
		Buyer: buyer, Seller: seller, Mint: mint,
		Amount: 50_000, DeadlineUnix: -1,
	}.Build()
	require.NoError(t, err)
	require.Len(t, ix.Data, 24)
	require.EqualValues(t, 50_000, binary.LittleEndian.Uint64(ix.Data[8:16]))
	require.EqualValues(t, -1, int64(binary.LittleEndian.Uint64(ix.Data[16:24])))
}

// The positional account layout is part of the wire contract; this pins it.
func TestAccountListLayout(t *testing.T) {
	buyer := common.NamedAddress("buyer")
	seller := common.NamedAddress("seller")
	mint := common.NamedAddress("mint")

	vault, _, err := vaultescrow.VaultAddress(mint, buyer)
	require.NoError(t, err)
	escrow, _, err := vaultescrow.EscrowAddress(vault, buyer, seller)
	require.NoError(t, err)
	vaultHolding, _, err := token.HoldingAddress(vault, mint)
	require.NoError(t, err)
	sellerHolding, _, err := token.HoldingAddress(seller, mint)
	require.NoError(t, err)

	ix, err := vaultescrow.InitVault{Authority: buyer, Mint: mint}.Build()
	require.NoError(t, err)
	require.Equal(t, []common.AccountMeta{
		{Address: buyer, Signer: true, Writable: true},
		{Address: mint},
		{Address: vault, Writable: true},
		{Address: executor.SystemProgramID},
	}, ix.Accounts)

	ix, err = vaultescrow.ReleaseToSeller{Buyer: buyer, Seller: seller, Mint: mint}.Build()
	require.NoError(t, err)
	require.Equal(t, []common.AccountMeta{
		{Address: buyer, Signer: true, Writable: true},
		{Address: seller, Writable: true},
		{Address: mint},
		{Address: escrow, Writable: true},
		{Address: vault},
		{Address: vaultHolding, Writable: true},
		{Address: sellerHolding, Writable: true},
		{Address: token.ProgramID},
		{Address: token.HoldingProgramID},
		{Address: executor.SystemProgramID},
	}, ix.Accounts)
}
