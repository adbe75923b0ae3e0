package executor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/executor"
	"github.com/custodia-net/vault-escrow-contract/token"
)

func newKeypair(t *testing.T) *common.Keypair {
	t.Helper()
	kp, err := common.GenerateKeypair()
	require.NoError(t, err)
	return kp
}

// ledgerWithMint builds an executor with the token programs registered, a
// 6-decimal mint, and an initial balance for the holder.
func ledgerWithMint(t *testing.T, holder *common.Keypair, initial uint64) (*executor.Executor, common.Address) {
	t.Helper()
	e := executor.New()
	token.RegisterPrograms(e)

	mint := newKeypair(t)
	tx := executor.NewTransaction(token.InitMintInstruction(holder.Address(), mint.Address(), 6, common.Address{}))
	tx.Sign(holder)
	tx.Sign(mint)
	require.NoError(t, e.Submit(context.Background(), tx))

	ensure, holding, err := token.EnsureHoldingInstruction(holder.Address(), mint.Address())
	require.NoError(t, err)
	mintTo := token.MintToInstruction(holder.Address(), mint.Address(), holding, initial)
	tx = executor.NewTransaction(ensure, mintTo)
	tx.Sign(holder)
	require.NoError(t, e.Submit(context.Background(), tx))

	return e, mint.Address()
}

func holdingBalance(t *testing.T, e *executor.Executor, owner, mint common.Address) uint64 {
	t.Helper()
	addr, _, err := token.HoldingAddress(owner, mint)
	require.NoError(t, err)
	acc, ok := e.Account(addr)
	if !ok {
		return 0
	}
	h, err := token.DecodeHolding(acc.Data)
	require.NoError(t, err)
	return h.Amount
}

func TestSubmitRequiresSignatures(t *testing.T) {
	holder := newKeypair(t)
	e, mint := ledgerWithMint(t, holder, 1000)

	other := newKeypair(t)
	_, otherHolding, err := token.EnsureHoldingInstruction(other.Address(), mint)
	require.NoError(t, err)
	srcHolding, _, err := token.HoldingAddress(holder.Address(), mint)
	require.NoError(t, err)

	tx := executor.NewTransaction(token.TransferInstruction(holder.Address(), srcHolding, otherHolding, 10))
	err = e.Submit(context.Background(), tx)
	require.ErrorIs(t, err, common.ErrUnauthorized)

	// A signature by the wrong key does not help.
	tx = executor.NewTransaction(token.TransferInstruction(holder.Address(), srcHolding, otherHolding, 10))
	tx.Sign(other)
	err = e.Submit(context.Background(), tx)
	require.ErrorIs(t, err, common.ErrUnauthorized)

	require.EqualValues(t, 1000, holdingBalance(t, e, holder.Address(), mint))
}

func TestSubmitAtomicRollback(t *testing.T) {
	holder := newKeypair(t)
	e, mint := ledgerWithMint(t, holder, 1000)

	other := newKeypair(t)
	ensure, otherHolding, err := token.EnsureHoldingInstruction(other.Address(), mint)
	require.NoError(t, err)
	srcHolding, _, err := token.HoldingAddress(holder.Address(), mint)
	require.NoError(t, err)

	// First transfer succeeds in isolation; the second overdraws. The
	// whole unit must leave no trace.
	tx := executor.NewTransaction(
		ensure,
		token.TransferInstruction(holder.Address(), srcHolding, otherHolding, 400),
		token.TransferInstruction(holder.Address(), srcHolding, otherHolding, 10_000),
	)
	tx.Sign(holder)
	err = e.Submit(context.Background(), tx)
	require.ErrorIs(t, err, common.ErrPrecondition)

	require.EqualValues(t, 1000, holdingBalance(t, e, holder.Address(), mint))
	require.EqualValues(t, 0, holdingBalance(t, e, other.Address(), mint))
	// The holding account created by the rolled-back unit is gone too.
	_, ok := e.Account(otherHolding)
	require.False(t, ok)
}

func TestSubmitUnknownProgram(t *testing.T) {
	holder := newKeypair(t)
	e := executor.New()

	ix := common.Instruction{
		Program:  common.NamedAddress("nonexistent"),
		Accounts: []common.AccountMeta{common.MetaSigner(holder.Address())},
		Data:     []byte{1},
	}
	tx := executor.NewTransaction(ix)
	tx.Sign(holder)
	err := e.Submit(context.Background(), tx)
	require.ErrorIs(t, err, common.ErrPrecondition)
}

func TestSubmitEmptyTransaction(t *testing.T) {
	e := executor.New()
	err := e.Submit(context.Background(), executor.NewTransaction())
	require.ErrorIs(t, err, common.ErrPrecondition)
}

func TestSubmitCancelledContext(t *testing.T) {
	holder := newKeypair(t)
	e, mint := ledgerWithMint(t, holder, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srcHolding, _, err := token.HoldingAddress(holder.Address(), mint)
	require.NoError(t, err)
	tx := executor.NewTransaction(token.TransferInstruction(holder.Address(), srcHolding, srcHolding, 0))
	tx.Sign(holder)
	err = e.Submit(ctx, tx)
	require.ErrorIs(t, err, common.ErrTransient)
}

func TestAccountReturnsCopy(t *testing.T) {
	holder := newKeypair(t)
	e, mint := ledgerWithMint(t, holder, 500)

	addr, _, err := token.HoldingAddress(holder.Address(), mint)
	require.NoError(t, err)

	acc, ok := e.Account(addr)
	require.True(t, ok)
	for i := range acc.Data {
		acc.Data[i] = 0xff
	}
	require.EqualValues(t, 500, holdingBalance(t, e, holder.Address(), mint))
}

func TestMessageCoversInstructionBytes(t *testing.T) {
	holder := newKeypair(t)
	a := token.TransferInstruction(holder.Address(), common.NamedAddress("a"), common.NamedAddress("b"), 5)
	b := token.TransferInstruction(holder.Address(), common.NamedAddress("a"), common.NamedAddress("b"), 6)

	require.NotEqual(t,
		executor.NewTransaction(a).Message(),
		executor.NewTransaction(b).Message())
	require.Equal(t,
		executor.NewTransaction(a).Message(),
		executor.NewTransaction(a).Message())
}
