package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/statestore"
	"github.com/custodia-net/vault-escrow-contract/token"
	"github.com/custodia-net/vault-escrow-contract/vaultescrow"
)

// InitVault initializes the custody vault of (mint, signer). Re-running it
// against an existing vault is a benign duplicate: the call reports
// OutcomeAlreadyExists and no error.
func (c *Context) InitVault(ctx context.Context, mint common.Address) (common.Address, common.InitOutcome, error) {
	authority := c.signer.Address()
	vault, _, err := vaultescrow.VaultAddress(mint, authority)
	if err != nil {
		return common.Address{}, 0, err
	}

	op := vaultescrow.InitVault{Authority: authority, Mint: mint}
	ix, err := op.Build()
	if err != nil {
		return common.Address{}, 0, err
	}
	if err := c.submit(ctx, op.Name(), ix); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			c.log.Debug("vault already initialized",
				zap.String("op", op.Name()), zap.Stringer("vault", vault))
			return vault, common.OutcomeAlreadyExists, nil
		}
		return common.Address{}, 0, fmt.Errorf("%s at %s: %w", op.Name(), vault, err)
	}
	c.log.Info("vault initialized", zap.Stringer("vault", vault), zap.Stringer("mint", mint))
	return vault, common.OutcomeCreated, nil
}

// EnsureHolding makes sure the canonical holding account of (owner, mint)
// exists and returns its address. Idempotent by construction.
func (c *Context) EnsureHolding(ctx context.Context, owner, mint common.Address) (common.Address, error) {
	ix, holding, err := token.EnsureHoldingInstruction(owner, mint)
	if err != nil {
		return common.Address{}, err
	}
	if err := c.submit(ctx, "ensure_holding", ix); err != nil {
		return common.Address{}, fmt.Errorf("ensure_holding at %s: %w", holding, err)
	}
	return holding, nil
}

// HoldingBalance reads the balance of the canonical holding account of
// (owner, mint). A missing account reads as zero.
func (c *Context) HoldingBalance(owner, mint common.Address) (uint64, error) {
	addr, _, err := token.HoldingAddress(owner, mint)
	if err != nil {
		return 0, err
	}
	acc, ok := c.session.Account(addr)
	if !ok {
		return 0, nil
	}
	h, err := token.DecodeHolding(acc.Data)
	if err != nil {
		return 0, err
	}
	return h.Amount, nil
}

// FundCustody deposits amount from the signer's holding account into the
// vault's, ensuring the vault holding account exists first. The signer's
// balance is pre-checked so an underfunded deposit fails before
// submission. A zero amount is submitted as-is; the asset ledger accepts
// zero-value transfers as no-ops.
func (c *Context) FundCustody(ctx context.Context, mint common.Address, amount uint64) (common.Address, error) {
	user := c.signer.Address()
	vault, _, err := vaultescrow.VaultAddress(mint, user)
	if err != nil {
		return common.Address{}, err
	}
	if _, err := c.EnsureHolding(ctx, vault, mint); err != nil {
		return common.Address{}, err
	}

	balance, err := c.HoldingBalance(user, mint)
	if err != nil {
		return common.Address{}, err
	}
	if balance < amount {
		return common.Address{}, fmt.Errorf("%s: balance %d below deposit amount %d: %w",
			vaultescrow.NameLockTokens, balance, amount, common.ErrPrecondition)
	}

	op := vaultescrow.LockTokens{User: user, Mint: mint, Amount: amount}
	ix, err := op.Build()
	if err != nil {
		return common.Address{}, err
	}
	if err := c.submit(ctx, op.Name(), ix); err != nil {
		return common.Address{}, fmt.Errorf("%s into %s: %w", op.Name(), vault, err)
	}
	c.log.Info("custody funded", zap.Stringer("vault", vault), zap.Uint64("amount", amount))
	return vault, nil
}

// InitEscrow creates the agreement binding amount and deadline to
// (vault, signer, seller). Amount and deadline are pre-checked against the
// vault's current holdings and the local clock so obvious violations fail
// fast; the program re-checks both at settlement time.
func (c *Context) InitEscrow(ctx context.Context, mint, seller common.Address, amount uint64, deadlineUnix int64) (common.Address, error) {
	buyer := c.signer.Address()
	vault, _, err := vaultescrow.VaultAddress(mint, buyer)
	if err != nil {
		return common.Address{}, err
	}
	escrow, _, err := vaultescrow.EscrowAddress(vault, buyer, seller)
	if err != nil {
		return common.Address{}, err
	}

	if deadlineUnix <= time.Now().Unix() {
		return common.Address{}, fmt.Errorf("%s at %s: %w", vaultescrow.NameInitEscrow, escrow, vaultescrow.ErrBadDeadline)
	}
	holdings, err := c.HoldingBalance(vault, mint)
	if err != nil {
		return common.Address{}, err
	}
	if amount > holdings {
		return common.Address{}, fmt.Errorf("%s at %s: amount %d, vault holdings %d: %w",
			vaultescrow.NameInitEscrow, escrow, amount, holdings, vaultescrow.ErrInsufficientCustody)
	}

	op := vaultescrow.InitEscrow{
		Buyer:        buyer,
		Seller:       seller,
		Mint:         mint,
		Amount:       amount,
		DeadlineUnix: deadlineUnix,
	}
	ix, err := op.Build()
	if err != nil {
		return common.Address{}, err
	}
	if err := c.submit(ctx, op.Name(), ix); err != nil {
		return common.Address{}, fmt.Errorf("%s at %s: %w", op.Name(), escrow, err)
	}
	c.log.Info("escrow created",
		zap.Stringer("escrow", escrow),
		zap.Stringer("seller", seller),
		zap.Uint64("amount", amount),
		zap.Int64("deadline", deadlineUnix))
	return escrow, nil
}

// Release pays the agreement's locked amount out to the seller. The
// seller's holding account is ensured first: its absence would fail the
// release, not the agreement.
func (c *Context) Release(ctx context.Context, mint, seller common.Address) error {
	buyer := c.signer.Address()
	vault, _, err := vaultescrow.VaultAddress(mint, buyer)
	if err != nil {
		return err
	}
	escrow, _, err := vaultescrow.EscrowAddress(vault, buyer, seller)
	if err != nil {
		return err
	}
	if _, err := c.EnsureHolding(ctx, seller, mint); err != nil {
		return err
	}

	op := vaultescrow.ReleaseToSeller{Buyer: buyer, Seller: seller, Mint: mint}
	ix, err := op.Build()
	if err != nil {
		return err
	}
	if err := c.submit(ctx, op.Name(), ix); err != nil {
		return fmt.Errorf("%s at %s: %w", op.Name(), escrow, err)
	}
	c.log.Info("escrow released", zap.Stringer("escrow", escrow), zap.Stringer("seller", seller))
	return nil
}

// Refund returns the locked amount to the buyer once the deadline has
// passed without a release.
func (c *Context) Refund(ctx context.Context, mint, seller common.Address) error {
	buyer := c.signer.Address()
	vault, _, err := vaultescrow.VaultAddress(mint, buyer)
	if err != nil {
		return err
	}
	escrow, _, err := vaultescrow.EscrowAddress(vault, buyer, seller)
	if err != nil {
		return err
	}
	if _, err := c.EnsureHolding(ctx, buyer, mint); err != nil {
		return err
	}

	op := vaultescrow.RefundBuyer{Buyer: buyer, Seller: seller, Mint: mint}
	ix, err := op.Build()
	if err != nil {
		return err
	}
	if err := c.submit(ctx, op.Name(), ix); err != nil {
		return fmt.Errorf("%s at %s: %w", op.Name(), escrow, err)
	}
	c.log.Info("escrow refunded", zap.Stringer("escrow", escrow))
	return nil
}

// Escrow reads the agreement record of (signer, seller) for mint.
func (c *Context) Escrow(mint, seller common.Address) (*vaultescrow.Escrow, error) {
	buyer := c.signer.Address()
	vault, _, err := vaultescrow.VaultAddress(mint, buyer)
	if err != nil {
		return nil, err
	}
	escrow, _, err := vaultescrow.EscrowAddress(vault, buyer, seller)
	if err != nil {
		return nil, err
	}
	acc, ok := c.session.Account(escrow)
	if !ok {
		return nil, fmt.Errorf("escrow %s does not exist: %w", escrow, common.ErrPrecondition)
	}
	return vaultescrow.DecodeEscrow(acc.Data)
}

// Setup runs the full buyer-side preparation for one mint: vault
// initialization (duplicates are benign), custody holding creation, and a
// deposit of lockAmount. When a store is attached, the completed run is
// recorded under a fresh run ID so later runs can resume from it.
func (c *Context) Setup(ctx context.Context, mint common.Address, lockAmount uint64) (*statestore.Record, error) {
	authority := c.signer.Address()

	vault, outcome, err := c.InitVault(ctx, mint)
	if err != nil {
		return nil, err
	}
	c.log.Debug("vault state", zap.Stringer("vault", vault), zap.String("outcome", outcome.String()))

	vaultHolding, err := c.EnsureHolding(ctx, vault, mint)
	if err != nil {
		return nil, err
	}
	if _, err := c.FundCustody(ctx, mint, lockAmount); err != nil {
		return nil, err
	}

	_, bump, err := vaultescrow.VaultAddress(mint, authority)
	if err != nil {
		return nil, err
	}
	rec := &statestore.Record{
		ID:           uuid.New(),
		CreatedUnix:  time.Now().Unix(),
		Mint:         mint,
		Authority:    authority,
		Vault:        vault,
		VaultBump:    bump,
		VaultHolding: vaultHolding,
	}
	if c.store != nil {
		if err := c.store.Put(rec); err != nil {
			return nil, err
		}
		c.log.Debug("setup run recorded", zap.String("run", rec.ID.String()))
	}
	return rec, nil
}
