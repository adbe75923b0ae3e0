package vaultescrow

import (
	"encoding/binary"
	"fmt"

	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/executor"
	"github.com/custodia-net/vault-escrow-contract/token"
)

// Program is the settlement-side vault-escrow state machine.
type Program struct{}

// Register installs the program on the executor under its well-known
// address.
func Register(e *executor.Executor) {
	e.Register(ProgramID, Program{})
}

// Execute dispatches one encoded operation by its selector.
func (Program) Execute(env *executor.Env, accounts []common.AccountMeta, data []byte) error {
	name, err := OperationName(data)
	if err != nil {
		return err
	}
	args := data[SelectorLen:]
	switch name {
	case NameInitVault:
		return initVault(env, args)
	case NameLockTokens:
		return lockTokens(env, args)
	case NameInitEscrow:
		return initEscrow(env, args)
	case NameReleaseToSeller:
		return releaseToSeller(env, args)
	case NameRefundBuyer:
		return refundBuyer(env, args)
	default:
		return fmt.Errorf("%w: unhandled operation %q", common.ErrPrecondition, name)
	}
}

func initVault(env *executor.Env, args []byte) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: init_vault takes no arguments", common.ErrPrecondition)
	}
	authority, err := env.Meta(0)
	if err != nil {
		return err
	}
	if !env.IsSigner(authority.Address) {
		return fmt.Errorf("%w: vault authority must sign", common.ErrUnauthorized)
	}
	mint, err := env.Meta(1)
	if err != nil {
		return err
	}
	if err := checkMintAccount(env, mint.Address); err != nil {
		return err
	}

	_, bump, err := VaultAddress(mint.Address, authority.Address)
	if err != nil {
		return err
	}
	rec := Vault{Authority: authority.Address, Mint: mint.Address, Bump: bump}
	_, err = env.Create(2, rec.Encode(), vaultSeed, mint.Address.Bytes(), authority.Address.Bytes())
	return err
}

func lockTokens(env *executor.Env, args []byte) error {
	if len(args) != 8 {
		return fmt.Errorf("%w: lock_tokens takes a u64 amount", common.ErrPrecondition)
	}
	amount := binary.LittleEndian.Uint64(args)

	user, err := env.Meta(0)
	if err != nil {
		return err
	}
	if !env.IsSigner(user.Address) {
		return fmt.Errorf("%w: depositing user must sign", common.ErrUnauthorized)
	}
	mint, err := env.Meta(1)
	if err != nil {
		return err
	}
	vaultMeta, _, err := loadVault(env, 2, mint.Address)
	if err != nil {
		return err
	}
	vaultHolding, err := env.Meta(3)
	if err != nil {
		return err
	}
	if err := checkCanonicalHolding(vaultHolding.Address, vaultMeta.Address, mint.Address); err != nil {
		return err
	}
	if !env.Exists(vaultHolding.Address) {
		return fmt.Errorf("%w: vault holding account %s does not exist; run the ensure-holding step first",
			common.ErrPrecondition, vaultHolding.Address)
	}
	userHolding, err := env.Meta(4)
	if err != nil {
		return err
	}

	// The asset ledger validates source ownership, matching mints and
	// sufficient balance; the user's transaction signature carries through.
	return env.Invoke(token.TransferInstruction(user.Address, userHolding.Address, vaultHolding.Address, amount))
}

func initEscrow(env *executor.Env, args []byte) error {
	if len(args) != 16 {
		return fmt.Errorf("%w: init_escrow takes a u64 amount and an i64 deadline", common.ErrPrecondition)
	}
	amount := binary.LittleEndian.Uint64(args[:8])
	deadline := int64(binary.LittleEndian.Uint64(args[8:16]))

	buyer, err := env.Meta(0)
	if err != nil {
		return err
	}
	if !env.IsSigner(buyer.Address) {
		return fmt.Errorf("%w: buyer must sign", common.ErrUnauthorized)
	}
	seller, err := env.Meta(1)
	if err != nil {
		return err
	}
	mint, err := env.Meta(2)
	if err != nil {
		return err
	}
	vaultMeta, _, err := loadVault(env, 3, mint.Address)
	if err != nil {
		return err
	}

	if amount == 0 {
		return ErrZeroAmount
	}
	if deadline <= env.Now() {
		return ErrBadDeadline
	}
	if amount > vaultHoldings(env, vaultMeta.Address, mint.Address) {
		return ErrInsufficientCustody
	}

	vault := vaultMeta.Address
	_, bump, err := EscrowAddress(vault, buyer.Address, seller.Address)
	if err != nil {
		return err
	}
	rec := Escrow{
		Vault:        vault,
		Buyer:        buyer.Address,
		Seller:       seller.Address,
		Mint:         mint.Address,
		AmountLocked: amount,
		DeadlineUnix: deadline,
		Status:       StatusActive,
		Bump:         bump,
	}
	_, err = env.Create(4, rec.Encode(), escrowSeed, vault.Bytes(), buyer.Address.Bytes(), seller.Address.Bytes())
	return err
}

func releaseToSeller(env *executor.Env, args []byte) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: release_to_seller takes no arguments", common.ErrPrecondition)
	}
	buyer, err := env.Meta(0)
	if err != nil {
		return err
	}
	seller, err := env.Meta(1)
	if err != nil {
		return err
	}
	mint, err := env.Meta(2)
	if err != nil {
		return err
	}
	esc, err := loadEscrow(env, 3)
	if err != nil {
		return err
	}

	if env.Now() > esc.DeadlineUnix {
		return ErrDeadlinePassed
	}
	if esc.Buyer != buyer.Address || !env.IsSigner(buyer.Address) {
		return ErrNotBuyer
	}
	if esc.Status.Terminal() {
		return fmt.Errorf("%w (status %s)", ErrAlreadyFinalized, esc.Status)
	}
	if esc.Seller != seller.Address {
		return fmt.Errorf("%w: seller does not match the agreement", common.ErrPrecondition)
	}
	if esc.Mint != mint.Address {
		return fmt.Errorf("%w: mint does not match the agreement", common.ErrPrecondition)
	}

	vaultMeta, vault, err := loadVault(env, 4, mint.Address)
	if err != nil {
		return err
	}
	if esc.Vault != vaultMeta.Address {
		return fmt.Errorf("%w: vault does not match the agreement", common.ErrPrecondition)
	}
	vaultHolding, err := env.Meta(5)
	if err != nil {
		return err
	}
	if err := checkCanonicalHolding(vaultHolding.Address, vaultMeta.Address, mint.Address); err != nil {
		return err
	}
	sellerHolding, err := env.Meta(6)
	if err != nil {
		return err
	}
	if err := checkCanonicalHolding(sellerHolding.Address, seller.Address, mint.Address); err != nil {
		return err
	}

	if err := payOut(env, vault, vaultMeta.Address, vaultHolding.Address, sellerHolding.Address, esc.AmountLocked); err != nil {
		return err
	}

	esc.Status = StatusReleased
	return env.SetData(3, esc.Encode())
}

func refundBuyer(env *executor.Env, args []byte) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: refund_buyer takes no arguments", common.ErrPrecondition)
	}
	buyer, err := env.Meta(0)
	if err != nil {
		return err
	}
	mint, err := env.Meta(1)
	if err != nil {
		return err
	}
	esc, err := loadEscrow(env, 2)
	if err != nil {
		return err
	}

	if env.Now() <= esc.DeadlineUnix {
		return ErrTooEarly
	}
	if esc.Buyer != buyer.Address || !env.IsSigner(buyer.Address) {
		return ErrNotBuyer
	}
	if esc.Status.Terminal() {
		return fmt.Errorf("%w (status %s)", ErrAlreadyFinalized, esc.Status)
	}
	if esc.Mint != mint.Address {
		return fmt.Errorf("%w: mint does not match the agreement", common.ErrPrecondition)
	}

	vaultMeta, vault, err := loadVault(env, 3, mint.Address)
	if err != nil {
		return err
	}
	if esc.Vault != vaultMeta.Address {
		return fmt.Errorf("%w: vault does not match the agreement", common.ErrPrecondition)
	}
	vaultHolding, err := env.Meta(4)
	if err != nil {
		return err
	}
	if err := checkCanonicalHolding(vaultHolding.Address, vaultMeta.Address, mint.Address); err != nil {
		return err
	}
	buyerHolding, err := env.Meta(5)
	if err != nil {
		return err
	}
	if err := checkCanonicalHolding(buyerHolding.Address, buyer.Address, mint.Address); err != nil {
		return err
	}

	if err := payOut(env, vault, vaultMeta.Address, vaultHolding.Address, buyerHolding.Address, esc.AmountLocked); err != nil {
		return err
	}

	esc.Status = StatusRefunded
	return env.SetData(2, esc.Encode())
}

// payOut transfers amount out of custody, signed by the vault's derivation
// proof instead of a private key.
func payOut(env *executor.Env, v *Vault, vault, from, to common.Address, amount uint64) error {
	seeds := [][]byte{vaultSeed, v.Mint.Bytes(), v.Authority.Bytes(), {v.Bump}}
	return env.Invoke(token.TransferInstruction(vault, from, to, amount), seeds)
}

// loadVault decodes the vault record at account position i and verifies
// both its mint binding and that the account really is the derived address
// of its own fields.
func loadVault(env *executor.Env, i int, mint common.Address) (common.AccountMeta, *Vault, error) {
	meta, err := env.Meta(i)
	if err != nil {
		return common.AccountMeta{}, nil, err
	}
	data, err := env.Data(i)
	if err != nil {
		return common.AccountMeta{}, nil, err
	}
	v, err := DecodeVault(data)
	if err != nil {
		return common.AccountMeta{}, nil, err
	}
	if v.Mint != mint {
		return common.AccountMeta{}, nil, fmt.Errorf("%w: vault %s holds a different mint", common.ErrPrecondition, meta.Address)
	}
	derived, err := common.DeriveAddressWithBump(ProgramID, v.Bump, vaultSeed, v.Mint.Bytes(), v.Authority.Bytes())
	if err != nil {
		return common.AccountMeta{}, nil, err
	}
	if derived != meta.Address {
		return common.AccountMeta{}, nil, fmt.Errorf("%w: vault %s does not match its derivation", common.ErrPrecondition, meta.Address)
	}
	return meta, v, nil
}

// loadEscrow decodes the escrow record at account position i and verifies
// its derivation.
func loadEscrow(env *executor.Env, i int) (*Escrow, error) {
	meta, err := env.Meta(i)
	if err != nil {
		return nil, err
	}
	data, err := env.Data(i)
	if err != nil {
		return nil, err
	}
	e, err := DecodeEscrow(data)
	if err != nil {
		return nil, err
	}
	derived, err := common.DeriveAddressWithBump(ProgramID, e.Bump, escrowSeed, e.Vault.Bytes(), e.Buyer.Bytes(), e.Seller.Bytes())
	if err != nil {
		return nil, err
	}
	if derived != meta.Address {
		return nil, fmt.Errorf("%w: escrow %s does not match its derivation", common.ErrPrecondition, meta.Address)
	}
	return e, nil
}

// vaultHoldings reads the vault's current holding balance; a missing
// holding account counts as zero.
func vaultHoldings(env *executor.Env, vault, mint common.Address) uint64 {
	addr, _, err := token.HoldingAddress(vault, mint)
	if err != nil {
		return 0
	}
	owner, data, ok := env.Read(addr)
	if !ok || owner != token.ProgramID {
		return 0
	}
	h, err := token.DecodeHolding(data)
	if err != nil {
		return 0
	}
	return h.Amount
}

func checkCanonicalHolding(got, owner, mint common.Address) error {
	want, _, err := token.HoldingAddress(owner, mint)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s is not the canonical holding account of (%s, %s)",
			common.ErrPrecondition, got, owner, mint)
	}
	return nil
}

func checkMintAccount(env *executor.Env, mint common.Address) error {
	owner, data, ok := env.Read(mint)
	if !ok {
		return fmt.Errorf("%w: mint %s does not exist", common.ErrPrecondition, mint)
	}
	if owner != token.ProgramID {
		return fmt.Errorf("%w: %s is not an asset ledger account", common.ErrPrecondition, mint)
	}
	if _, err := token.DecodeMint(data); err != nil {
		return fmt.Errorf("%w: %s is not a mint record", common.ErrPrecondition, mint)
	}
	return nil
}
